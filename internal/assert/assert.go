// Package assert guards internal invariants in debug builds.
//
// Build with -tags ecsdebug to enable the checks; otherwise True compiles to
// a constant-false branch and costs nothing.
package assert

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// ErrAssertionFailed is matched by every *Failure.
var ErrAssertionFailed = errors.New("assertion failed")

// Failure describes a violated invariant and where it was checked.
type Failure struct {
	Expr string
	File string
	Line int
	Func string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("assertion %s failed in %s:%d (%s)", f.Expr, f.File, f.Line, f.Func)
}

func (f *Failure) Unwrap() error { return ErrAssertionFailed }

// True panics with a *Failure when debug assertions are enabled and ok is false.
func True(ok bool, expr string) {
	if Enabled && !ok {
		panic(newFailure(expr, 2))
	}
}

func newFailure(expr string, skip int) *Failure {
	f := &Failure{Expr: expr, File: "?", Func: "?"}
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return f
	}
	f.File = filepath.Base(file)
	f.Line = line
	if fn := runtime.FuncForPC(pc); fn != nil {
		f.Func = fn.Name()
	}
	return f
}
