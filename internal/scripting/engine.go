package scripting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/planes/engine/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrMissingFunction is returned when a scripted system's Lua function is not
// defined.
var ErrMissingFunction = errors.New("scripting: lua function not defined")

// Engine wraps a single gopher-lua VM. Single-goroutine access only (the
// frame loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
	ctx *ecs.Context // set while a scripted system updates
}

// NewEngine creates a Lua VM and loads every .lua file under scriptsDir in
// lexical path order. A missing directory loads nothing.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	e := &Engine{vm: vm, log: log}

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("despawn", vm.NewFunction(e.luaDespawn))

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".lua" {
			return nil
		}
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// DoString runs a chunk of Lua source in the engine's global scope.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// HasFunction reports whether name is a global Lua function.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// despawn(entity) queues the deletion of entity for the end of the frame.
// Only valid inside a scripted system's update.
func (e *Engine) luaDespawn(L *lua.LState) int {
	ent := L.CheckInt(1)
	if e.ctx == nil {
		L.RaiseError("despawn called outside a system update")
		return 0
	}
	e.ctx.Commands().DeleteEntity(ecs.Entity(ent))
	return 0
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// --- Lua helpers ---

// Number reads a numeric field from a Lua table; missing fields read as 0.
func Number(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// Int reads an integer field from a Lua table.
func Int(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}
