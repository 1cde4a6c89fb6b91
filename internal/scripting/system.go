package scripting

import (
	"fmt"
	"time"

	"github.com/planes/engine/internal/core/ecs"
	coresys "github.com/planes/engine/internal/core/system"
	lua "github.com/yuin/gopher-lua"
)

// Field exposes one component kind to Lua.
type Field interface {
	Name() string
	require(req *ecs.Requirements) error
	push(L *lua.LState, ctx *ecs.Context, e ecs.Entity) (*lua.LTable, error)
	pull(ctx *ecs.Context, e ecs.Entity, t *lua.LTable) error
}

type binding[T any] struct {
	name   string
	encode func(v *T, t *lua.LTable)
	decode func(t *lua.LTable, v *T)
}

// Bind exposes component T to scripts under name. decode may be nil for
// read-only access.
func Bind[T any](name string, encode func(*T, *lua.LTable), decode func(*lua.LTable, *T)) Field {
	return &binding[T]{name: name, encode: encode, decode: decode}
}

func (b *binding[T]) Name() string { return b.name }

func (b *binding[T]) require(req *ecs.Requirements) error {
	return ecs.Require[T](req)
}

func (b *binding[T]) push(L *lua.LState, ctx *ecs.Context, e ecs.Entity) (*lua.LTable, error) {
	v, err := ecs.Fetch[T](ctx, e)
	if err != nil {
		return nil, err
	}
	t := L.NewTable()
	b.encode(v, t)
	return t, nil
}

func (b *binding[T]) pull(ctx *ecs.Context, e ecs.Entity, t *lua.LTable) error {
	if b.decode == nil {
		return nil
	}
	v, err := ecs.Fetch[T](ctx, e)
	if err != nil {
		return err
	}
	b.decode(t, v)
	return nil
}

// Bindings indexes Fields by name so config can select them.
type Bindings map[string]Field

// Add registers f under its name.
func (b Bindings) Add(f Field) Bindings {
	b[f.Name()] = f
	return b
}

// Select returns the fields for names, in order.
func (b Bindings) Select(names []string) ([]Field, error) {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		f, ok := b[n]
		if !ok {
			return nil, fmt.Errorf("scripting: no lua binding for component %q", n)
		}
		out = append(out, f)
	}
	return out, nil
}

// System runs a global Lua function once per member each frame:
//
//	function fn(ent, dt)  -- ent.entity, ent.<field>..., dt in seconds
//
// Field tables are written back to the components after each call.
type System struct {
	engine *Engine
	fn     string
	phase  coresys.Phase
	fields []Field
}

func NewSystem(engine *Engine, fn string, phase coresys.Phase, fields ...Field) *System {
	return &System{engine: engine, fn: fn, phase: phase, fields: fields}
}

func (s *System) Phase() coresys.Phase { return s.phase }

func (s *System) Require(req *ecs.Requirements) error {
	for _, f := range s.fields {
		if err := f.require(req); err != nil {
			return fmt.Errorf("lua field %s: %w", f.Name(), err)
		}
	}
	return nil
}

func (s *System) Update(ctx *ecs.Context, dt time.Duration) error {
	L := s.engine.vm
	fn, ok := L.GetGlobal(s.fn).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("%s: %w", s.fn, ErrMissingFunction)
	}
	s.engine.ctx = ctx
	defer func() { s.engine.ctx = nil }()

	secs := lua.LNumber(dt.Seconds())
	for _, e := range ctx.Entities() {
		ent := L.NewTable()
		ent.RawSetString("entity", lua.LNumber(e))
		for _, f := range s.fields {
			t, err := f.push(L, ctx, e)
			if err != nil {
				return err
			}
			ent.RawSetString(f.Name(), t)
		}
		if err := L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, ent, secs); err != nil {
			return fmt.Errorf("lua %s(entity %d): %w", s.fn, e, err)
		}
		// A script may replace a field table outright.
		for _, f := range s.fields {
			t, ok := ent.RawGetString(f.Name()).(*lua.LTable)
			if !ok {
				return fmt.Errorf("lua %s(entity %d): field %s is not a table", s.fn, e, f.Name())
			}
			if err := f.pull(ctx, e, t); err != nil {
				return err
			}
		}
	}
	return nil
}
