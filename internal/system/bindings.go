package system

import (
	"fmt"

	"github.com/planes/engine/internal/component"
	"github.com/planes/engine/internal/config"
	"github.com/planes/engine/internal/core/ecs"
	coresys "github.com/planes/engine/internal/core/system"
	"github.com/planes/engine/internal/scripting"
	lua "github.com/yuin/gopher-lua"
)

// LuaBindings exposes every demo component to scripted systems, keyed by the
// component's registered name.
func LuaBindings() scripting.Bindings {
	b := scripting.Bindings{}
	b.Add(scripting.Bind[component.Position](component.PositionName,
		func(p *component.Position, t *lua.LTable) {
			t.RawSetString("x", lua.LNumber(p.X))
			t.RawSetString("y", lua.LNumber(p.Y))
		},
		func(t *lua.LTable, p *component.Position) {
			p.X = scripting.Number(t, "x")
			p.Y = scripting.Number(t, "y")
		},
	))
	b.Add(scripting.Bind[component.Velocity](component.VelocityName,
		func(v *component.Velocity, t *lua.LTable) {
			t.RawSetString("dx", lua.LNumber(v.DX))
			t.RawSetString("dy", lua.LNumber(v.DY))
		},
		func(t *lua.LTable, v *component.Velocity) {
			v.DX = scripting.Number(t, "dx")
			v.DY = scripting.Number(t, "dy")
		},
	))
	b.Add(scripting.Bind[component.Health](component.HealthName,
		func(h *component.Health, t *lua.LTable) {
			t.RawSetString("hp", lua.LNumber(h.HP))
			t.RawSetString("max", lua.LNumber(h.Max))
			t.RawSetString("decay", lua.LNumber(h.Decay))
		},
		func(t *lua.LTable, h *component.Health) {
			h.HP = scripting.Int(t, "hp")
			h.Max = scripting.Int(t, "max")
			h.Decay = scripting.Number(t, "decay")
		},
	))
	b.Add(scripting.Bind[component.Lifetime](component.LifetimeName,
		func(l *component.Lifetime, t *lua.LTable) {
			t.RawSetString("ttl", lua.LNumber(l.TTL))
		},
		func(t *lua.LTable, l *component.Lifetime) {
			l.TTL = scripting.Number(t, "ttl")
		},
	))
	return b
}

// RegisterBuiltin registers the Go demo systems on w in their phase order.
func RegisterBuiltin(w *ecs.World) error {
	if _, err := ecs.RegisterSystem(w, NewMovementSystem()); err != nil {
		return fmt.Errorf("register movement: %w", err)
	}
	if _, err := ecs.RegisterSystem(w, NewDecaySystem()); err != nil {
		return fmt.Errorf("register decay: %w", err)
	}
	if _, err := ecs.RegisterSystem(w, NewLifetimeSystem()); err != nil {
		return fmt.Errorf("register lifetime: %w", err)
	}
	return nil
}

// RegisterScripted registers one Lua-driven system per definition, under the
// definition's name. Definitions are assumed validated by config.Validate.
func RegisterScripted(w *ecs.World, eng *scripting.Engine, defs []config.ScriptSystem) error {
	bindings := LuaBindings()
	for _, def := range defs {
		fields, err := bindings.Select(def.Components)
		if err != nil {
			return fmt.Errorf("script system %s: %w", def.Name, err)
		}
		phase, ok := coresys.ParsePhase(def.Phase)
		if !ok {
			return fmt.Errorf("script system %s: unknown phase %q", def.Name, def.Phase)
		}
		if !eng.HasFunction(def.Function) {
			return fmt.Errorf("script system %s: %s: %w", def.Name, def.Function, scripting.ErrMissingFunction)
		}
		sys := scripting.NewSystem(eng, def.Function, phase, fields...)
		if _, err := w.RegisterNamedSystem(def.Name, sys); err != nil {
			return fmt.Errorf("script system %s: %w", def.Name, err)
		}
	}
	return nil
}
