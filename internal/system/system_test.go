package system

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/planes/engine/internal/component"
	"github.com/planes/engine/internal/config"
	"github.com/planes/engine/internal/core/ecs"
	"github.com/planes/engine/internal/scripting"
	"go.uber.org/zap/zaptest"
)

func newWorld(t *testing.T) *ecs.World {
	t.Helper()
	w, err := ecs.NewWorld(ecs.Options{
		MaxEntities:       32,
		MaxComponentKinds: ecs.MaxComponentKinds,
		Logger:            zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if err := component.RegisterAll(w); err != nil {
		t.Fatalf("register components: %v", err)
	}
	return w
}

func spawn(t *testing.T, w *ecs.World, attach ...func(ecs.Entity) error) ecs.Entity {
	t.Helper()
	e, err := w.CreateEntity()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, a := range attach {
		if err := a(e); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}
	return e
}

func with[T any](w *ecs.World, v T) func(ecs.Entity) error {
	return func(e ecs.Entity) error { return ecs.AddComponent(w, e, v) }
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMovementIntegratesVelocity(t *testing.T) {
	w := newWorld(t)
	if err := RegisterBuiltin(w); err != nil {
		t.Fatalf("register: %v", err)
	}
	mover := spawn(t, w, with(w, component.Position{X: 1}), with(w, component.Velocity{DX: 2, DY: -4}))
	still := spawn(t, w, with(w, component.Position{X: 7, Y: 7}))

	for i := 0; i < 4; i++ {
		if err := w.Tick(250 * time.Millisecond); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	p, _ := ecs.GetComponent[component.Position](w, mover)
	if !near(p.X, 3) || !near(p.Y, -4) {
		t.Fatalf("expected (3,-4), got (%v,%v)", p.X, p.Y)
	}
	p, _ = ecs.GetComponent[component.Position](w, still)
	if p.X != 7 || p.Y != 7 {
		t.Fatalf("entity without velocity moved to (%v,%v)", p.X, p.Y)
	}
}

func TestDecayDrainsAndDeletes(t *testing.T) {
	w := newWorld(t)
	if err := RegisterBuiltin(w); err != nil {
		t.Fatalf("register: %v", err)
	}
	slow := spawn(t, w, with(w, component.Health{HP: 10, Max: 10, Decay: 2}))
	doomed := spawn(t, w, with(w, component.Health{HP: 1, Max: 1, Decay: 4}))

	// 4 ticks of 100ms: slow loses 0.8 (carried, no whole point), doomed
	// loses 1.6 and dies on the third tick.
	for i := 0; i < 4; i++ {
		if err := w.Tick(100 * time.Millisecond); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if w.Alive(doomed) {
		t.Fatalf("expected entity %d to be deleted", doomed)
	}
	h, err := ecs.GetComponent[component.Health](w, slow)
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	if h.HP != 10 {
		t.Fatalf("expected HP 10 while the remainder is carried, got %d", h.HP)
	}
	if err := w.Tick(100 * time.Millisecond); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if h, _ = ecs.GetComponent[component.Health](w, slow); h.HP != 9 {
		t.Fatalf("expected HP 9 after one whole point, got %d", h.HP)
	}
}

func TestLifetimeExpires(t *testing.T) {
	w := newWorld(t)
	if err := RegisterBuiltin(w); err != nil {
		t.Fatalf("register: %v", err)
	}
	short := spawn(t, w, with(w, component.Lifetime{TTL: 0.5}))
	long := spawn(t, w, with(w, component.Lifetime{TTL: 5}))

	for i := 0; i < 3; i++ {
		if err := w.Tick(200 * time.Millisecond); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if w.Alive(short) || !w.Alive(long) {
		t.Fatalf("expected only entity %d to expire", short)
	}
	lt, err := ecs.GetSystem[*LifetimeSystem](w)
	if err != nil {
		t.Fatalf("get system: %v", err)
	}
	if lt.Expired() != 1 {
		t.Fatalf("expected 1 expiry, got %d", lt.Expired())
	}
}

func TestDecayAndLifetimeSameFrame(t *testing.T) {
	w := newWorld(t)
	if err := RegisterBuiltin(w); err != nil {
		t.Fatalf("register: %v", err)
	}
	e := spawn(t, w,
		with(w, component.Health{HP: 0, Max: 1}),
		with(w, component.Lifetime{TTL: 0.01}),
	)
	if err := w.Tick(100 * time.Millisecond); err != nil {
		t.Fatalf("double delete in one frame should be tolerated: %v", err)
	}
	if w.Alive(e) {
		t.Fatalf("expected entity %d to be deleted", e)
	}
}

func TestRegisterBuiltinTwice(t *testing.T) {
	w := newWorld(t)
	if err := RegisterBuiltin(w); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterBuiltin(w); !errors.Is(err, ecs.ErrDuplicateRegistration) {
		t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
	}
}

func newEngine(t *testing.T, src string) *scripting.Engine {
	t.Helper()
	eng, err := scripting.NewEngine("", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(eng.Close)
	if err := eng.DoString(src); err != nil {
		t.Fatalf("load script: %v", err)
	}
	return eng
}

func TestRegisterScripted(t *testing.T) {
	w := newWorld(t)
	eng := newEngine(t, `
function gravity(ent, dt)
  ent.velocity.dy = ent.velocity.dy - 10 * dt
end
function heal(ent, dt)
  if ent.health.hp < ent.health.max then ent.health.hp = ent.health.hp + 1 end
end`)
	defs := []config.ScriptSystem{
		{Name: "gravity", Function: "gravity", Components: []string{"velocity"}, Phase: "pre_update"},
		{Name: "heal", Function: "heal", Components: []string{"health"}},
	}
	if err := RegisterScripted(w, eng, defs); err != nil {
		t.Fatalf("register scripted: %v", err)
	}
	if err := RegisterBuiltin(w); err != nil {
		t.Fatalf("register builtin: %v", err)
	}
	e := spawn(t, w,
		with(w, component.Position{}),
		with(w, component.Velocity{}),
		with(w, component.Health{HP: 3, Max: 5}),
	)
	if err := w.Tick(time.Second); err != nil {
		t.Fatalf("tick: %v", err)
	}
	// gravity runs before movement, so the new velocity is integrated the
	// same frame.
	p, _ := ecs.GetComponent[component.Position](w, e)
	if !near(p.Y, -10) {
		t.Fatalf("expected y -10, got %v", p.Y)
	}
	h, _ := ecs.GetComponent[component.Health](w, e)
	if h.HP != 4 {
		t.Fatalf("expected hp 4, got %d", h.HP)
	}
	if _, err := w.LookupSystem("heal"); err != nil {
		t.Fatalf("lookup heal: %v", err)
	}
}

func TestRegisterScriptedErrors(t *testing.T) {
	eng := newEngine(t, `function noop(ent, dt) end`)
	tests := []struct {
		name string
		def  config.ScriptSystem
		want error
	}{
		{"missing function", config.ScriptSystem{Name: "a", Function: "ghost", Components: []string{"position"}}, scripting.ErrMissingFunction},
		{"unknown binding", config.ScriptSystem{Name: "b", Function: "noop", Components: []string{"mana"}}, nil},
		{"unknown phase", config.ScriptSystem{Name: "c", Function: "noop", Phase: "later"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t)
			err := RegisterScripted(w, eng, []config.ScriptSystem{tt.def})
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
