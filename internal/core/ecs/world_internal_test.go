package ecs

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

type health struct{ HP int }

type reqSystem struct{ kinds []Kind }

func (s *reqSystem) Require(req *Requirements) error {
	for _, k := range s.kinds {
		if err := req.RequireKind(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *reqSystem) Update(*Context, time.Duration) error { return nil }

// checkRouting verifies membership == (signature covers requirement) for
// every live entity and system, and that no dead entity is a member.
func checkRouting(t *testing.T, w *World) {
	t.Helper()
	for _, s := range w.systems.entries {
		for _, e := range s.members.Entities() {
			if !w.pool.Alive(e) {
				t.Fatalf("system %s holds dead entity %d", s.name, e)
			}
		}
	}
	w.pool.Each(func(e Entity, sig Signature) {
		for _, s := range w.systems.entries {
			if s.members.Has(e) != sig.Contains(s.required) {
				t.Fatalf("entity %d sig %v, system %s requires %v: member=%v",
					e, sig, s.name, s.required, s.members.Has(e))
			}
		}
		for k := Kind(0); int(k) < w.components.Len(); k++ {
			if sig.Has(k) != w.components.Has(k, e) {
				t.Fatalf("entity %d: signature bit %d disagrees with storage", e, k)
			}
		}
	})
}

func TestRoutingInvariantUnderRandomMutation(t *testing.T) {
	w, err := NewWorld(Options{MaxEntities: 32, MaxComponentKinds: 8})
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	pk, _ := RegisterComponent[position](w, "")
	vk, _ := RegisterComponent[velocity](w, "")
	hk, _ := RegisterComponent[health](w, "")
	systems := [][]Kind{{pk}, {pk, vk}, {vk, hk}, {pk, vk, hk}, {}}
	for i, kinds := range systems {
		if _, err := w.RegisterNamedSystem(string(rune('a'+i)), &reqSystem{kinds: kinds}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	rng := rand.New(rand.NewSource(7))
	var live []Entity
	for step := 0; step < 3000; step++ {
		switch op := rng.Intn(10); {
		case op < 2 || len(live) == 0:
			if e, err := w.CreateEntity(); err == nil {
				live = append(live, e)
			}
		case op < 3:
			i := rng.Intn(len(live))
			if err := w.DeleteEntity(live[i]); err != nil {
				t.Fatalf("step %d delete: %v", step, err)
			}
			live = append(live[:i], live[i+1:]...)
		default:
			e := live[rng.Intn(len(live))]
			var err error
			switch rng.Intn(6) {
			case 0:
				err = AddComponent(w, e, position{})
			case 1:
				err = RemoveComponent[position](w, e)
			case 2:
				err = AddComponent(w, e, velocity{})
			case 3:
				err = RemoveComponent[velocity](w, e)
			case 4:
				err = AddComponent(w, e, health{HP: 1})
			case 5:
				err = RemoveComponent[health](w, e)
			}
			if err != nil && !isExpectedAttachError(err) {
				t.Fatalf("step %d: %v", step, err)
			}
		}
		checkRouting(t, w)
	}
}

func TestFailedMutationLeavesStateUnchanged(t *testing.T) {
	w, _ := NewWorld(Options{MaxEntities: 4, MaxComponentKinds: 8})
	pk, _ := RegisterComponent[position](w, "")
	_, _ = w.RegisterNamedSystem("p", &reqSystem{kinds: []Kind{pk}})
	e, _ := w.CreateEntity()
	_ = AddComponent(w, e, position{X: 1})

	before, _ := w.Signature(e)
	if err := AddComponent(w, e, position{X: 2}); err == nil {
		t.Fatalf("expected re-attach to fail")
	}
	if err := RemoveComponent[velocity](w, e); err == nil {
		t.Fatalf("expected unregistered kind to fail")
	}
	after, _ := w.Signature(e)
	if before != after {
		t.Fatalf("signature changed by failed calls: %v -> %v", before, after)
	}
	checkRouting(t, w)
}

func isExpectedAttachError(err error) bool {
	return errors.Is(err, ErrAlreadyAttached) || errors.Is(err, ErrNoComponent)
}
