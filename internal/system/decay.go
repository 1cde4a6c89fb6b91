package system

import (
	"time"

	"github.com/planes/engine/internal/component"
	"github.com/planes/engine/internal/core/ecs"
	coresys "github.com/planes/engine/internal/core/system"
	"go.uber.org/zap"
)

// DecaySystem drains Health by its Decay rate and deletes entities that reach
// zero HP. Deletions are queued and applied at the end of the frame.
// Phase 3 (PostUpdate).
type DecaySystem struct{}

func NewDecaySystem() *DecaySystem { return &DecaySystem{} }

func (s *DecaySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DecaySystem) Require(req *ecs.Requirements) error {
	return ecs.Require[component.Health](req)
}

func (s *DecaySystem) Update(ctx *ecs.Context, dt time.Duration) error {
	secs := dt.Seconds()
	for _, e := range ctx.Entities() {
		h, err := ecs.Fetch[component.Health](ctx, e)
		if err != nil {
			return err
		}
		if h.Decay > 0 {
			h.Carry += h.Decay * secs
			if lost := int(h.Carry); lost > 0 {
				h.Carry -= float64(lost)
				h.HP -= lost
			}
		}
		if h.HP <= 0 {
			h.HP = 0
			ctx.Logger().Debug("entity depleted", zap.Uint32("entity", uint32(e)))
			ctx.Commands().DeleteEntity(e)
		}
	}
	return nil
}
