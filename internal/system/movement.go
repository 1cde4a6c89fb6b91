package system

import (
	"time"

	"github.com/planes/engine/internal/component"
	"github.com/planes/engine/internal/core/ecs"
	coresys "github.com/planes/engine/internal/core/system"
)

// MovementSystem integrates Velocity into Position. Phase 2 (Update).
type MovementSystem struct{}

func NewMovementSystem() *MovementSystem { return &MovementSystem{} }

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Require(req *ecs.Requirements) error {
	if err := ecs.Require[component.Position](req); err != nil {
		return err
	}
	return ecs.Require[component.Velocity](req)
}

func (s *MovementSystem) Update(ctx *ecs.Context, dt time.Duration) error {
	secs := dt.Seconds()
	for _, e := range ctx.Entities() {
		pos, err := ecs.Fetch[component.Position](ctx, e)
		if err != nil {
			return err
		}
		vel, err := ecs.Fetch[component.Velocity](ctx, e)
		if err != nil {
			return err
		}
		pos.X += vel.DX * secs
		pos.Y += vel.DY * secs
	}
	return nil
}
