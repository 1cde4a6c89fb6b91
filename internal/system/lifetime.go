package system

import (
	"time"

	"github.com/planes/engine/internal/component"
	"github.com/planes/engine/internal/core/ecs"
	coresys "github.com/planes/engine/internal/core/system"
)

// LifetimeSystem counts down Lifetime.TTL and deletes expired entities at the
// end of the frame. Phase 3 (PostUpdate).
type LifetimeSystem struct {
	expired int
}

func NewLifetimeSystem() *LifetimeSystem { return &LifetimeSystem{} }

func (s *LifetimeSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *LifetimeSystem) Require(req *ecs.Requirements) error {
	return ecs.Require[component.Lifetime](req)
}

// Expired returns how many entities this system has retired so far.
func (s *LifetimeSystem) Expired() int { return s.expired }

func (s *LifetimeSystem) Update(ctx *ecs.Context, dt time.Duration) error {
	secs := dt.Seconds()
	for _, e := range ctx.Entities() {
		lt, err := ecs.Fetch[component.Lifetime](ctx, e)
		if err != nil {
			return err
		}
		lt.TTL -= secs
		if lt.TTL <= 0 {
			s.expired++
			ctx.Commands().DeleteEntity(e)
		}
	}
	return nil
}
