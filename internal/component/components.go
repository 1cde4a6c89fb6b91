// Package component holds the demo simulation's components.
// Pure data, zero methods: all mutation happens in internal/system.
package component

import (
	"fmt"

	"github.com/planes/engine/internal/core/ecs"
)

// Position is a point in world units.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Velocity is in world units per second.
type Velocity struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

// Health drains by Decay points per second; Carry holds the fractional
// remainder between frames.
type Health struct {
	HP    int     `yaml:"hp"`
	Max   int     `yaml:"max"`
	Decay float64 `yaml:"decay"`
	Carry float64 `yaml:"-"`
}

// Lifetime expires its entity after TTL seconds.
type Lifetime struct {
	TTL float64 `yaml:"ttl"`
}

// Names used in spawn tables and script bindings.
const (
	PositionName = "position"
	VelocityName = "velocity"
	HealthName   = "health"
	LifetimeName = "lifetime"
)

// RegisterAll registers every component kind on w.
func RegisterAll(w *ecs.World) error {
	steps := []func() error{
		func() error { _, err := ecs.RegisterComponent[Position](w, PositionName); return err },
		func() error { _, err := ecs.RegisterComponent[Velocity](w, VelocityName); return err },
		func() error { _, err := ecs.RegisterComponent[Health](w, HealthName); return err },
		func() error { _, err := ecs.RegisterComponent[Lifetime](w, LifetimeName); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("register components: %w", err)
		}
	}
	return nil
}
