package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput      Phase = iota // 0: consume input collected by the event loop
	PhasePreUpdate               // 1: react to last frame's events
	PhaseUpdate                  // 2: simulation
	PhasePostUpdate              // 3: derived state (decay, expiry)
	PhaseOutput                  // 4: hand results to the renderer
)

// System is anything the Runner can drive once per frame.
type System interface {
	Phase() Phase
	Update(dt time.Duration) error
}

// ParsePhase maps a config name ("input", "update", ...) to a Phase.
func ParsePhase(name string) (Phase, bool) {
	switch name {
	case "input":
		return PhaseInput, true
	case "pre_update":
		return PhasePreUpdate, true
	case "", "update":
		return PhaseUpdate, true
	case "post_update":
		return PhasePostUpdate, true
	case "output":
		return PhaseOutput, true
	}
	return 0, false
}

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	}
	return "phase(?)"
}
