package ecs

// Lifecycle events emitted on Options.Events. They are delivered at the start
// of the next Tick.

type EntityCreated struct {
	Entity Entity
}

type EntityDeleted struct {
	Entity Entity
}

type ComponentAdded struct {
	Entity Entity
	Kind   Kind
}

type ComponentRemoved struct {
	Entity Entity
	Kind   Kind
}

// SystemJoined is emitted when an entity becomes a member of a system,
// either by signature routing or by an explicit AddEntityToSystem.
type SystemJoined struct {
	Entity Entity
	System SystemID
}

type SystemLeft struct {
	Entity Entity
	System SystemID
}
