package ecs

import "errors"

var (
	// ErrOutOfRange reports an entity value outside [0, capacity).
	ErrOutOfRange = errors.New("ecs: entity out of range")
	// ErrUnknownEntity reports an in-range entity that is not live.
	ErrUnknownEntity = errors.New("ecs: unknown entity")
	// ErrCapacityExhausted is returned by Create when every entity is live.
	ErrCapacityExhausted = errors.New("ecs: entity capacity exhausted")

	ErrUnregisteredKind      = errors.New("ecs: component kind not registered")
	ErrDuplicateRegistration = errors.New("ecs: already registered")
	// ErrKindLimit is returned once every signature bit has been issued.
	ErrKindLimit = errors.New("ecs: component kind limit reached")
	// ErrNoComponent reports get/remove on an entity lacking that kind.
	ErrNoComponent = errors.New("ecs: no component for entity")
	// ErrAlreadyAttached reports add on an entity already carrying that kind.
	ErrAlreadyAttached = errors.New("ecs: component already attached")

	ErrUnregisteredSystem    = errors.New("ecs: system not registered")
	ErrDuplicateRequirement  = errors.New("ecs: component kind already required by system")
	ErrEntityAlreadyInSystem = errors.New("ecs: entity already added to system")
	ErrEntityNotInSystem     = errors.New("ecs: entity not registered in system")
	// ErrIncompatibleSignature reports an explicit system add/remove whose
	// entity signature does not cover the system requirement.
	ErrIncompatibleSignature = errors.New("ecs: entity signature incompatible with system")
	// ErrMemberDesync means a system member lacks a component its signature
	// promises. Correct operation makes this impossible.
	ErrMemberDesync = errors.New("ecs: system member lacks required component")
	// ErrUpdateInProgress is returned for structural changes attempted while a
	// system iterates; queue them on the system's CommandBuffer instead.
	ErrUpdateInProgress = errors.New("ecs: structural change during system update")
)
