package ecs

import (
	"fmt"

	"github.com/planes/engine/internal/assert"
)

// store is implemented by every ComponentArray so the Registry can address
// arrays without knowing their element type.
type store interface {
	Kind() Kind
	Has(e Entity) bool
	Len() int
	EntityDeleted(e Entity)
}

// ComponentArray is the dense storage for one component kind. Values and
// their owners are packed in parallel slices; removal swaps the last element
// into the hole, so iteration order is not stable.
type ComponentArray[T any] struct {
	kind     Kind
	values   []T
	entities []Entity
	index    map[Entity]int
}

func NewComponentArray[T any](kind Kind) *ComponentArray[T] {
	return &ComponentArray[T]{
		kind:     kind,
		values:   make([]T, 0, 64),
		entities: make([]Entity, 0, 64),
		index:    make(map[Entity]int, 64),
	}
}

func (a *ComponentArray[T]) Kind() Kind { return a.kind }
func (a *ComponentArray[T]) Len() int   { return len(a.values) }

func (a *ComponentArray[T]) Has(e Entity) bool {
	_, ok := a.index[e]
	return ok
}

// Add attaches v to e. Re-adding an attached entity fails; it never overwrites.
func (a *ComponentArray[T]) Add(e Entity, v T) error {
	if _, ok := a.index[e]; ok {
		return fmt.Errorf("kind %d, entity %d: %w", a.kind, e, ErrAlreadyAttached)
	}
	a.index[e] = len(a.values)
	a.values = append(a.values, v)
	a.entities = append(a.entities, e)
	return nil
}

// Get returns a pointer into the dense slice. It stays valid until the next
// Add or Remove on this array.
func (a *ComponentArray[T]) Get(e Entity) (*T, error) {
	i, ok := a.index[e]
	if !ok {
		return nil, fmt.Errorf("kind %d, entity %d: %w", a.kind, e, ErrNoComponent)
	}
	return &a.values[i], nil
}

func (a *ComponentArray[T]) Remove(e Entity) error {
	if _, ok := a.index[e]; !ok {
		return fmt.Errorf("kind %d, entity %d: %w", a.kind, e, ErrNoComponent)
	}
	a.swapRemove(e)
	return nil
}

// EntityDeleted drops e's value if present. Arrays that never held e ignore it.
func (a *ComponentArray[T]) EntityDeleted(e Entity) {
	if _, ok := a.index[e]; ok {
		a.swapRemove(e)
	}
}

// Entities returns the owners in dense order. The slice aliases internal
// storage and must not be modified.
func (a *ComponentArray[T]) Entities() []Entity { return a.entities }

// Each visits every value in dense order. fn must not add or remove values
// of this kind.
func (a *ComponentArray[T]) Each(fn func(Entity, *T)) {
	for i := range a.values {
		fn(a.entities[i], &a.values[i])
	}
}

func (a *ComponentArray[T]) swapRemove(e Entity) {
	i := a.index[e]
	last := len(a.values) - 1
	if i != last {
		moved := a.entities[last]
		a.values[i] = a.values[last]
		a.entities[i] = moved
		a.index[moved] = i
	}
	var zero T
	a.values[last] = zero
	a.values = a.values[:last]
	a.entities = a.entities[:last]
	delete(a.index, e)
	assert.True(len(a.values) == len(a.index), "len(a.values) == len(a.index)")
}
