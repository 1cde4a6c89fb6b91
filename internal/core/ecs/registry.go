package ecs

import (
	"fmt"

	"go.uber.org/zap"
)

// typeKey identifies T without reflection: a typed nil pointer boxed in an
// interface compares equal only to the same type.
func typeKey[T any]() any { return (*T)(nil) }

// Registry is the component store. It issues a Kind per registered type and
// owns that kind's ComponentArray.
type Registry struct {
	maxKinds int
	stores   []store // indexed by Kind
	names    []string
	byType   map[any]Kind
	byName   map[string]Kind
	log      *zap.Logger
}

func NewRegistry(maxKinds int, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		maxKinds: maxKinds,
		stores:   make([]store, 0, 16),
		byType:   make(map[any]Kind, 16),
		byName:   make(map[string]Kind, 16),
		log:      log,
	}
}

// RegisterKind allocates T's array and issues the next Kind. An empty
// name defaults to T's Go type name. Registering a type or name twice fails.
func RegisterKind[T any](r *Registry, name string) (Kind, error) {
	if name == "" {
		name = fmt.Sprintf("%T", *new(T))
	}
	key := typeKey[T]()
	if _, ok := r.byType[key]; ok {
		return 0, fmt.Errorf("component %s: %w", name, ErrDuplicateRegistration)
	}
	if _, ok := r.byName[name]; ok {
		return 0, fmt.Errorf("component name %q: %w", name, ErrDuplicateRegistration)
	}
	if len(r.stores) >= r.maxKinds {
		return 0, fmt.Errorf("component %s (limit %d): %w", name, r.maxKinds, ErrKindLimit)
	}
	kind := Kind(len(r.stores))
	r.stores = append(r.stores, NewComponentArray[T](kind))
	r.names = append(r.names, name)
	r.byType[key] = kind
	r.byName[name] = kind
	r.log.Debug("component registered", zap.String("component", name), zap.Uint8("kind", uint8(kind)))
	return kind, nil
}

// KindOf returns the bit index issued to T.
func KindOf[T any](r *Registry) (Kind, error) {
	kind, ok := r.byType[typeKey[T]()]
	if !ok {
		return 0, fmt.Errorf("component %T: %w", *new(T), ErrUnregisteredKind)
	}
	return kind, nil
}

// ArrayOf returns T's dense array.
func ArrayOf[T any](r *Registry) (*ComponentArray[T], error) {
	kind, err := KindOf[T](r)
	if err != nil {
		return nil, err
	}
	return r.stores[kind].(*ComponentArray[T]), nil
}

func Get[T any](r *Registry, e Entity) (*T, error) {
	a, err := ArrayOf[T](r)
	if err != nil {
		return nil, err
	}
	return a.Get(e)
}

func Add[T any](r *Registry, e Entity, v T) error {
	a, err := ArrayOf[T](r)
	if err != nil {
		return err
	}
	return a.Add(e, v)
}

func Remove[T any](r *Registry, e Entity) error {
	a, err := ArrayOf[T](r)
	if err != nil {
		return err
	}
	return a.Remove(e)
}

func (r *Registry) KindByName(name string) (Kind, error) {
	kind, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("component %q: %w", name, ErrUnregisteredKind)
	}
	return kind, nil
}

// Name returns the name kind was registered under, or "" if unknown.
func (r *Registry) Name(kind Kind) string {
	if int(kind) >= len(r.names) {
		return ""
	}
	return r.names[kind]
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int { return len(r.stores) }

// Has reports whether e carries kind. Unregistered kinds report false.
func (r *Registry) Has(kind Kind, e Entity) bool {
	if int(kind) >= len(r.stores) {
		return false
	}
	return r.stores[kind].Has(e)
}

// EntityDeleted clears e from every component array.
func (r *Registry) EntityDeleted(e Entity) {
	for _, s := range r.stores {
		s.EntityDeleted(e)
	}
}
