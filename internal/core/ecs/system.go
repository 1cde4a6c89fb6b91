package ecs

import (
	"fmt"
	"time"

	"github.com/planes/engine/internal/core/event"
	coresys "github.com/planes/engine/internal/core/system"
	"go.uber.org/zap"
)

// System is a behavior unit. Require is called once at registration to
// declare the component kinds an entity needs to become a member; Update runs
// once per frame over the current members.
//
// Update must not change membership directly: structural changes fail with
// ErrUpdateInProgress and belong on ctx.Commands().
type System interface {
	Require(req *Requirements) error
	Update(ctx *Context, dt time.Duration) error
}

// Phased systems choose their slot in the frame. Others run in PhaseUpdate.
type Phased interface {
	Phase() coresys.Phase
}

// SystemID is issued at registration, like Kind for components.
type SystemID uint16

// Requirements accumulates a system's required signature.
type Requirements struct {
	components *Registry
	sig        Signature
}

// Require adds T to the requirement. Requiring a kind twice fails.
func Require[T any](req *Requirements) error {
	kind, err := KindOf[T](req.components)
	if err != nil {
		return err
	}
	return req.RequireKind(kind)
}

// RequireName adds the kind registered under name.
func (req *Requirements) RequireName(name string) error {
	kind, err := req.components.KindByName(name)
	if err != nil {
		return err
	}
	return req.RequireKind(kind)
}

func (req *Requirements) RequireKind(kind Kind) error {
	if int(kind) >= req.components.Len() {
		return fmt.Errorf("kind %d: %w", kind, ErrUnregisteredKind)
	}
	if req.sig.Has(kind) {
		return fmt.Errorf("component %s: %w", req.components.Name(kind), ErrDuplicateRequirement)
	}
	req.sig = req.sig.With(kind)
	return nil
}

func (req *Requirements) Signature() Signature { return req.sig }

// Membership is a system's dense member list, with the same swap-remove
// discipline as ComponentArray.
type Membership struct {
	entities []Entity
	index    map[Entity]int
}

func newMembership() Membership {
	return Membership{
		entities: make([]Entity, 0, 64),
		index:    make(map[Entity]int, 64),
	}
}

func (m *Membership) Add(e Entity) error {
	if _, ok := m.index[e]; ok {
		return fmt.Errorf("entity %d: %w", e, ErrEntityAlreadyInSystem)
	}
	m.index[e] = len(m.entities)
	m.entities = append(m.entities, e)
	return nil
}

func (m *Membership) Remove(e Entity) error {
	i, ok := m.index[e]
	if !ok {
		return fmt.Errorf("entity %d: %w", e, ErrEntityNotInSystem)
	}
	last := len(m.entities) - 1
	if i != last {
		moved := m.entities[last]
		m.entities[i] = moved
		m.index[moved] = i
	}
	m.entities = m.entities[:last]
	delete(m.index, e)
	return nil
}

func (m *Membership) Has(e Entity) bool {
	_, ok := m.index[e]
	return ok
}

func (m *Membership) Len() int { return len(m.entities) }

// Entities aliases internal storage; callers must not modify it.
func (m *Membership) Entities() []Entity { return m.entities }

type systemEntry struct {
	id       SystemID
	name     string
	sys      System
	phase    coresys.Phase
	required Signature
	members  Membership
}

// SystemRegistry owns every system instance and routes entities between them
// by signature.
type SystemRegistry struct {
	components *Registry
	entries    []*systemEntry // indexed by SystemID
	byType     map[any]SystemID
	byName     map[string]SystemID
	updating   *systemEntry
	events     *event.Bus
	log        *zap.Logger
}

func NewSystemRegistry(components *Registry, events *event.Bus, log *zap.Logger) *SystemRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &SystemRegistry{
		components: components,
		entries:    make([]*systemEntry, 0, 16),
		byType:     make(map[any]SystemID, 16),
		byName:     make(map[string]SystemID, 16),
		events:     events,
		log:        log,
	}
}

// register builds the instance and its requirement. typ may be nil for
// systems known only by name.
func (sr *SystemRegistry) register(typ any, name string, sys System) (*systemEntry, error) {
	if typ != nil {
		if _, ok := sr.byType[typ]; ok {
			return nil, fmt.Errorf("system %s: %w", name, ErrDuplicateRegistration)
		}
	}
	if _, ok := sr.byName[name]; ok {
		return nil, fmt.Errorf("system name %q: %w", name, ErrDuplicateRegistration)
	}
	req := &Requirements{components: sr.components}
	if err := sys.Require(req); err != nil {
		return nil, fmt.Errorf("system %s requirements: %w", name, err)
	}
	entry := &systemEntry{
		id:       SystemID(len(sr.entries)),
		name:     name,
		sys:      sys,
		phase:    coresys.PhaseUpdate,
		required: req.sig,
		members:  newMembership(),
	}
	if p, ok := sys.(Phased); ok {
		entry.phase = p.Phase()
	}
	sr.entries = append(sr.entries, entry)
	if typ != nil {
		sr.byType[typ] = entry.id
	}
	sr.byName[name] = entry.id
	sr.log.Debug("system registered",
		zap.String("system", name),
		zap.Stringer("requires", entry.required),
		zap.Stringer("phase", entry.phase))
	return entry, nil
}

func (sr *SystemRegistry) entry(id SystemID) (*systemEntry, error) {
	if int(id) >= len(sr.entries) {
		return nil, fmt.Errorf("system %d: %w", id, ErrUnregisteredSystem)
	}
	return sr.entries[id], nil
}

// Lookup resolves a registered system name.
func (sr *SystemRegistry) Lookup(name string) (SystemID, error) {
	id, ok := sr.byName[name]
	if !ok {
		return 0, fmt.Errorf("system %q: %w", name, ErrUnregisteredSystem)
	}
	return id, nil
}

func (sr *SystemRegistry) Len() int { return len(sr.entries) }

// Name returns the name id was registered under, or "" if unknown.
func (sr *SystemRegistry) Name(id SystemID) string {
	if int(id) >= len(sr.entries) {
		return ""
	}
	return sr.entries[id].name
}

// Updating reports whether a system is inside its Update.
func (sr *SystemRegistry) Updating() bool { return sr.updating != nil }

func (sr *SystemRegistry) join(s *systemEntry, e Entity) error {
	if err := s.members.Add(e); err != nil {
		return fmt.Errorf("system %s: %w", s.name, err)
	}
	if sr.events != nil {
		event.Emit(sr.events, SystemJoined{Entity: e, System: s.id})
	}
	return nil
}

func (sr *SystemRegistry) leave(s *systemEntry, e Entity) error {
	if err := s.members.Remove(e); err != nil {
		return fmt.Errorf("system %s: %w", s.name, err)
	}
	if sr.events != nil {
		event.Emit(sr.events, SystemLeft{Entity: e, System: s.id})
	}
	return nil
}

// AddEntity offers e to every system; it joins those whose requirement sig
// satisfies and where it is not already a member.
func (sr *SystemRegistry) AddEntity(e Entity, sig Signature) {
	for _, s := range sr.entries {
		if sig.Contains(s.required) && !s.members.Has(e) {
			_ = sr.join(s, e)
		}
	}
}

// RemoveEntity drops e from every system holding it; others are untouched.
func (sr *SystemRegistry) RemoveEntity(e Entity) {
	for _, s := range sr.entries {
		if s.members.Has(e) {
			_ = sr.leave(s, e)
		}
	}
}

// SignatureChanged re-evaluates e against every system: members that no
// longer satisfy leave, non-members that now satisfy join.
func (sr *SystemRegistry) SignatureChanged(e Entity, sig Signature) {
	for _, s := range sr.entries {
		member := s.members.Has(e)
		ok := sig.Contains(s.required)
		switch {
		case member && !ok:
			_ = sr.leave(s, e)
		case !member && ok:
			_ = sr.join(s, e)
		}
	}
}
