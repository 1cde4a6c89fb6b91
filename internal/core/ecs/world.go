package ecs

import (
	"errors"
	"fmt"
	"time"

	"github.com/planes/engine/internal/assert"
	"github.com/planes/engine/internal/core/event"
	coresys "github.com/planes/engine/internal/core/system"
	"go.uber.org/zap"
)

// Options are fixed for the life of a World.
type Options struct {
	// MaxEntities is the entity pool capacity.
	MaxEntities int
	// MaxComponentKinds caps registered component kinds; at most
	// MaxComponentKinds (64), the width of Signature.
	MaxComponentKinds int
	// Events, if set, receives lifecycle events.
	Events *event.Bus
	Logger *zap.Logger
}

// World is the ECS facade. It owns the entity pool, the component registry
// and the system registry, and sequences every change that spans them.
// A World is confined to one goroutine.
type World struct {
	pool       *EntityPool
	components *Registry
	systems    *SystemRegistry
	runner     *coresys.Runner
	commands   *CommandBuffer
	events     *event.Bus
	log        *zap.Logger
}

func NewWorld(opts Options) (*World, error) {
	if opts.MaxEntities <= 0 {
		return nil, fmt.Errorf("ecs: max entities must be positive, got %d", opts.MaxEntities)
	}
	if opts.MaxComponentKinds <= 0 || opts.MaxComponentKinds > MaxComponentKinds {
		return nil, fmt.Errorf("ecs: max component kinds must be in [1, %d], got %d",
			MaxComponentKinds, opts.MaxComponentKinds)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	components := NewRegistry(opts.MaxComponentKinds, log)
	return &World{
		pool:       NewEntityPool(opts.MaxEntities),
		components: components,
		systems:    NewSystemRegistry(components, opts.Events, log),
		runner:     coresys.NewRunner(),
		commands:   NewCommandBuffer(),
		events:     opts.Events,
		log:        log,
	}, nil
}

func (w *World) Pool() *EntityPool                     { return w.pool }
func (w *World) Components() *Registry                 { return w.components }
func (w *World) Systems() *SystemRegistry              { return w.systems }
func (w *World) Commands() *CommandBuffer              { return w.commands }
func (w *World) Logger() *zap.Logger                   { return w.log }
func (w *World) Alive(e Entity) bool                   { return w.pool.Alive(e) }
func (w *World) Len() int                              { return w.pool.Len() }
func (w *World) Signature(e Entity) (Signature, error) { return w.pool.Signature(e) }

func (w *World) guard(op string) error {
	if s := w.systems.updating; s != nil {
		return fmt.Errorf("%s inside system %s: %w", op, s.name, ErrUpdateInProgress)
	}
	return nil
}

// CreateEntity issues a fresh entity with an empty signature. Systems with
// no requirement admit it immediately.
func (w *World) CreateEntity() (Entity, error) {
	if err := w.guard("create entity"); err != nil {
		return 0, err
	}
	e, err := w.pool.Create()
	if err != nil {
		return 0, err
	}
	if w.events != nil {
		event.Emit(w.events, EntityCreated{Entity: e})
	}
	w.systems.AddEntity(e, 0)
	return e, nil
}

// DeleteEntity releases e and purges it from every component array and
// system.
func (w *World) DeleteEntity(e Entity) error {
	if err := w.guard("delete entity"); err != nil {
		return err
	}
	if err := w.pool.Destroy(e); err != nil {
		return err
	}
	w.components.EntityDeleted(e)
	w.systems.RemoveEntity(e)
	if w.events != nil {
		event.Emit(w.events, EntityDeleted{Entity: e})
	}
	return nil
}

// RegisterComponent issues T's kind. See RegisterKind.
func RegisterComponent[T any](w *World, name string) (Kind, error) {
	return RegisterKind[T](w.components, name)
}

func ComponentKind[T any](w *World) (Kind, error) {
	return KindOf[T](w.components)
}

// AddComponent attaches v to e, then updates e's signature, then lets the
// systems re-evaluate e against the finished state.
func AddComponent[T any](w *World, e Entity, v T) error {
	return w.mutate("add component", e, func() (Kind, bool, error) {
		kind, err := KindOf[T](w.components)
		if err != nil {
			return 0, false, err
		}
		if err := Add(w.components, e, v); err != nil {
			return 0, false, err
		}
		return kind, true, nil
	})
}

// RemoveComponent detaches T from e; see AddComponent for ordering.
func RemoveComponent[T any](w *World, e Entity) error {
	return w.mutate("remove component", e, func() (Kind, bool, error) {
		kind, err := KindOf[T](w.components)
		if err != nil {
			return 0, false, err
		}
		if err := Remove[T](w.components, e); err != nil {
			return 0, false, err
		}
		return kind, false, nil
	})
}

func (w *World) mutate(op string, e Entity, change func() (Kind, bool, error)) error {
	if err := w.guard(op); err != nil {
		return err
	}
	sig, err := w.pool.Signature(e)
	if err != nil {
		return err
	}
	kind, attached, err := change()
	if err != nil {
		return err
	}
	if attached {
		sig = sig.With(kind)
	} else {
		sig = sig.Without(kind)
	}
	if err := w.pool.SetSignature(e, sig); err != nil {
		return err
	}
	w.systems.SignatureChanged(e, sig)
	if w.events != nil {
		if attached {
			event.Emit(w.events, ComponentAdded{Entity: e, Kind: kind})
		} else {
			event.Emit(w.events, ComponentRemoved{Entity: e, Kind: kind})
		}
	}
	return nil
}

// GetComponent returns e's T. The pointer is valid until the next add or
// remove of kind T on any entity.
func GetComponent[T any](w *World, e Entity) (*T, error) {
	if _, err := w.pool.Signature(e); err != nil {
		return nil, err
	}
	return Get[T](w.components, e)
}

// HasComponent reports whether live entity e carries T.
func HasComponent[T any](w *World, e Entity) bool {
	kind, err := KindOf[T](w.components)
	if err != nil || !w.pool.Alive(e) {
		return false
	}
	return w.components.Has(kind, e)
}

// RegisterSystem registers sys under its Go type. Any live entity that
// already satisfies the requirement joins at once.
func RegisterSystem[S System](w *World, sys S) (SystemID, error) {
	return w.register(typeKey[S](), fmt.Sprintf("%T", sys), sys)
}

// RegisterNamedSystem registers sys under name only, so several systems of
// one Go type can coexist. Address it with LookupSystem.
func (w *World) RegisterNamedSystem(name string, sys System) (SystemID, error) {
	if name == "" {
		return 0, errors.New("ecs: system name must not be empty")
	}
	return w.register(nil, name, sys)
}

func (w *World) register(typ any, name string, sys System) (SystemID, error) {
	if err := w.guard("register system"); err != nil {
		return 0, err
	}
	entry, err := w.systems.register(typ, name, sys)
	if err != nil {
		return 0, err
	}
	w.pool.Each(func(e Entity, sig Signature) {
		if sig.Contains(entry.required) {
			_ = w.systems.join(entry, e)
		}
	})
	w.runner.Register(runnable{w: w, entry: entry})
	return entry.id, nil
}

// SystemOf returns the ID of the system registered with type S.
func SystemOf[S System](w *World) (SystemID, error) {
	id, ok := w.systems.byType[typeKey[S]()]
	if !ok {
		return 0, fmt.Errorf("system %T: %w", *new(S), ErrUnregisteredSystem)
	}
	return id, nil
}

// GetSystem returns the instance registered with type S.
func GetSystem[S System](w *World) (S, error) {
	id, err := SystemOf[S](w)
	if err != nil {
		var zero S
		return zero, err
	}
	return w.systems.entries[id].sys.(S), nil
}

func (w *World) LookupSystem(name string) (SystemID, error) {
	return w.systems.Lookup(name)
}

func (w *World) SystemSignature(id SystemID) (Signature, error) {
	s, err := w.systems.entry(id)
	if err != nil {
		return 0, err
	}
	return s.required, nil
}

// SystemEntities returns the current members of id in iteration order.
func (w *World) SystemEntities(id SystemID) ([]Entity, error) {
	s, err := w.systems.entry(id)
	if err != nil {
		return nil, err
	}
	return s.members.Entities(), nil
}

func (w *World) InSystem(id SystemID, e Entity) (bool, error) {
	s, err := w.systems.entry(id)
	if err != nil {
		return false, err
	}
	return s.members.Has(e), nil
}

// AddEntityToSystem explicitly adds e to id. The entity's signature must
// satisfy the system requirement.
func (w *World) AddEntityToSystem(id SystemID, e Entity) error {
	s, err := w.compatible("add entity to system", id, e)
	if err != nil {
		return err
	}
	return w.systems.join(s, e)
}

// RemoveEntityFromSystem explicitly removes e from id. The entity stays out
// until its signature next changes in a way that satisfies the system.
func (w *World) RemoveEntityFromSystem(id SystemID, e Entity) error {
	s, err := w.compatible("remove entity from system", id, e)
	if err != nil {
		return err
	}
	return w.systems.leave(s, e)
}

func (w *World) compatible(op string, id SystemID, e Entity) (*systemEntry, error) {
	if err := w.guard(op); err != nil {
		return nil, err
	}
	sig, err := w.pool.Signature(e)
	if err != nil {
		return nil, err
	}
	s, err := w.systems.entry(id)
	if err != nil {
		return nil, err
	}
	if !sig.Contains(s.required) {
		return nil, fmt.Errorf("entity %d %v, system %s %v: %w",
			e, sig, s.name, s.required, ErrIncompatibleSignature)
	}
	return s, nil
}

// UpdateSystem runs one system's Update, then applies the commands it queued.
func (w *World) UpdateSystem(id SystemID, dt time.Duration) error {
	if err := w.guard("update system"); err != nil {
		return err
	}
	s, err := w.systems.entry(id)
	if err != nil {
		return err
	}
	return errors.Join(w.run(s, dt), w.Flush())
}

// Tick advances one frame: deliver last frame's events, run every system in
// phase order, then apply queued commands. A system error aborts the
// remaining systems; queued commands are still applied.
func (w *World) Tick(dt time.Duration) error {
	if err := w.guard("tick"); err != nil {
		return err
	}
	if w.events != nil {
		w.events.SwapBuffers()
		w.events.DispatchAll()
	}
	return errors.Join(w.runner.Tick(dt), w.Flush())
}

// Flush applies every queued command now.
func (w *World) Flush() error {
	if err := w.guard("flush commands"); err != nil {
		return err
	}
	return w.commands.apply(w)
}

func (w *World) run(s *systemEntry, dt time.Duration) error {
	w.systems.updating = s
	defer func() { w.systems.updating = nil }()
	if err := s.sys.Update(&Context{world: w, entry: s}, dt); err != nil {
		w.log.Error("system update failed", zap.String("system", s.name), zap.Error(err))
		return fmt.Errorf("system %s: %w", s.name, err)
	}
	return nil
}

// runnable adapts a registered system to the phase runner.
type runnable struct {
	w     *World
	entry *systemEntry
}

func (r runnable) Phase() coresys.Phase          { return r.entry.phase }
func (r runnable) Update(dt time.Duration) error { return r.w.run(r.entry, dt) }

// Context is handed to System.Update.
type Context struct {
	world *World
	entry *systemEntry
}

func (c *Context) World() *World            { return c.world }
func (c *Context) ID() SystemID             { return c.entry.id }
func (c *Context) Name() string             { return c.entry.name }
func (c *Context) Commands() *CommandBuffer { return c.world.commands }
func (c *Context) Logger() *zap.Logger      { return c.world.log.With(zap.String("system", c.entry.name)) }

// Entities returns the system's members. The order is unspecified and the
// slice must not be modified.
func (c *Context) Entities() []Entity { return c.entry.members.Entities() }

// Fetch returns member e's T. A member lacking a kind its system requires
// means routing and storage disagree; that is reported as ErrMemberDesync.
func Fetch[T any](c *Context, e Entity) (*T, error) {
	v, err := Get[T](c.world.components, e)
	if err == nil || !errors.Is(err, ErrNoComponent) {
		return v, err
	}
	kind, _ := KindOf[T](c.world.components)
	if !c.entry.required.Has(kind) || !c.entry.members.Has(e) {
		return nil, err
	}
	assert.True(false, "system member carries every required component")
	return nil, fmt.Errorf("system %s, entity %d, component %s: %w",
		c.entry.name, e, c.world.components.Name(kind), ErrMemberDesync)
}
