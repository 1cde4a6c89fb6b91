package ecs

import (
	"errors"
	"fmt"
)

// Command is a structural change deferred until the world is not iterating.
type Command interface {
	Apply(w *World) error
}

// CommandFunc adapts a function to Command.
type CommandFunc func(w *World) error

func (f CommandFunc) Apply(w *World) error { return f(w) }

// CommandBuffer accumulates commands queued by systems during an update.
type CommandBuffer struct {
	commands []Command
}

func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{}
}

func (b *CommandBuffer) Len() int { return len(b.commands) }

func (b *CommandBuffer) Push(cmd Command) {
	if cmd == nil {
		return
	}
	b.commands = append(b.commands, cmd)
}

// Drain returns the queued commands and resets the buffer.
func (b *CommandBuffer) Drain() []Command {
	drained := b.commands
	b.commands = nil
	return drained
}

// DeleteEntity queues the deletion of e. Several systems may retire the same
// entity in one frame, so an entity already deleted when the command applies
// is skipped.
func (b *CommandBuffer) DeleteEntity(e Entity) {
	b.Push(CommandFunc(func(w *World) error {
		if err := w.DeleteEntity(e); err != nil && !errors.Is(err, ErrUnknownEntity) {
			return err
		}
		return nil
	}))
}

// Spawn queues an entity creation; init, if non-nil, runs on the new entity.
// If init fails the entity is deleted again, with whatever it had attached.
func (b *CommandBuffer) Spawn(init func(w *World, e Entity) error) {
	b.Push(CommandFunc(func(w *World) error {
		e, err := w.CreateEntity()
		if err != nil {
			return err
		}
		if init == nil {
			return nil
		}
		if err := init(w, e); err != nil {
			if derr := w.DeleteEntity(e); derr != nil {
				err = errors.Join(err, derr)
			}
			return fmt.Errorf("spawn entity %d: %w", e, err)
		}
		return nil
	}))
}

// QueueAdd queues AddComponent[T].
func QueueAdd[T any](b *CommandBuffer, e Entity, v T) {
	b.Push(CommandFunc(func(w *World) error { return AddComponent(w, e, v) }))
}

// QueueRemove queues RemoveComponent[T].
func QueueRemove[T any](b *CommandBuffer, e Entity) {
	b.Push(CommandFunc(func(w *World) error { return RemoveComponent[T](w, e) }))
}

// apply runs every queued command in order. A failing command does not stop
// the rest; all failures are joined.
func (b *CommandBuffer) apply(w *World) error {
	var errs []error
	for len(b.commands) > 0 {
		for _, cmd := range b.Drain() {
			if err := cmd.Apply(w); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
