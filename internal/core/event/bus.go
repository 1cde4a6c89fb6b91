// Package event provides the double-buffered bus used for ECS lifecycle
// notifications. Events emitted during frame N are delivered at the start of
// frame N+1, so handlers never observe a half-applied mutation.
package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Emit appends to the back buffer;
// SwapBuffers promotes it and DispatchAll delivers it. Events of every type
// share one queue, so delivery follows emission order across types.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []queued
	back     []queued
	handlers map[reflect.Type][]func(any)
}

type queued struct {
	typ   reflect.Type
	event any
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]func(any)),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event into the back buffer (delivered next frame).
func Emit[T any](b *Bus, event T) {
	b.back = append(b.back, queued{typ: typeOf[T](), event: event})
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeOf[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Pending returns how many events of type T wait in the back buffer.
func Pending[T any](b *Bus) int {
	t := typeOf[T]()
	n := 0
	for _, q := range b.back {
		if q.typ == t {
			n++
		}
	}
	return n
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at frame start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers all front-buffer events to their subscribed handlers
// in emission order.
func (b *Bus) DispatchAll() {
	for _, q := range b.front {
		for _, h := range b.handlers[q.typ] {
			h(q.event)
		}
	}
}
