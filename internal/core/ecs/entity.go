package ecs

import "fmt"

// Entity is a handle drawn from a fixed pool. It carries no data; its
// signature and components are looked up through the World.
type Entity uint32

// EntityPool issues entities from [0, capacity) and recycles them in FIFO
// order, so a freed handle is reissued as late as possible. That spreads
// reuse and makes use-after-delete bugs surface quickly.
type EntityPool struct {
	signatures []Signature
	live       []bool
	free       []Entity // ring buffer of free handles
	head       int
	nfree      int
}

func NewEntityPool(capacity int) *EntityPool {
	p := &EntityPool{
		signatures: make([]Signature, capacity),
		live:       make([]bool, capacity),
		free:       make([]Entity, capacity),
		nfree:      capacity,
	}
	for i := range p.free {
		p.free[i] = Entity(i)
	}
	return p
}

func (p *EntityPool) Capacity() int { return len(p.live) }

// Len returns the number of live entities.
func (p *EntityPool) Len() int { return len(p.live) - p.nfree }

func (p *EntityPool) Create() (Entity, error) {
	if p.nfree == 0 {
		return 0, fmt.Errorf("create entity (capacity %d): %w", len(p.live), ErrCapacityExhausted)
	}
	e := p.free[p.head]
	p.head = (p.head + 1) % len(p.free)
	p.nfree--
	p.live[e] = true
	p.signatures[e] = 0
	return e, nil
}

func (p *EntityPool) Destroy(e Entity) error {
	if err := p.check(e); err != nil {
		return err
	}
	p.live[e] = false
	p.signatures[e] = 0
	tail := (p.head + p.nfree) % len(p.free)
	p.free[tail] = e
	p.nfree++
	return nil
}

func (p *EntityPool) Alive(e Entity) bool {
	return int(e) < len(p.live) && p.live[e]
}

func (p *EntityPool) Signature(e Entity) (Signature, error) {
	if err := p.check(e); err != nil {
		return 0, err
	}
	return p.signatures[e], nil
}

// SetSignature replaces the entity's signature wholesale.
func (p *EntityPool) SetSignature(e Entity, sig Signature) error {
	if err := p.check(e); err != nil {
		return err
	}
	p.signatures[e] = sig
	return nil
}

// Each calls fn for every live entity in ascending handle order.
func (p *EntityPool) Each(fn func(Entity, Signature)) {
	for i, ok := range p.live {
		if ok {
			fn(Entity(i), p.signatures[i])
		}
	}
}

func (p *EntityPool) check(e Entity) error {
	if int(e) >= len(p.live) {
		return fmt.Errorf("entity %d (capacity %d): %w", e, len(p.live), ErrOutOfRange)
	}
	if !p.live[e] {
		return fmt.Errorf("entity %d: %w", e, ErrUnknownEntity)
	}
	return nil
}
