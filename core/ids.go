// Package core holds identifier allocation shared by the repositories.
package core

import "sync"

// Kind enumerates the entity kinds that get independent id sequences.
type Kind int

const (
	// KindLibrary is the id sequence for libraries.
	KindLibrary Kind = iota
	// KindDocument is the id sequence for documents.
	KindDocument
	// KindChunk is the id sequence for chunks.
	KindChunk

	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindLibrary:
		return "library"
	case KindDocument:
		return "document"
	case KindChunk:
		return "chunk"
	default:
		return "unknown"
	}
}

// Allocator issues monotonically increasing ids per entity kind, starting
// at 0. It is not persisted; replay reconstructs the counters via Advance as
// create actions are re-applied.
type Allocator struct {
	mu   sync.Mutex
	next [numKinds]uint32
}

// NewAllocator creates an Allocator with all counters at 0.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the current counter for kind and increments it.
func (a *Allocator) Next(kind Kind) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.next[kind]
	a.next[kind]++
	return id
}

// Advance bumps the counter for kind to at least id+1. Used when an id loaded
// from disk must never collide with a future allocation.
func (a *Allocator) Advance(kind Kind, id uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id >= a.next[kind] {
		a.next[kind] = id + 1
	}
}

// Peek returns the next id that would be allocated for kind, without
// allocating it.
func (a *Allocator) Peek(kind Kind) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next[kind]
}
