package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocatorSequences(t *testing.T) {
	a := NewAllocator()

	assert.Equal(t, uint32(0), a.Next(KindLibrary))
	assert.Equal(t, uint32(1), a.Next(KindLibrary))

	// Kinds count independently.
	assert.Equal(t, uint32(0), a.Next(KindDocument))
	assert.Equal(t, uint32(0), a.Next(KindChunk))
	assert.Equal(t, uint32(2), a.Next(KindLibrary))
}

func TestAllocatorAdvance(t *testing.T) {
	a := NewAllocator()

	a.Advance(KindChunk, 7)
	assert.Equal(t, uint32(8), a.Next(KindChunk))

	// Advancing below the current counter is a no-op.
	a.Advance(KindChunk, 3)
	assert.Equal(t, uint32(9), a.Next(KindChunk))
}

func TestAllocatorPeek(t *testing.T) {
	a := NewAllocator()

	assert.Equal(t, uint32(0), a.Peek(KindDocument))
	a.Next(KindDocument)
	assert.Equal(t, uint32(1), a.Peek(KindDocument))
}
