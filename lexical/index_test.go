package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jandrana/vectordb/model"
)

func TestIndexScoring(t *testing.T) {
	idx := NewMemoryIndex(nil)
	idx.Add(1, "apple banana")
	idx.Add(2, "banana cherry")

	scores := idx.Search("apple banana")
	assert.Equal(t, map[model.ChunkID]int{1: 2, 2: 1}, scores)
}

func TestIndexEmptyQuery(t *testing.T) {
	idx := NewMemoryIndex(nil)
	idx.Add(1, "apple banana")

	assert.Empty(t, idx.Search(""))
	assert.Empty(t, idx.Search("  ?! "))
}

func TestIndexRemove(t *testing.T) {
	idx := NewMemoryIndex(nil)
	idx.Add(1, "apple banana")
	idx.Add(2, "banana")

	idx.Remove(1)

	assert.Empty(t, idx.Search("apple"))
	assert.Equal(t, map[model.ChunkID]int{2: 1}, idx.Search("banana"))

	// Removing an unknown id is a no-op.
	idx.Remove(99)
	assert.Equal(t, map[model.ChunkID]int{2: 1}, idx.Search("banana"))
}

func TestIndexEvictsDrainedTerms(t *testing.T) {
	idx := NewMemoryIndex(nil)
	idx.Add(1, "apple banana")
	assert.Equal(t, 2, idx.Terms())

	idx.Remove(1)
	assert.Equal(t, 0, idx.Terms())
}

func TestIndexReAddReplacesPostings(t *testing.T) {
	idx := NewMemoryIndex(nil)
	idx.Add(1, "apple banana")

	// Re-adding with new text must drop the old postings entirely; the
	// caller doesn't supply the previous text.
	idx.Add(1, "cherry")

	assert.Empty(t, idx.Search("apple"))
	assert.Empty(t, idx.Search("banana"))
	assert.Equal(t, map[model.ChunkID]int{1: 1}, idx.Search("cherry"))
}

func TestIndexConsistencyAfterMutations(t *testing.T) {
	idx := NewMemoryIndex(nil)

	idx.Add(1, "red green")
	idx.Add(2, "green blue")
	idx.Add(3, "blue red")
	idx.Add(2, "yellow")
	idx.Remove(3)

	assert.Equal(t, map[model.ChunkID]int{1: 1}, idx.Search("red"))
	assert.Equal(t, map[model.ChunkID]int{1: 1}, idx.Search("green"))
	assert.Empty(t, idx.Search("blue"))
	assert.Equal(t, map[model.ChunkID]int{2: 1}, idx.Search("yellow"))
}
