package lexical

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/jandrana/vectordb/model"
)

// Index is the keyword inverted index over chunk text.
type Index interface {
	// Add indexes text under the given chunk id, replacing any previous
	// postings for that chunk.
	Add(id model.ChunkID, text string)
	// Remove drops all postings for the chunk. Unknown ids are a no-op.
	Remove(id model.ChunkID)
	// Search returns, for every chunk matching at least one query term, the
	// number of distinct query terms it contains. An empty query matches
	// nothing.
	Search(query string) map[model.ChunkID]int
}

// MemoryIndex is the in-memory Index implementation. Posting sets are
// roaring bitmaps keyed by term; a term is evicted as soon as its posting
// set drains, bounding memory to the live vocabulary.
type MemoryIndex struct {
	mu        sync.RWMutex
	tokenizer Tokenizer
	postings  map[string]*roaring.Bitmap
	docs      map[model.ChunkID]string // last-indexed text per chunk
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty index using the given tokenizer.
// A nil tokenizer selects the default.
func NewMemoryIndex(tokenizer Tokenizer) *MemoryIndex {
	if tokenizer == nil {
		tokenizer = NewTokenizer()
	}
	return &MemoryIndex{
		tokenizer: tokenizer,
		postings:  make(map[string]*roaring.Bitmap),
		docs:      make(map[model.ChunkID]string),
	}
}

// Add implements Index.
func (idx *MemoryIndex) Add(id model.ChunkID, text string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.docs[id]; ok {
		idx.removeLocked(id)
	}

	for _, term := range idx.tokenizer.Tokenize(text) {
		bm, ok := idx.postings[term]
		if !ok {
			bm = roaring.New()
			idx.postings[term] = bm
		}
		bm.Add(uint32(id))
	}
	idx.docs[id] = text
}

// Remove implements Index.
func (idx *MemoryIndex) Remove(id model.ChunkID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
}

func (idx *MemoryIndex) removeLocked(id model.ChunkID) {
	text, ok := idx.docs[id]
	if !ok {
		return
	}

	for _, term := range idx.tokenizer.Tokenize(text) {
		bm, ok := idx.postings[term]
		if !ok {
			continue
		}
		bm.Remove(uint32(id))
		if bm.IsEmpty() {
			delete(idx.postings, term)
		}
	}
	delete(idx.docs, id)
}

// Search implements Index.
func (idx *MemoryIndex) Search(query string) map[model.ChunkID]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scores := make(map[model.ChunkID]int)
	for _, term := range idx.tokenizer.Tokenize(query) {
		bm, ok := idx.postings[term]
		if !ok {
			continue
		}
		it := bm.Iterator()
		for it.HasNext() {
			scores[model.ChunkID(it.Next())]++
		}
	}
	return scores
}

// Terms returns the number of live terms. Exposed for tests and stats.
func (idx *MemoryIndex) Terms() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.postings)
}
