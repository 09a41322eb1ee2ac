package repo

import (
	"sort"
	"sync"

	"github.com/jandrana/vectordb/codec"
	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/lexical"
	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/persistence"
)

type createChunkPayload struct {
	ID         model.ChunkID    `json:"id"`
	Text       string           `json:"text"`
	DocumentID model.DocumentID `json:"document_id"`
	LibraryID  model.LibraryID  `json:"library_id"`
	Embedding  []float32        `json:"embedding"`
}

type updateChunkPayload struct {
	ID         model.ChunkID     `json:"id"`
	Text       *string           `json:"text"`
	DocumentID *model.DocumentID `json:"document_id"`
	Embedding  []float32         `json:"embedding"`
}

type deleteChunkPayload struct {
	ID model.ChunkID `json:"id"`
}

// documentResolver is the slice of DocumentRepo the chunk repository needs
// to derive a chunk's library from its parent document.
type documentResolver interface {
	Get(id model.DocumentID) (*model.Document, error)
}

// ChunkRepo owns the id -> chunk map and keeps the inverted index postings
// in sync with every text-changing mutation.
type ChunkRepo struct {
	mu        sync.Mutex
	chunks    map[model.ChunkID]*model.Chunk
	alloc     *core.Allocator
	pm        *persistence.Manager
	documents documentResolver
	index     lexical.Index
	codec     codec.Codec
}

// NewChunkRepo creates an empty chunk repository.
func NewChunkRepo(alloc *core.Allocator, pm *persistence.Manager, documents documentResolver, index lexical.Index, c codec.Codec) *ChunkRepo {
	if c == nil {
		c = codec.Default
	}
	return &ChunkRepo{
		chunks:    make(map[model.ChunkID]*model.Chunk),
		alloc:     alloc,
		pm:        pm,
		documents: documents,
		index:     index,
		codec:     c,
	}
}

// cloneChunk copies the stored entity so readers never share memory with
// in-place updates. The embedding backing array is shared: updates replace
// the whole slice, never mutate elements, so the copy stays coherent.
func cloneChunk(c *model.Chunk) *model.Chunk {
	cp := *c
	return &cp
}

// Get returns a copy of the chunk or an EntityNotFoundError.
func (r *ChunkRepo) Get(id model.ChunkID) (*model.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chunk, ok := r.chunks[id]
	if !ok {
		return nil, core.NewEntityNotFound(core.KindChunk, uint32(id))
	}
	return cloneChunk(chunk), nil
}

// GetAll returns copies of all chunks ordered by ascending id.
func (r *ChunkRepo) GetAll() []*model.Chunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collect(func(*model.Chunk) bool { return true })
}

// GetByDocument returns copies of the chunks of one document ordered by
// ascending id.
func (r *ChunkRepo) GetByDocument(documentID model.DocumentID) []*model.Chunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collect(func(c *model.Chunk) bool { return c.DocumentID == documentID })
}

// GetByLibrary returns copies of the chunks of one library ordered by
// ascending id.
func (r *ChunkRepo) GetByLibrary(libraryID model.LibraryID) []*model.Chunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collect(func(c *model.Chunk) bool { return c.LibraryID == libraryID })
}

// collect filters, copies and sorts chunks. Caller must hold r.mu.
func (r *ChunkRepo) collect(keep func(*model.Chunk) bool) []*model.Chunk {
	var out []*model.Chunk
	for _, c := range r.chunks {
		if keep(c) {
			out = append(out, cloneChunk(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Create validates the parent document, derives the chunk's library from
// it, allocates an id, logs and installs the chunk, and indexes its text.
func (r *ChunkRepo) Create(text string, documentID model.DocumentID, embedding []float32) (*model.Chunk, error) {
	doc, err := r.documents.Get(documentID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := model.ChunkID(r.alloc.Next(core.KindChunk))
	p := createChunkPayload{
		ID:         id,
		Text:       text,
		DocumentID: documentID,
		LibraryID:  doc.LibraryID,
		Embedding:  embedding,
	}
	return r.create(p, true)
}

// create installs a chunk exactly as described by the payload; the payload's
// library_id is authoritative (derived at runtime, read back on replay).
// Caller must hold r.mu.
func (r *ChunkRepo) create(p createChunkPayload, logIt bool) (*model.Chunk, error) {
	if logIt {
		if err := r.pm.Log(persistence.ActionCreateChunk, p); err != nil {
			return nil, err
		}
	} else {
		r.alloc.Advance(core.KindChunk, uint32(p.ID))
	}

	chunk := &model.Chunk{
		ID:         p.ID,
		Text:       p.Text,
		DocumentID: p.DocumentID,
		LibraryID:  p.LibraryID,
		Embedding:  p.Embedding,
	}
	r.chunks[p.ID] = chunk
	r.index.Add(p.ID, p.Text)
	return cloneChunk(chunk), nil
}

// Update applies the supplied fields. Moving a chunk to another document
// re-derives its library from the new parent, so library-scoped search
// follows the move.
func (r *ChunkRepo) Update(id model.ChunkID, text *string, documentID *model.DocumentID, embedding []float32) (*model.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.update(updateChunkPayload{ID: id, Text: text, DocumentID: documentID, Embedding: embedding}, true)
}

func (r *ChunkRepo) update(p updateChunkPayload, logIt bool) (*model.Chunk, error) {
	chunk, ok := r.chunks[p.ID]
	if !ok {
		return nil, core.NewEntityNotFound(core.KindChunk, uint32(p.ID))
	}

	// Validate the new parent before logging; a failed update must leave no
	// trace in the log or the map.
	var newLibrary model.LibraryID
	if p.DocumentID != nil {
		doc, err := r.documents.Get(*p.DocumentID)
		if err != nil {
			return nil, err
		}
		newLibrary = doc.LibraryID
	}

	if logIt {
		if err := r.pm.Log(persistence.ActionUpdateChunk, p); err != nil {
			return nil, err
		}
	}

	if p.Text != nil {
		chunk.Text = *p.Text
		r.index.Add(chunk.ID, chunk.Text)
	}
	if p.DocumentID != nil {
		chunk.DocumentID = *p.DocumentID
		chunk.LibraryID = newLibrary
	}
	if p.Embedding != nil {
		chunk.Embedding = p.Embedding
	}
	return cloneChunk(chunk), nil
}

// Delete removes the chunk and its index postings.
func (r *ChunkRepo) Delete(id model.ChunkID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delete(deleteChunkPayload{ID: id}, true)
}

func (r *ChunkRepo) delete(p deleteChunkPayload, logIt bool) error {
	if _, ok := r.chunks[p.ID]; !ok {
		return core.NewEntityNotFound(core.KindChunk, uint32(p.ID))
	}

	if logIt {
		if err := r.pm.Log(persistence.ActionDeleteChunk, p); err != nil {
			return err
		}
	}

	delete(r.chunks, p.ID)
	r.index.Remove(p.ID)
	return nil
}

// ReplayHandlers implements persistence.Replayable.
func (r *ChunkRepo) ReplayHandlers() map[string]persistence.ActionHandler {
	return map[string]persistence.ActionHandler{
		persistence.ActionCreateChunk: func(data []byte) error {
			var p createChunkPayload
			if err := r.codec.Unmarshal(data, &p); err != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			_, err := r.create(p, false)
			return err
		},
		persistence.ActionUpdateChunk: func(data []byte) error {
			var p updateChunkPayload
			if err := r.codec.Unmarshal(data, &p); err != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			_, err := r.update(p, false)
			return ignoreNotFound(err)
		},
		persistence.ActionDeleteChunk: func(data []byte) error {
			var p deleteChunkPayload
			if err := r.codec.Unmarshal(data, &p); err != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			return ignoreNotFound(r.delete(p, false))
		},
	}
}
