package service

import (
	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/repo"
)

// ChunkService implements chunk operations. It is a thin layer today; the
// repository already validates parents and keeps the index in sync.
type ChunkService struct {
	chunks *repo.ChunkRepo
}

// NewChunkService creates a ChunkService.
func NewChunkService(chunks *repo.ChunkRepo) *ChunkService {
	return &ChunkService{chunks: chunks}
}

// Create creates a chunk under an existing document. The embedding is
// optional; unembedded chunks are picked up by the next library indexing run.
func (s *ChunkService) Create(text string, documentID model.DocumentID, embedding []float32) (*model.Chunk, error) {
	return s.chunks.Create(text, documentID, embedding)
}

// Get returns one chunk.
func (s *ChunkService) Get(id model.ChunkID) (*model.Chunk, error) {
	return s.chunks.Get(id)
}

// GetAll returns all chunks ordered by id.
func (s *ChunkService) GetAll() []*model.Chunk {
	return s.chunks.GetAll()
}

// GetByDocument returns the chunks of a document ordered by id.
func (s *ChunkService) GetByDocument(documentID model.DocumentID) []*model.Chunk {
	return s.chunks.GetByDocument(documentID)
}

// Update applies the supplied fields to a chunk.
func (s *ChunkService) Update(id model.ChunkID, text *string, documentID *model.DocumentID, embedding []float32) (*model.Chunk, error) {
	return s.chunks.Update(id, text, documentID, embedding)
}

// Delete removes a chunk.
func (s *ChunkService) Delete(id model.ChunkID) error {
	return s.chunks.Delete(id)
}
