package search

import (
	"context"
	"errors"

	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/lexical"
	"github.com/jandrana/vectordb/model"
)

// chunkGetter resolves chunk ids coming out of the inverted index.
type chunkGetter interface {
	Get(id model.ChunkID) (*model.Chunk, error)
}

// Keyword ranks chunks by the number of distinct query terms they contain.
type Keyword struct {
	index  lexical.Index
	chunks chunkGetter
}

var _ Strategy = (*Keyword)(nil)

// NewKeyword creates the keyword strategy over the given index.
func NewKeyword(index lexical.Index, chunks chunkGetter) *Keyword {
	return &Keyword{index: index, chunks: chunks}
}

// Name implements Strategy.
func (s *Keyword) Name() string { return "keyword" }

// Search implements Strategy. The index spans all libraries; hits are
// filtered down to the requested one after resolution.
func (s *Keyword) Search(_ context.Context, req Request) ([]model.ScoredChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var scored []model.ScoredChunk
	for id, terms := range s.index.Search(req.Query) {
		chunk, err := s.chunks.Get(id)
		if err != nil {
			// The index and the chunk map are updated under the repository
			// lock, but a hit can race a delete between Search and Get.
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if chunk.LibraryID != req.LibraryID {
			continue
		}
		scored = append(scored, model.ScoredChunk{Chunk: chunk, Score: float32(terms)})
	}

	return rank(scored, req.K), nil
}
