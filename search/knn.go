package search

import (
	"context"
	"fmt"

	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/distance"
	"github.com/jandrana/vectordb/embedding"
	"github.com/jandrana/vectordb/model"
)

// libraryChunkSource lists the chunks of one library.
type libraryChunkSource interface {
	GetByLibrary(libraryID model.LibraryID) []*model.Chunk
}

// KNN ranks chunks by cosine similarity between the embedded query and each
// chunk's stored embedding. The scan is brute force over the library; chunks
// without an embedding are skipped.
type KNN struct {
	embedder embedding.Provider
	chunks   libraryChunkSource
}

var _ Strategy = (*KNN)(nil)

// NewKNN creates the vector strategy using the given embedding provider.
func NewKNN(embedder embedding.Provider, chunks libraryChunkSource) *KNN {
	return &KNN{embedder: embedder, chunks: chunks}
}

// Name implements Strategy.
func (s *KNN) Name() string { return "knn" }

// Search implements Strategy.
func (s *KNN) Search(ctx context.Context, req Request) ([]model.ScoredChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, core.NewValidationError("strategy", "knn search requires an embedding provider")
	}

	vectors, err := s.embedder.Generate(ctx, []string{req.Query}, embedding.PurposeQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, core.NewEmbeddingProviderError("knn",
			fmt.Errorf("got %d embeddings for one query", len(vectors)))
	}
	query := vectors[0]

	var scored []model.ScoredChunk
	for _, chunk := range s.chunks.GetByLibrary(req.LibraryID) {
		// Chunks without an embedding (or embedded under a different model
		// dimension) cannot be compared; they are invisible to knn until
		// the library is reindexed.
		if !chunk.HasEmbedding() || len(chunk.Embedding) != len(query) {
			continue
		}
		scored = append(scored, model.ScoredChunk{
			Chunk: chunk,
			Score: distance.CosineSimilarity(query, chunk.Embedding),
		})
	}

	return rank(scored, req.K), nil
}
