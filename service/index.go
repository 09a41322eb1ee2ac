package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/embedding"
	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/repo"
)

// IndexStatus reports the outcome of an indexing run.
type IndexStatus string

const (
	// IndexStatusSuccess means at least one chunk was embedded.
	IndexStatusSuccess IndexStatus = "success"
	// IndexStatusSkipped means every chunk already had an embedding.
	IndexStatusSkipped IndexStatus = "skipped"
)

// IndexResult is the outcome of IndexLibrary.
type IndexResult struct {
	Status         IndexStatus `json:"status"`
	EmbeddedChunks int         `json:"embedded_chunks"`
}

// IndexService embeds the unembedded chunks of a library and persists the
// vectors.
type IndexService struct {
	libraries *repo.LibraryRepo
	chunks    *repo.ChunkRepo
	embedder  embedding.Provider
	group     singleflight.Group
	logger    *slog.Logger
}

// NewIndexService creates an IndexService. embedder may be nil when no
// provider is configured; indexing then fails with a validation error.
func NewIndexService(libraries *repo.LibraryRepo, chunks *repo.ChunkRepo, embedder embedding.Provider, logger *slog.Logger) *IndexService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexService{libraries: libraries, chunks: chunks, embedder: embedder, logger: logger}
}

// IndexLibrary embeds every chunk of the library that has no embedding yet
// and writes the vectors back through the repository, so they survive a
// restart. Concurrent calls for the same library collapse into one run;
// callers share its result.
func (s *IndexService) IndexLibrary(ctx context.Context, id model.LibraryID) (*IndexResult, error) {
	if _, err := s.libraries.Get(id); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, core.NewValidationError("embedding", "no embedding provider configured")
	}

	// The run is shared by every caller that joins it, so it must not die
	// with whichever caller happened to start it.
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(fmt.Sprintf("library-%d", id), func() (any, error) {
		return s.indexLibrary(runCtx, id)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("joined in-flight indexing run", "library_id", id)
	}
	return v.(*IndexResult), nil
}

func (s *IndexService) indexLibrary(ctx context.Context, id model.LibraryID) (*IndexResult, error) {
	var pending []*model.Chunk
	for _, chunk := range s.chunks.GetByLibrary(id) {
		if !chunk.HasEmbedding() {
			pending = append(pending, chunk)
		}
	}
	if len(pending) == 0 {
		return &IndexResult{Status: IndexStatusSkipped}, nil
	}

	texts := make([]string, len(pending))
	for i, chunk := range pending {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.Generate(ctx, texts, embedding.PurposeDocument)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(pending) {
		return nil, core.NewEmbeddingProviderError("index",
			fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(pending)))
	}

	for i, chunk := range pending {
		if _, err := s.chunks.Update(chunk.ID, nil, nil, vectors[i]); err != nil {
			return nil, err
		}
	}

	s.logger.Info("indexed library", "library_id", id, "embedded_chunks", len(pending))
	return &IndexResult{Status: IndexStatusSuccess, EmbeddedChunks: len(pending)}, nil
}
