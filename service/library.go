package service

import (
	"log/slog"

	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/repo"
)

// LibraryDetail is a library together with its documents and total chunk
// count.
type LibraryDetail struct {
	Library    *model.Library    `json:"library"`
	Documents  []*model.Document `json:"documents"`
	ChunkCount int               `json:"chunk_count"`
}

// LibraryService implements library operations including the cascade on
// delete.
type LibraryService struct {
	libraries *repo.LibraryRepo
	documents *repo.DocumentRepo
	chunks    *repo.ChunkRepo
	logger    *slog.Logger
}

// NewLibraryService creates a LibraryService.
func NewLibraryService(libraries *repo.LibraryRepo, documents *repo.DocumentRepo, chunks *repo.ChunkRepo, logger *slog.Logger) *LibraryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryService{libraries: libraries, documents: documents, chunks: chunks, logger: logger}
}

// Create creates a library.
func (s *LibraryService) Create(name string) (*model.Library, error) {
	return s.libraries.Create(name)
}

// Get returns one library.
func (s *LibraryService) Get(id model.LibraryID) (*model.Library, error) {
	return s.libraries.Get(id)
}

// GetAll returns all libraries ordered by id.
func (s *LibraryService) GetAll() []*model.Library {
	return s.libraries.GetAll()
}

// GetDetail returns the library with its documents and chunk count.
func (s *LibraryService) GetDetail(id model.LibraryID) (*LibraryDetail, error) {
	lib, err := s.libraries.Get(id)
	if err != nil {
		return nil, err
	}
	return &LibraryDetail{
		Library:    lib,
		Documents:  s.documents.GetByLibrary(id),
		ChunkCount: len(s.chunks.GetByLibrary(id)),
	}, nil
}

// Update renames a library. A nil name is a no-op update.
func (s *LibraryService) Update(id model.LibraryID, name *string) (*model.Library, error) {
	return s.libraries.Update(id, name)
}

// Delete removes a library and everything under it. Children go first so the
// log never records a parent delete ahead of its orphans.
func (s *LibraryService) Delete(id model.LibraryID) error {
	if _, err := s.libraries.Get(id); err != nil {
		return err
	}

	docs := s.documents.GetByLibrary(id)
	for _, doc := range docs {
		for _, chunk := range s.chunks.GetByDocument(doc.ID) {
			if err := s.chunks.Delete(chunk.ID); err != nil {
				return err
			}
		}
		if err := s.documents.Delete(doc.ID); err != nil {
			return err
		}
	}

	s.logger.Info("deleted library cascade", "library_id", id, "documents", len(docs))
	return s.libraries.Delete(id)
}
