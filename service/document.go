package service

import (
	"log/slog"

	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/repo"
)

// DocumentDetail is a document together with its chunks.
type DocumentDetail struct {
	Document *model.Document `json:"document"`
	Chunks   []*model.Chunk  `json:"chunks"`
}

// DocumentService implements document operations including the cascade on
// delete.
type DocumentService struct {
	documents *repo.DocumentRepo
	chunks    *repo.ChunkRepo
	logger    *slog.Logger
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(documents *repo.DocumentRepo, chunks *repo.ChunkRepo, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{documents: documents, chunks: chunks, logger: logger}
}

// Create creates a document under an existing library.
func (s *DocumentService) Create(name string, libraryID model.LibraryID) (*model.Document, error) {
	return s.documents.Create(name, libraryID)
}

// Get returns one document.
func (s *DocumentService) Get(id model.DocumentID) (*model.Document, error) {
	return s.documents.Get(id)
}

// GetAll returns all documents ordered by id.
func (s *DocumentService) GetAll() []*model.Document {
	return s.documents.GetAll()
}

// GetDetail returns the document with its chunks.
func (s *DocumentService) GetDetail(id model.DocumentID) (*DocumentDetail, error) {
	doc, err := s.documents.Get(id)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: doc, Chunks: s.chunks.GetByDocument(id)}, nil
}

// Update renames a document.
func (s *DocumentService) Update(id model.DocumentID, name *string) (*model.Document, error) {
	return s.documents.Update(id, name)
}

// Delete removes a document and its chunks.
func (s *DocumentService) Delete(id model.DocumentID) error {
	if _, err := s.documents.Get(id); err != nil {
		return err
	}

	for _, chunk := range s.chunks.GetByDocument(id) {
		if err := s.chunks.Delete(chunk.ID); err != nil {
			return err
		}
	}
	return s.documents.Delete(id)
}
