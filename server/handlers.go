package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jandrana/vectordb/model"
)

type createLibraryRequest struct {
	Name string `json:"name" binding:"required"`
}

type updateLibraryRequest struct {
	Name *string `json:"name"`
}

type createDocumentRequest struct {
	Name      string  `json:"name" binding:"required"`
	LibraryID *uint32 `json:"library_id" binding:"required"`
}

type updateDocumentRequest struct {
	Name *string `json:"name"`
}

type createChunkRequest struct {
	Text       string    `json:"text" binding:"required"`
	DocumentID *uint32   `json:"document_id" binding:"required"`
	Embedding  []float32 `json:"embedding"`
}

type updateChunkRequest struct {
	Text       *string   `json:"text"`
	DocumentID *uint32   `json:"document_id"`
	Embedding  []float32 `json:"embedding"`
}

type searchRequest struct {
	Query    string `json:"query" binding:"required"`
	K        int    `json:"k"`
	Strategy string `json:"strategy"`
}

func (s *Server) createLibrary(c *gin.Context) {
	var req createLibraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	lib, err := s.store.CreateLibrary(req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, lib)
}

func (s *Server) listLibraries(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.GetLibraries())
}

func (s *Server) getLibrary(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	lib, err := s.store.GetLibrary(model.LibraryID(id))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lib)
}

func (s *Server) getLibraryDetail(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	detail, err := s.store.GetLibraryDetail(model.LibraryID(id))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) listLibraryDocuments(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	detail, err := s.store.GetLibraryDetail(model.LibraryID(id))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail.Documents)
}

func (s *Server) updateLibrary(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req updateLibraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	lib, err := s.store.UpdateLibrary(model.LibraryID(id), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lib)
}

func (s *Server) deleteLibrary(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteLibrary(model.LibraryID(id)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) indexLibrary(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	res, err := s.store.IndexLibrary(c.Request.Context(), model.LibraryID(id))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) searchLibrary(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	hits, err := s.store.Search(c.Request.Context(), model.LibraryID(id), req.Query, req.Strategy, req.K)
	if err != nil {
		s.fail(c, err)
		return
	}
	if hits == nil {
		hits = []model.ScoredChunk{}
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}

func (s *Server) createDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	doc, err := s.store.CreateDocument(req.Name, model.LibraryID(*req.LibraryID))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) listDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.GetDocuments())
}

func (s *Server) getDocument(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	doc, err := s.store.GetDocument(model.DocumentID(id))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) getDocumentDetail(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	detail, err := s.store.GetDocumentDetail(model.DocumentID(id))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) listDocumentChunks(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	// Resolve the document first so an unknown id is a 404, not an empty
	// list.
	if _, err := s.store.GetDocument(model.DocumentID(id)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.store.GetChunksByDocument(model.DocumentID(id)))
}

func (s *Server) updateDocument(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	doc, err := s.store.UpdateDocument(model.DocumentID(id), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) deleteDocument(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteDocument(model.DocumentID(id)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createChunk(c *gin.Context) {
	var req createChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	chunk, err := s.store.CreateChunk(req.Text, model.DocumentID(*req.DocumentID), req.Embedding)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, chunk)
}

func (s *Server) listChunks(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.GetChunks())
}

func (s *Server) getChunk(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	chunk, err := s.store.GetChunk(model.ChunkID(id))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chunk)
}

func (s *Server) updateChunk(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req updateChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	var documentID *model.DocumentID
	if req.DocumentID != nil {
		did := model.DocumentID(*req.DocumentID)
		documentID = &did
	}
	chunk, err := s.store.UpdateChunk(model.ChunkID(id), req.Text, documentID, req.Embedding)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chunk)
}

func (s *Server) deleteChunk(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteChunk(model.ChunkID(id)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
