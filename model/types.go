package model

// LibraryID identifies a library. IDs are allocated densely from 0 and are
// never reused while the create action remains in the log.
type LibraryID uint32

// DocumentID identifies a document within the store.
type DocumentID uint32

// ChunkID identifies a chunk within the store. Chunk IDs are 32-bit so they
// can live directly in roaring posting bitmaps.
type ChunkID uint32

// Library is the root of the hierarchy.
type Library struct {
	ID   LibraryID `json:"id"`
	Name string    `json:"name"`
}

// Document belongs to exactly one library.
type Document struct {
	ID        DocumentID `json:"id"`
	Name      string     `json:"name"`
	LibraryID LibraryID  `json:"library_id"`
}

// Chunk is a piece of text under a document. LibraryID is denormalized from
// the parent document so library-scoped scans don't need a join.
// Embedding is nil until the chunk has been indexed.
type Chunk struct {
	ID         ChunkID    `json:"id"`
	Text       string     `json:"text"`
	DocumentID DocumentID `json:"document_id"`
	LibraryID  LibraryID  `json:"library_id"`
	Embedding  []float32  `json:"embedding"`
}

// HasEmbedding reports whether the chunk carries an embedding vector.
func (c *Chunk) HasEmbedding() bool { return len(c.Embedding) > 0 }

// ScoredChunk is a chunk paired with a search score. For keyword search the
// score is the query-term match count; for KNN it is the cosine similarity.
type ScoredChunk struct {
	Chunk *Chunk  `json:"chunk"`
	Score float32 `json:"score"`
}
