package vectordb

import (
	"context"
	"log/slog"

	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/lexical"
	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/persistence"
	"github.com/jandrana/vectordb/repo"
	"github.com/jandrana/vectordb/search"
	"github.com/jandrana/vectordb/service"
	"github.com/jandrana/vectordb/wal"
)

// Store is an embedded document store with keyword and vector search. All
// state lives in memory; the action log under the store path is the system
// of record and is replayed on Open.
type Store struct {
	log    *wal.Log
	logger *slog.Logger

	libraries *repo.LibraryRepo
	documents *repo.DocumentRepo
	chunks    *repo.ChunkRepo

	libSvc    *service.LibraryService
	docSvc    *service.DocumentService
	chunkSvc  *service.ChunkService
	indexSvc  *service.IndexService
	searchSvc *service.SearchService
}

// Open opens (creating if absent) the store rooted at path and rebuilds the
// in-memory state from its action log.
func Open(path string, optFns ...Option) (*Store, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	log, err := wal.New(func(o *wal.Options) {
		o.Path = path
		o.Compress = opts.Compress
		o.CompressionLevel = opts.CompressionLevel
		o.DurabilityMode = opts.Durability
		o.ArchiveOnRewrite = opts.ArchiveOnCompact
		o.Codec = opts.Codec
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	pm := persistence.NewManager(log, opts.Logger)
	alloc := core.NewAllocator()
	index := lexical.NewMemoryIndex(opts.Tokenizer)

	libraries := repo.NewLibraryRepo(alloc, pm, opts.Codec)
	documents := repo.NewDocumentRepo(alloc, pm, libraries, opts.Codec)
	chunks := repo.NewChunkRepo(alloc, pm, documents, index, opts.Codec)

	applied, err := pm.Replay(libraries, documents, chunks)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	registry := search.NewRegistry()
	registry.Register(search.NewKeyword(index, chunks))
	registry.Register(search.NewKNN(opts.Embedder, chunks))

	s := &Store{
		log:       log,
		logger:    opts.Logger,
		libraries: libraries,
		documents: documents,
		chunks:    chunks,
		libSvc:    service.NewLibraryService(libraries, documents, chunks, opts.Logger),
		docSvc:    service.NewDocumentService(documents, chunks, opts.Logger),
		chunkSvc:  service.NewChunkService(chunks),
		indexSvc:  service.NewIndexService(libraries, chunks, opts.Embedder, opts.Logger),
		searchSvc: service.NewSearchService(libraries, registry),
	}

	opts.Logger.Info("store opened", "path", path, "replayed_actions", applied)
	return s, nil
}

// CreateLibrary creates a library.
func (s *Store) CreateLibrary(name string) (*model.Library, error) {
	return s.libSvc.Create(name)
}

// GetLibrary returns one library.
func (s *Store) GetLibrary(id model.LibraryID) (*model.Library, error) {
	return s.libSvc.Get(id)
}

// GetLibraries returns all libraries ordered by id.
func (s *Store) GetLibraries() []*model.Library {
	return s.libSvc.GetAll()
}

// GetLibraryDetail returns a library with its documents and chunk count.
func (s *Store) GetLibraryDetail(id model.LibraryID) (*service.LibraryDetail, error) {
	return s.libSvc.GetDetail(id)
}

// UpdateLibrary renames a library. A nil name leaves it unchanged.
func (s *Store) UpdateLibrary(id model.LibraryID, name *string) (*model.Library, error) {
	return s.libSvc.Update(id, name)
}

// DeleteLibrary removes a library with all its documents and chunks.
func (s *Store) DeleteLibrary(id model.LibraryID) error {
	return s.libSvc.Delete(id)
}

// CreateDocument creates a document under an existing library.
func (s *Store) CreateDocument(name string, libraryID model.LibraryID) (*model.Document, error) {
	return s.docSvc.Create(name, libraryID)
}

// GetDocument returns one document.
func (s *Store) GetDocument(id model.DocumentID) (*model.Document, error) {
	return s.docSvc.Get(id)
}

// GetDocuments returns all documents ordered by id.
func (s *Store) GetDocuments() []*model.Document {
	return s.docSvc.GetAll()
}

// GetDocumentDetail returns a document with its chunks.
func (s *Store) GetDocumentDetail(id model.DocumentID) (*service.DocumentDetail, error) {
	return s.docSvc.GetDetail(id)
}

// UpdateDocument renames a document.
func (s *Store) UpdateDocument(id model.DocumentID, name *string) (*model.Document, error) {
	return s.docSvc.Update(id, name)
}

// DeleteDocument removes a document with its chunks.
func (s *Store) DeleteDocument(id model.DocumentID) error {
	return s.docSvc.Delete(id)
}

// CreateChunk creates a chunk under an existing document. embedding may be
// nil; IndexLibrary embeds it later.
func (s *Store) CreateChunk(text string, documentID model.DocumentID, embedding []float32) (*model.Chunk, error) {
	return s.chunkSvc.Create(text, documentID, embedding)
}

// GetChunk returns one chunk.
func (s *Store) GetChunk(id model.ChunkID) (*model.Chunk, error) {
	return s.chunkSvc.Get(id)
}

// GetChunks returns all chunks ordered by id.
func (s *Store) GetChunks() []*model.Chunk {
	return s.chunkSvc.GetAll()
}

// GetChunksByDocument returns the chunks of one document ordered by id.
func (s *Store) GetChunksByDocument(documentID model.DocumentID) []*model.Chunk {
	return s.chunkSvc.GetByDocument(documentID)
}

// UpdateChunk applies the supplied fields to a chunk. Nil fields are left
// unchanged; moving a chunk between documents updates its library too.
func (s *Store) UpdateChunk(id model.ChunkID, text *string, documentID *model.DocumentID, embedding []float32) (*model.Chunk, error) {
	return s.chunkSvc.Update(id, text, documentID, embedding)
}

// DeleteChunk removes a chunk.
func (s *Store) DeleteChunk(id model.ChunkID) error {
	return s.chunkSvc.Delete(id)
}

// IndexLibrary embeds every unembedded chunk of the library and persists the
// vectors. Requires an embedding provider.
func (s *Store) IndexLibrary(ctx context.Context, id model.LibraryID) (*service.IndexResult, error) {
	return s.indexSvc.IndexLibrary(ctx, id)
}

// Search runs a query against one library. An empty strategy selects knn; a
// zero k selects the default result count.
func (s *Store) Search(ctx context.Context, libraryID model.LibraryID, query, strategy string, k int) ([]model.ScoredChunk, error) {
	return s.searchSvc.Search(ctx, libraryID, query, strategy, k)
}

// Strategies returns the available search strategy names.
func (s *Store) Strategies() []string {
	return s.searchSvc.Strategies()
}

// ActionCount returns the number of records currently in the action log.
func (s *Store) ActionCount() (int, error) {
	return s.log.Count()
}

// Compact rewrites the action log to the minimal create sequence for the
// current state. The swap is atomic; a crash mid-compaction leaves either the
// old or the new log. Callers must quiesce writers for the duration: a
// mutation racing the rewrite can be dropped from the compacted log.
func (s *Store) Compact() error {
	type pending struct {
		action  string
		payload any
	}

	// Snapshot outside the log rewrite so repository locks and the log lock
	// are never held together.
	var snapshot []pending
	collect := func(action string, payload any) error {
		snapshot = append(snapshot, pending{action: action, payload: payload})
		return nil
	}
	for _, emit := range []func(func(string, any) error) error{
		s.libraries.EmitState,
		s.documents.EmitState,
		s.chunks.EmitState,
	} {
		if err := emit(collect); err != nil {
			return err
		}
	}

	before, err := s.log.Count()
	if err != nil {
		return err
	}

	if err := s.log.Rewrite(func(append func(action string, payload any) error) error {
		for _, p := range snapshot {
			if err := append(p.action, p.payload); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	s.logger.Info("compacted action log", "before", before, "after", len(snapshot))
	return nil
}

// Close flushes and closes the action log. The store must not be used after
// Close.
func (s *Store) Close() error {
	return s.log.Close()
}
