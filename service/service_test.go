package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/embedding"
	"github.com/jandrana/vectordb/lexical"
	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/persistence"
	"github.com/jandrana/vectordb/repo"
	"github.com/jandrana/vectordb/search"
	"github.com/jandrana/vectordb/wal"
)

type fixture struct {
	log       *wal.Log
	pm        *persistence.Manager
	index     *lexical.MemoryIndex
	libraries *repo.LibraryRepo
	documents *repo.DocumentRepo
	chunks    *repo.ChunkRepo

	libSvc   *LibraryService
	docSvc   *DocumentService
	chunkSvc *ChunkService
}

func newFixture(t *testing.T, dir string) *fixture {
	t.Helper()

	log, err := wal.New(func(o *wal.Options) { o.Path = dir })
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	f := &fixture{log: log}
	f.pm = persistence.NewManager(log, nil)
	f.index = lexical.NewMemoryIndex(nil)
	alloc := core.NewAllocator()
	f.libraries = repo.NewLibraryRepo(alloc, f.pm, nil)
	f.documents = repo.NewDocumentRepo(alloc, f.pm, f.libraries, nil)
	f.chunks = repo.NewChunkRepo(alloc, f.pm, f.documents, f.index, nil)

	f.libSvc = NewLibraryService(f.libraries, f.documents, f.chunks, nil)
	f.docSvc = NewDocumentService(f.documents, f.chunks, nil)
	f.chunkSvc = NewChunkService(f.chunks)
	return f
}

// seed creates one library with one document holding two chunks.
func (f *fixture) seed(t *testing.T) (*model.Library, *model.Document, []*model.Chunk) {
	t.Helper()

	lib, err := f.libSvc.Create("lib")
	require.NoError(t, err)
	doc, err := f.docSvc.Create("doc", lib.ID)
	require.NoError(t, err)
	c1, err := f.chunkSvc.Create("first chunk", doc.ID, nil)
	require.NoError(t, err)
	c2, err := f.chunkSvc.Create("second chunk", doc.ID, []float32{1, 0})
	require.NoError(t, err)
	return lib, doc, []*model.Chunk{c1, c2}
}

type countingEmbedder struct {
	calls   int
	texts   []string
	purpose embedding.Purpose
	err     error
}

func (e *countingEmbedder) Generate(_ context.Context, texts []string, purpose embedding.Purpose) ([][]float32, error) {
	e.calls++
	e.texts = texts
	e.purpose = purpose
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{float32(i + 1), 0}
	}
	return out, nil
}

func TestLibraryDeleteCascades(t *testing.T) {
	f := newFixture(t, t.TempDir())
	lib, doc, chunks := f.seed(t)

	require.NoError(t, f.libSvc.Delete(lib.ID))

	_, err := f.libraries.Get(lib.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.documents.Get(doc.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	for _, c := range chunks {
		_, err = f.chunks.Get(c.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	}
	assert.Zero(t, f.index.Terms())
}

func TestLibraryDeleteCascadeSurvivesReplay(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)
	lib, _, _ := f.seed(t)
	keep, err := f.libSvc.Create("keep")
	require.NoError(t, err)
	require.NoError(t, f.libSvc.Delete(lib.ID))
	require.NoError(t, f.log.Close())

	g := newFixture(t, dir)
	_, err = g.pm.Replay(g.libraries, g.documents, g.chunks)
	require.NoError(t, err)

	all := g.libraries.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
	assert.Empty(t, g.documents.GetAll())
	assert.Empty(t, g.chunks.GetAll())
}

func TestDocumentDeleteCascadesToChunks(t *testing.T) {
	f := newFixture(t, t.TempDir())
	lib, doc, chunks := f.seed(t)

	require.NoError(t, f.docSvc.Delete(doc.ID))

	_, err := f.libraries.Get(lib.ID)
	require.NoError(t, err)
	for _, c := range chunks {
		_, err = f.chunks.Get(c.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	}
}

func TestDetailReads(t *testing.T) {
	f := newFixture(t, t.TempDir())
	lib, doc, chunks := f.seed(t)

	libDetail, err := f.libSvc.GetDetail(lib.ID)
	require.NoError(t, err)
	assert.Equal(t, lib.ID, libDetail.Library.ID)
	require.Len(t, libDetail.Documents, 1)
	assert.Equal(t, doc.ID, libDetail.Documents[0].ID)
	assert.Equal(t, 2, libDetail.ChunkCount)

	docDetail, err := f.docSvc.GetDetail(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, docDetail.Document.ID)
	require.Len(t, docDetail.Chunks, 2)
	assert.Equal(t, chunks[0].ID, docDetail.Chunks[0].ID)

	_, err = f.libSvc.GetDetail(99)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.docSvc.GetDetail(99)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestIndexLibraryEmbedsOnlyPendingChunks(t *testing.T) {
	f := newFixture(t, t.TempDir())
	lib, _, chunks := f.seed(t)

	embedder := &countingEmbedder{}
	svc := NewIndexService(f.libraries, f.chunks, embedder, nil)

	res, err := svc.IndexLibrary(context.Background(), lib.ID)
	require.NoError(t, err)
	assert.Equal(t, IndexStatusSuccess, res.Status)
	assert.Equal(t, 1, res.EmbeddedChunks)
	assert.Equal(t, []string{"first chunk"}, embedder.texts)
	assert.Equal(t, embedding.PurposeDocument, embedder.purpose)

	got, err := f.chunks.Get(chunks[0].ID)
	require.NoError(t, err)
	assert.True(t, got.HasEmbedding())

	// Everything embedded now; the next run has nothing to do.
	res, err = svc.IndexLibrary(context.Background(), lib.ID)
	require.NoError(t, err)
	assert.Equal(t, IndexStatusSkipped, res.Status)
	assert.Zero(t, res.EmbeddedChunks)
	assert.Equal(t, 1, embedder.calls)
}

func TestIndexLibraryPersistsEmbeddings(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, dir)
	lib, _, chunks := f.seed(t)

	svc := NewIndexService(f.libraries, f.chunks, &countingEmbedder{}, nil)
	_, err := svc.IndexLibrary(context.Background(), lib.ID)
	require.NoError(t, err)
	require.NoError(t, f.log.Close())

	g := newFixture(t, dir)
	_, err = g.pm.Replay(g.libraries, g.documents, g.chunks)
	require.NoError(t, err)

	got, err := g.chunks.Get(chunks[0].ID)
	require.NoError(t, err)
	assert.True(t, got.HasEmbedding())
}

// ctxAwareEmbedder fails when its context is already dead, like a real HTTP
// client would.
type ctxAwareEmbedder struct {
	countingEmbedder
}

func (e *ctxAwareEmbedder) Generate(ctx context.Context, texts []string, purpose embedding.Purpose) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewEmbeddingProviderError("test", err)
	}
	return e.countingEmbedder.Generate(ctx, texts, purpose)
}

func TestIndexLibraryOutlivesCallerCancel(t *testing.T) {
	f := newFixture(t, t.TempDir())
	lib, _, _ := f.seed(t)

	svc := NewIndexService(f.libraries, f.chunks, &ctxAwareEmbedder{}, nil)

	// The indexing run is shared between callers, so the cancellation of the
	// caller that started it must not propagate into the run.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.IndexLibrary(ctx, lib.ID)
	require.NoError(t, err)
	assert.Equal(t, IndexStatusSuccess, res.Status)
	assert.Equal(t, 1, res.EmbeddedChunks)
}

func TestIndexLibraryErrors(t *testing.T) {
	f := newFixture(t, t.TempDir())
	lib, _, _ := f.seed(t)

	svc := NewIndexService(f.libraries, f.chunks, nil, nil)
	var valErr *core.ValidationError
	_, err := svc.IndexLibrary(context.Background(), lib.ID)
	require.ErrorAs(t, err, &valErr)

	svc = NewIndexService(f.libraries, f.chunks, &countingEmbedder{}, nil)
	_, err = svc.IndexLibrary(context.Background(), 99)
	assert.ErrorIs(t, err, core.ErrNotFound)

	boom := core.NewEmbeddingProviderError("test", assert.AnError)
	svc = NewIndexService(f.libraries, f.chunks, &countingEmbedder{err: boom}, nil)
	_, err = svc.IndexLibrary(context.Background(), lib.ID)
	assert.ErrorIs(t, err, boom)
}

type recordingStrategy struct {
	name string
	req  search.Request
}

func (s *recordingStrategy) Name() string { return s.name }

func (s *recordingStrategy) Search(_ context.Context, req search.Request) ([]model.ScoredChunk, error) {
	s.req = req
	return nil, nil
}

func TestSearchServiceDefaults(t *testing.T) {
	f := newFixture(t, t.TempDir())
	lib, _, _ := f.seed(t)

	knn := &recordingStrategy{name: "knn"}
	keyword := &recordingStrategy{name: "keyword"}
	registry := search.NewRegistry()
	registry.Register(knn)
	registry.Register(keyword)
	svc := NewSearchService(f.libraries, registry)

	_, err := svc.Search(context.Background(), lib.ID, "query", "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultK, knn.req.K)
	assert.Equal(t, lib.ID, knn.req.LibraryID)

	_, err = svc.Search(context.Background(), lib.ID, "query", "keyword", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, keyword.req.K)

	assert.Equal(t, []string{"keyword", "knn"}, svc.Strategies())
}

func TestSearchServiceValidation(t *testing.T) {
	f := newFixture(t, t.TempDir())
	lib, _, _ := f.seed(t)

	registry := search.NewRegistry()
	registry.Register(&recordingStrategy{name: "knn"})
	svc := NewSearchService(f.libraries, registry)

	_, err := svc.Search(context.Background(), 99, "q", "", 0)
	assert.ErrorIs(t, err, core.ErrNotFound)

	var valErr *core.ValidationError
	_, err = svc.Search(context.Background(), lib.ID, "   ", "", 0)
	require.ErrorAs(t, err, &valErr)

	_, err = svc.Search(context.Background(), lib.ID, "q", "hybrid", 0)
	require.ErrorAs(t, err, &valErr)
}
