package vectordb

import (
	"log/slog"

	"github.com/jandrana/vectordb/codec"
	"github.com/jandrana/vectordb/embedding"
	"github.com/jandrana/vectordb/lexical"
	"github.com/jandrana/vectordb/wal"
)

// Options contains configuration for the store.
type Options struct {
	// Logger receives operational logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Codec encodes action log payloads. Defaults to codec.Default.
	Codec codec.Codec

	// Compress enables zstd compression of the action log.
	Compress bool

	// CompressionLevel sets the zstd level when Compress is on.
	CompressionLevel int

	// Durability controls fsync behavior of the action log.
	Durability wal.DurabilityMode

	// ArchiveOnCompact keeps a compressed copy of the superseded log when
	// Compact rewrites it.
	ArchiveOnCompact bool

	// Embedder generates embeddings for indexing and knn search. Without
	// one the store still serves CRUD and keyword search.
	Embedder embedding.Provider

	// Tokenizer overrides the keyword index tokenizer.
	Tokenizer lexical.Tokenizer
}

// Option configures the store.
type Option func(o *Options)

// DefaultOptions returns default store options.
var DefaultOptions = Options{
	CompressionLevel: 3,
	Durability:       wal.DurabilitySync,
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithCodec sets the action log payload codec.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithCompression enables zstd compression of the action log at the given
// level (1-22).
func WithCompression(level int) Option {
	return func(o *Options) {
		o.Compress = true
		o.CompressionLevel = level
	}
}

// WithDurability sets the fsync behavior of the action log.
func WithDurability(mode wal.DurabilityMode) Option {
	return func(o *Options) { o.Durability = mode }
}

// WithArchiveOnCompact keeps a compressed copy of the pre-compaction log.
func WithArchiveOnCompact() Option {
	return func(o *Options) { o.ArchiveOnCompact = true }
}

// WithEmbedder sets the embedding provider.
func WithEmbedder(p embedding.Provider) Option {
	return func(o *Options) { o.Embedder = p }
}

// WithTokenizer sets the keyword index tokenizer.
func WithTokenizer(t lexical.Tokenizer) Option {
	return func(o *Options) { o.Tokenizer = t }
}
