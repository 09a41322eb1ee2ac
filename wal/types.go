package wal

import (
	"encoding/json"
	"log/slog"

	"github.com/jandrana/vectordb/codec"
)

// Record is one entry of the action log: a named action plus its payload,
// stored as a single JSON object per line.
type Record struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// DurabilityMode defines the fsync behavior for log appends.
type DurabilityMode int

const (
	// DurabilitySync fsyncs after every append. An accepted mutation is on
	// disk before the call returns. Default.
	DurabilitySync DurabilityMode = iota

	// DurabilityAsync skips fsync. The OS page cache decides when bytes hit
	// disk; a crash can lose the tail of the log. Use only when an external
	// mechanism provides durability.
	DurabilityAsync
)

// Options contains configuration for the action log.
type Options struct {
	// Path is the directory where the log file is stored.
	Path string

	// Compress enables zstd compression of the log stream. The file is
	// named with a .zst suffix so the format stays self-describing.
	Compress bool

	// CompressionLevel sets the zstd level (1-22). Default 3.
	CompressionLevel int

	// DurabilityMode controls fsync behavior. Default DurabilitySync.
	DurabilityMode DurabilityMode

	// ArchiveOnRewrite keeps a zstd-compressed copy of the superseded log
	// when Rewrite replaces it. Default false.
	ArchiveOnRewrite bool

	// Codec encodes records. Defaults to codec.Default. Any codec used here
	// must not emit newlines inside a record.
	Codec codec.Codec

	// Logger receives warnings about skipped malformed lines. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns default log options.
var DefaultOptions = Options{
	Path:             ".",
	Compress:         false,
	CompressionLevel: 3,
	DurabilityMode:   DurabilitySync,
}
