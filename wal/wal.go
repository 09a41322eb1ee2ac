// Package wal provides the append-only action log that is vectordb's system
// of record.
//
// Every accepted mutation is appended as one JSON object per line
// ({"action": ..., "data": ...}) and flushed before the call returns. On
// startup the log is read back in file order to rebuild the in-memory state.
// A malformed line is skipped with a warning; it never blocks replay of the
// valid lines before it.
package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/jandrana/vectordb/codec"
)

const (
	fileName           = "actions.jsonl"
	compressedFileName = "actions.jsonl.zst"

	// maxLineSize bounds a single log line. Embedding payloads are large but
	// bounded; 16 MiB leaves generous headroom.
	maxLineSize = 16 << 20
)

// Log is the durable action log. A single Log owns the file handle for the
// life of the process; appends are serialized by an internal mutex.
type Log struct {
	mu         sync.Mutex
	file       *os.File
	writer     io.Writer
	bufWriter  *bufio.Writer
	compressor *zstd.Encoder

	filePath   string
	compressed bool
	level      int
	durability DurabilityMode
	archive    bool
	codec      codec.Codec
	logger     *slog.Logger
}

// New opens (creating if absent) the action log in opts.Path.
func New(optFns ...func(o *Options)) (*Log, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CompressionLevel == 0 {
		opts.CompressionLevel = DefaultOptions.CompressionLevel
	}

	if err := os.MkdirAll(opts.Path, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fileName
	if opts.Compress {
		name = compressedFileName
	}

	l := &Log{
		filePath:   filepath.Join(opts.Path, name),
		compressed: opts.Compress,
		level:      opts.CompressionLevel,
		durability: opts.DurabilityMode,
		archive:    opts.ArchiveOnRewrite,
		codec:      opts.Codec,
		logger:     opts.Logger,
	}

	if err := l.openWriter(); err != nil {
		return nil, err
	}

	return l, nil
}

// openWriter opens the append handle and the writer chain behind it.
// A compressed log gains one zstd frame per process session; concatenated
// frames decode as a single stream.
func (l *Log) openWriter() error {
	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.file = file

	if l.compressed {
		enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(l.level)))
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to create compressor: %w", err)
		}
		l.compressor = enc
		l.bufWriter = bufio.NewWriter(enc)
	} else {
		l.compressor = nil
		l.bufWriter = bufio.NewWriter(file)
	}
	l.writer = l.bufWriter

	return nil
}

// FilePath returns the path of the log file.
func (l *Log) FilePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filePath
}

// Append serializes {action, payload} as one line and makes it durable
// before returning. A failed append means the mutation is not committed; the
// error must propagate to the caller that triggered it.
func (l *Log) Append(action string, payload any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrClosed
	}

	line, err := l.encodeRecord(action, payload)
	if err != nil {
		return err
	}

	if _, err := l.writer.Write(line); err != nil {
		return fmt.Errorf("failed to append to log: %w", err)
	}
	return l.flushLocked()
}

func (l *Log) encodeRecord(action string, payload any) ([]byte, error) {
	data, err := l.codec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", action, err)
	}
	rec, err := l.codec.Marshal(Record{Action: action, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s record: %w", action, err)
	}
	return append(rec, '\n'), nil
}

func (l *Log) flushLocked() error {
	if err := l.bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush log buffer: %w", err)
	}
	if l.compressor != nil {
		if err := l.compressor.Flush(); err != nil {
			return fmt.Errorf("failed to flush compressor: %w", err)
		}
	}
	if l.durability == DurabilitySync {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync log: %w", err)
		}
	}
	return nil
}

// ReadAll streams every record in file order through fn. Lines that fail to
// decode are skipped with a warning. A tail truncated by a crash (surfacing
// as an unexpected EOF from the decompressor) stops iteration with a
// warning: everything before the cut is still recovered. Any other read
// error, including a line exceeding the size bound, is fatal; replaying a
// silently shortened log would serve partial state. An error from fn is
// fatal and aborts the read.
func (l *Log) ReadAll(fn func(action string, data []byte) error) error {
	l.mu.Lock()
	path, compressed := l.filePath, l.compressed
	l.mu.Unlock()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log for reading: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if compressed {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return fmt.Errorf("failed to create decompressor: %w", err)
		}
		defer dec.Close()
		reader = dec
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64<<10), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := l.codec.Unmarshal(line, &rec); err != nil {
			l.logger.Warn("skipping malformed log line", "line", lineNo, "error", err)
			continue
		}

		if err := fn(rec.Action, rec.Data); err != nil {
			return fmt.Errorf("failed to apply log record at line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			l.logger.Warn("log ends mid-record, recovered prefix", "line", lineNo, "error", err)
			return nil
		}
		return fmt.Errorf("failed to read log after line %d: %w", lineNo, err)
	}

	return nil
}

// Count returns the number of decodable records in the log.
func (l *Log) Count() (int, error) {
	n := 0
	err := l.ReadAll(func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}

// Rewrite atomically replaces the log contents. emit is called with an
// append function writing to a temporary file; on success the temporary file
// is fsynced and renamed over the live log. With ArchiveOnRewrite set, the
// superseded bytes are kept zstd-compressed next to the log.
//
// Used by compaction to collapse the log to the minimal action sequence for
// the current state.
func (l *Log) Rewrite(emit func(append func(action string, payload any) error) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrClosed
	}

	// Quiesce the current writer chain so the on-disk file is complete.
	if err := l.closeWriterLocked(); err != nil {
		return err
	}

	tmpPath := l.filePath + ".tmp"
	if err := l.writeTemp(tmpPath, emit); err != nil {
		_ = os.Remove(tmpPath)
		// Reopen the original log so the Log stays usable after a failed
		// rewrite.
		if reopenErr := l.openWriter(); reopenErr != nil {
			return fmt.Errorf("rewrite failed (%w) and log reopen failed: %w", err, reopenErr)
		}
		return err
	}

	if l.archive {
		if err := l.archiveCurrent(); err != nil {
			l.logger.Warn("failed to archive superseded log", "error", err)
		}
	}

	if err := os.Rename(tmpPath, l.filePath); err != nil {
		_ = os.Remove(tmpPath)
		if reopenErr := l.openWriter(); reopenErr != nil {
			return fmt.Errorf("rewrite rename failed (%w) and log reopen failed: %w", err, reopenErr)
		}
		return fmt.Errorf("failed to swap rewritten log: %w", err)
	}

	return l.openWriter()
}

func (l *Log) writeTemp(tmpPath string, emit func(append func(action string, payload any) error) error) error {
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create temp log: %w", err)
	}
	defer tmp.Close()

	var (
		w   io.Writer
		bw  *bufio.Writer
		enc *zstd.Encoder
	)
	if l.compressed {
		enc, err = zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(l.level)))
		if err != nil {
			return fmt.Errorf("failed to create compressor: %w", err)
		}
		bw = bufio.NewWriter(enc)
	} else {
		bw = bufio.NewWriter(tmp)
	}
	w = bw

	appendFn := func(action string, payload any) error {
		line, err := l.encodeRecord(action, payload)
		if err != nil {
			return err
		}
		_, err = w.Write(line)
		return err
	}

	if err := emit(appendFn); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush temp log: %w", err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to finalize compressor: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp log: %w", err)
	}
	return nil
}

// archiveCurrent writes a zstd-compressed copy of the live log file to
// <path>.old.zst, replacing any previous archive.
func (l *Log) archiveCurrent() error {
	src, err := os.Open(l.filePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(l.filePath+".old.zst", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer dst.Close()

	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(l.level)))
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, src); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return dst.Sync()
}

// closeWriterLocked flushes and tears down the writer chain, leaving the
// file closed. Caller must hold l.mu.
func (l *Log) closeWriterLocked() error {
	if l.bufWriter != nil {
		if err := l.bufWriter.Flush(); err != nil {
			return fmt.Errorf("failed to flush log buffer: %w", err)
		}
	}
	if l.compressor != nil {
		if err := l.compressor.Close(); err != nil {
			return fmt.Errorf("failed to close compressor: %w", err)
		}
		l.compressor = nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return err
	}
	l.file = nil
	return nil
}

// Close flushes pending bytes and closes the log. Idempotent.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	return l.closeWriterLocked()
}
