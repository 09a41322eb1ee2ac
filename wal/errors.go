package wal

import "errors"

// ErrClosed is returned when appending to or rewriting a closed log.
var ErrClosed = errors.New("action log is closed")
