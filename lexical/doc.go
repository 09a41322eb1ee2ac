// Package lexical provides tokenization and the keyword inverted index over
// chunk text.
//
// The index owns the last-indexed text per chunk, so removing a chunk needs
// only its id; callers can't desynchronize postings by passing stale text.
package lexical
