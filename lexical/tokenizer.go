package lexical

import (
	"strings"
	"unicode"
)

// Tokenizer normalizes text into a deduplicated set of terms.
type Tokenizer interface {
	// Tokenize returns the unique terms of text. Order is unspecified.
	// Empty or whitespace-only text yields no terms.
	Tokenize(text string) []string
}

// DefaultTokenizer lowercases, strips punctuation and symbol runes, splits
// on whitespace and deduplicates. It is deterministic and stateless.
type DefaultTokenizer struct{}

// NewTokenizer returns the default tokenizer.
func NewTokenizer() DefaultTokenizer { return DefaultTokenizer{} }

// Tokenize implements Tokenizer.
func (DefaultTokenizer) Tokenize(text string) []string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)

	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(fields))
	terms := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
