package vectordb

import "github.com/jandrana/vectordb/core"

// ErrNotFound matches every entity-not-found error via errors.Is.
var ErrNotFound = core.ErrNotFound

// Error types raised by store operations, re-exported for callers that only
// import the root package.
type (
	// EntityNotFoundError reports a missing operation target or parent.
	EntityNotFoundError = core.EntityNotFoundError
	// ValidationError reports malformed input.
	ValidationError = core.ValidationError
	// EmbeddingProviderError reports a failed external embedding call.
	EmbeddingProviderError = core.EmbeddingProviderError
)
