package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel all entity-not-found errors match via
// errors.Is. Use errors.As with *EntityNotFoundError to learn which entity.
var ErrNotFound = errors.New("not found")

// EntityNotFoundError reports that an operation's target or required parent
// does not exist. It is raised before any mutation, so a failed operation
// has no side effects.
type EntityNotFoundError struct {
	Kind Kind
	ID   uint32
}

// NewEntityNotFound creates an EntityNotFoundError for the given kind and id.
func NewEntityNotFound(kind Kind, id uint32) *EntityNotFoundError {
	return &EntityNotFoundError{Kind: kind, ID: id}
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Kind, e.ID)
}

// Is makes every EntityNotFoundError match ErrNotFound.
func (e *EntityNotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports malformed input at the service boundary, e.g. an
// unknown search strategy name.
type ValidationError struct {
	Field string
	Msg   string
}

// NewValidationError creates a ValidationError. field may be empty.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("validation error: %s", e.Msg)
}

// EmbeddingProviderError wraps a failure from the external embedding call.
// It is distinct from validation: retrying the same request against the
// provider might succeed.
//
// The underlying provider error is available via errors.Unwrap.
type EmbeddingProviderError struct {
	Provider string
	cause    error
}

// NewEmbeddingProviderError wraps cause as a provider failure.
func NewEmbeddingProviderError(provider string, cause error) *EmbeddingProviderError {
	return &EmbeddingProviderError{Provider: provider, cause: cause}
}

func (e *EmbeddingProviderError) Error() string {
	return fmt.Sprintf("embedding provider error (%s): %v", e.Provider, e.cause)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.cause }
