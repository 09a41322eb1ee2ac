// Package service implements the operations exposed by the store facade and
// the HTTP API: validated CRUD with cascading deletes, library detail reads,
// embedding indexing and search dispatch.
//
// Services own cross-entity rules (a library delete removes its documents
// and chunks); single-entity rules live in the repositories.
package service
