// Package embedding defines the interface to external embedding providers.
package embedding

import "context"

// Purpose tells the provider how the texts will be used. Asymmetric embedding
// models encode documents and queries differently; passing the wrong purpose
// silently degrades retrieval quality.
type Purpose string

const (
	// PurposeDocument marks texts that will be stored and searched over.
	PurposeDocument Purpose = "search_document"
	// PurposeQuery marks texts used to search stored documents.
	PurposeQuery Purpose = "search_query"
)

// Provider generates embeddings for a batch of texts. Implementations must
// return exactly one vector per input text, in input order.
type Provider interface {
	Generate(ctx context.Context, texts []string, purpose Purpose) ([][]float32, error)
}
