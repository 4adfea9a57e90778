package providers

import (
	"context"
)

// Embedder defines the interface for text embedding operations
type Embedder interface {
	// EmbedQuery embeds a single query string
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds a batch of documents
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// TextGenerator defines the interface for query-variant generation
type TextGenerator interface {
	// GenerateVariants returns up to numVariants alternative phrasings of
	// query. Failures must be returned as errors, never panics; callers
	// degrade to the original query.
	GenerateVariants(ctx context.Context, query string, numVariants int) ([]string, error)
}
