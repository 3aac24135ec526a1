// Package embeddings wraps the capability that maps text to fixed-dimension
// vectors.
package embeddings

import (
	"context"
)

// Service generates text embeddings. Vector dimensionality is fixed per
// deployment and must match the vector index's configured dimension; a
// mismatch is a configuration error caught at startup, not at runtime.
type Service interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, order-preserving
	// with one vector per input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimension of produced vectors.
	Dimensions() int

	// ModelName returns the embedding model name.
	ModelName() string
}
