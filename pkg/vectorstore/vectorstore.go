// Package vectorstore defines the vector index abstraction: storage of
// (vector, payload) pairs and nearest-neighbor search above a score
// threshold.
package vectorstore

import (
	"context"
	"fmt"
)

// Document is a stored (vector, payload) pair. The payload is the segment
// text plus positional metadata.
type Document struct {
	// ID uniquely identifies the document in the index.
	ID string `json:"id"`

	// Content is the segment text.
	Content string `json:"content"`

	// Embedding is the vector representation of the content.
	Embedding []float32 `json:"embedding"`

	// Source names the file the segment came from.
	Source string `json:"source,omitempty"`

	// Position is the segment's ordinal within its source document.
	Position int `json:"position"`
}

// SearchQuery defines the parameters for a similarity search.
type SearchQuery struct {
	// Embedding is the query vector.
	Embedding []float32

	// TopK is the maximum number of results to return.
	TopK int

	// MinScore excludes matches scoring below it (cosine, [0,1]).
	MinScore float32
}

// SearchResult is one similarity match, descending score order. Ties keep
// index insertion order.
type SearchResult struct {
	Document Document
	Score    float32
}

// VectorStore stores embedded segments and answers similarity queries.
// Implementations support safe concurrent inserts and queries.
type VectorStore interface {
	// EnsureReady creates the backing collection with the configured
	// dimension and metric if it does not exist; a no-op when it does.
	EnsureReady(ctx context.Context) error

	// Upsert inserts or updates documents.
	Upsert(ctx context.Context, documents []Document) error

	// Search returns at most TopK matches with score >= MinScore, ordered
	// by descending score.
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)

	// Close releases the connection to the index.
	Close() error
}

// ValidateDocument checks a document before storage.
func ValidateDocument(doc *Document, dimensions int) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if doc.Content == "" {
		return fmt.Errorf("document content cannot be empty")
	}
	if len(doc.Embedding) != dimensions {
		return fmt.Errorf("document %s embedding dimension mismatch: expected %d, got %d",
			doc.ID, dimensions, len(doc.Embedding))
	}
	return nil
}
