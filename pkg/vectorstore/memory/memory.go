// Package memory provides an in-process VectorStore for tests and
// single-node deployments without a Qdrant instance.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ragkit-dev/ragkit/pkg/vectorstore"
)

// Store is a brute-force cosine index held in process memory.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	docs       []vectorstore.Document
	byID       map[string]int
	closed     bool
}

// NewStore creates an in-memory store for vectors of the given dimension.
func NewStore(dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("memory: dimensions must be positive, got %d", dimensions)
	}
	return &Store{
		dimensions: dimensions,
		byID:       make(map[string]int),
	}, nil
}

// EnsureReady is a no-op; the store is ready on construction.
func (s *Store) EnsureReady(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("memory: store is closed")
	}
	return nil
}

// Upsert inserts documents, replacing any existing document with the same ID.
func (s *Store) Upsert(_ context.Context, documents []vectorstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memory: store is closed")
	}

	for _, doc := range documents {
		if err := vectorstore.ValidateDocument(&doc, s.dimensions); err != nil {
			return err
		}
		if i, ok := s.byID[doc.ID]; ok {
			s.docs[i] = doc
			continue
		}
		s.byID[doc.ID] = len(s.docs)
		s.docs = append(s.docs, doc)
	}
	return nil
}

// Search scans every stored vector and returns the TopK cosine matches at or
// above MinScore, descending. Equal scores keep insertion order.
func (s *Store) Search(_ context.Context, query vectorstore.SearchQuery) ([]vectorstore.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("memory: store is closed")
	}
	if len(query.Embedding) != s.dimensions {
		return nil, fmt.Errorf("memory: query dimension mismatch: expected %d, got %d",
			s.dimensions, len(query.Embedding))
	}
	if query.TopK <= 0 {
		return nil, fmt.Errorf("memory: topK must be positive, got %d", query.TopK)
	}

	results := make([]vectorstore.SearchResult, 0, len(s.docs))
	for _, doc := range s.docs {
		score := cosineSimilarity(query.Embedding, doc.Embedding)
		if score < query.MinScore {
			continue
		}
		results = append(results, vectorstore.SearchResult{Document: doc, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > query.TopK {
		results = results[:query.TopK]
	}
	return results, nil
}

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close marks the store closed; further operations fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.docs = nil
	s.byID = nil
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
