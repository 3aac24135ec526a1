// Package qdrant implements VectorStore over the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ragkit-dev/ragkit/pkg/vectorstore"
)

const defaultTimeout = 15 * time.Second

// Config configures the Qdrant client.
type Config struct {
	// URL is the Qdrant REST endpoint, e.g. http://localhost:6333.
	URL string
	// APIKey is sent in the api-key header when set.
	APIKey string
	// Collection names the collection used by the store.
	Collection string
	// Dimensions is the vector size the collection is created with.
	Dimensions int
	// Timeout bounds each HTTP request. Defaults to 15s.
	Timeout time.Duration
}

// Store is a minimal REST client to Qdrant. It assumes cosine distance and
// creates the collection if missing.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimensions int
	client     *http.Client
}

// NewStore creates a Qdrant-backed store from config.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant: URL is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant: collection name is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant: dimensions must be positive, got %d", cfg.Dimensions)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// EnsureReady creates the collection with cosine distance if it does not
// exist. Qdrant answers 200 for a fresh create and 409 when the collection
// is already there; both count as ready.
func (s *Store) EnsureReady(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimensions,
			"distance": "Cosine",
		},
	}
	status, err := s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		return nil
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: create collection %s: status %d", s.collection, status)
	}
	return nil
}

// Upsert writes documents as points with the segment text in the payload.
func (s *Store) Upsert(ctx context.Context, documents []vectorstore.Document) error {
	if len(documents) == 0 {
		return nil
	}
	points := make([]map[string]any, len(documents))
	for i := range documents {
		doc := &documents[i]
		if err := vectorstore.ValidateDocument(doc, s.dimensions); err != nil {
			return err
		}
		points[i] = map[string]any{
			"id":     doc.ID,
			"vector": doc.Embedding,
			"payload": map[string]any{
				"content":  doc.Content,
				"source":   doc.Source,
				"position": doc.Position,
			},
		}
	}
	body := map[string]any{"points": points}
	status, err := s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: upsert %d points: status %d", len(points), status)
	}
	return nil
}

// Search runs a similarity query; score filtering happens server side via
// score_threshold, so results arrive pre-filtered and descending.
func (s *Store) Search(ctx context.Context, query vectorstore.SearchQuery) ([]vectorstore.SearchResult, error) {
	if len(query.Embedding) != s.dimensions {
		return nil, fmt.Errorf("qdrant: query dimension mismatch: expected %d, got %d",
			s.dimensions, len(query.Embedding))
	}
	if query.TopK <= 0 {
		return nil, fmt.Errorf("qdrant: topK must be positive, got %d", query.TopK)
	}

	req := map[string]any{
		"vector":       query.Embedding,
		"limit":        query.TopK,
		"with_payload": true,
	}
	if query.MinScore > 0 {
		req["score_threshold"] = query.MinScore
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant: search: status %d", status)
	}

	results := make([]vectorstore.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		doc := vectorstore.Document{ID: fmt.Sprintf("%v", r.ID)}
		if v, ok := r.Payload["content"].(string); ok {
			doc.Content = v
		}
		if v, ok := r.Payload["source"].(string); ok {
			doc.Source = v
		}
		if v, ok := r.Payload["position"].(float64); ok {
			doc.Position = int(v)
		}
		results = append(results, vectorstore.SearchResult{Document: doc, Score: r.Score})
	}
	return results, nil
}

// Close releases client resources.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Store) do(ctx context.Context, method, url string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("qdrant: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("qdrant: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("qdrant: decode response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}
