// Package rag implements the retrieval pipeline: document ingestion into the
// vector index and similarity search used to ground model answers.
package rag

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/ragkit-dev/ragkit/pkg/embeddings"
	"github.com/ragkit-dev/ragkit/pkg/observability"
	"github.com/ragkit-dev/ragkit/pkg/splitter"
	"github.com/ragkit-dev/ragkit/pkg/vectorstore"
)

const (
	// DefaultTopK bounds retrieval when composing reference material for
	// the agent.
	DefaultTopK = 3

	// DefaultSearchTopK bounds retrieval on the standalone search
	// operation.
	DefaultSearchTopK = 5

	// DefaultMinScore excludes weak matches from every retrieval.
	DefaultMinScore = 0.5
)

// Config tunes the retrieval pipeline. Zero values fall back to defaults.
type Config struct {
	TopK           int
	SearchTopK     int
	MinScore       float32
	MaxSegmentSize int
	MaxOverlap     int
}

// Match is one retrieved segment with its similarity score.
type Match struct {
	Content  string  `json:"content"`
	Source   string  `json:"source,omitempty"`
	Position int     `json:"position"`
	Score    float32 `json:"score"`
}

// Service runs ingestion and retrieval against a vector index.
type Service struct {
	embedder embeddings.Service
	store    vectorstore.VectorStore
	split    *splitter.Splitter
	cfg      Config
}

// NewService wires the retrieval pipeline together.
func NewService(embedder embeddings.Service, store vectorstore.VectorStore, cfg Config) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.SearchTopK <= 0 {
		cfg.SearchTopK = DefaultSearchTopK
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinScore
	}
	return &Service{
		embedder: embedder,
		store:    store,
		split:    splitter.New(cfg.MaxSegmentSize, cfg.MaxOverlap),
		cfg:      cfg,
	}
}

// Ingest extracts text from an upload, splits it into segments, embeds every
// segment, and stores the vectors. It returns the number of segments stored.
func (s *Service) Ingest(ctx context.Context, r io.Reader, filename string) (int, error) {
	ctx, span := observability.StartSpan(ctx, "rag.ingest")
	defer span.End()

	text, err := extractText(r, filename)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	segments, err := s.split.Split(text)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("split %s: %w", filename, err)
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("embed %s: %w", filename, err)
	}

	docs := make([]vectorstore.Document, len(segments))
	for i, seg := range segments {
		docs[i] = vectorstore.Document{
			ID:        uuid.NewString(),
			Content:   seg.Text,
			Embedding: vectors[i],
			Source:    filename,
			Position:  i,
		}
	}
	if err := s.store.Upsert(ctx, docs); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("store %s: %w", filename, err)
	}

	observability.SegmentsIngested.Add(float64(len(docs)))
	log.Printf("ingested %s: %d segments", filename, len(docs))
	return len(docs), nil
}

// Search embeds the query once and returns matches at or above the score
// floor, best first. topK <= 0 uses the standalone search default.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	ctx, span := observability.StartSpan(ctx, "rag.search")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("rag: query is empty")
	}
	if topK <= 0 {
		topK = s.cfg.SearchTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.Search(ctx, vectorstore.SearchQuery{
		Embedding: vector,
		TopK:      topK,
		MinScore:  s.cfg.MinScore,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("vector search: %w", err)
	}

	observability.RetrievalMatches.Observe(float64(len(results)))

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			Content:  r.Document.Content,
			Source:   r.Document.Source,
			Position: r.Document.Position,
			Score:    r.Score,
		}
	}
	return matches, nil
}

// BuildContext retrieves reference material for a chat message. It returns
// the matched segments joined into one block, or an empty string when
// nothing clears the score floor so the agent proceeds without references.
func (s *Service) BuildContext(ctx context.Context, query string) (string, error) {
	matches, err := s.Search(ctx, query, s.cfg.TopK)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}

	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Content
	}
	return strings.Join(parts, "\n\n"), nil
}
