package embeddings

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

// maxBatchSize caps inputs per embeddings API request; larger batches are
// split and run concurrently.
const maxBatchSize = 64

// OpenAIConfig configures the OpenAI-compatible embedding service.
type OpenAIConfig struct {
	// APIKey authenticates against the endpoint.
	APIKey string
	// BaseURL overrides the API endpoint (Ollama-compatible servers).
	BaseURL string
	// Model is the embedding model name.
	Model string
	// Dimensions is the expected vector dimension.
	Dimensions int
}

// embeddingsClient is the slice of the OpenAI client the service uses;
// narrow for testability.
type embeddingsClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIService implements Service over the OpenAI embeddings API.
type OpenAIService struct {
	client     embeddingsClient
	model      string
	dimensions int
}

// NewOpenAIService creates an embedding service from config.
func NewOpenAIService(cfg OpenAIConfig) (*OpenAIService, error) {
	if cfg.Model == "" {
		return nil, errors.New("embeddings: model name is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, errors.New("embeddings: dimensions must be positive")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIService{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Dimensions returns the configured vector dimension.
func (s *OpenAIService) Dimensions() int { return s.dimensions }

// ModelName returns the embedding model name.
func (s *OpenAIService) ModelName() string { return s.model }

// Embed generates the embedding for a single text.
func (s *OpenAIService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts. Inputs beyond the API
// batch cap are split across concurrent requests; the result preserves
// input order with one vector per text.
func (s *OpenAIService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		g.Go(func() error {
			batch, err := s.embedBatch(ctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (s *OpenAIService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	// The API may return data out of order; Index is authoritative.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != s.dimensions {
			return nil, fmt.Errorf("embeddings: vector dimension %d does not match configured %d", len(d.Embedding), s.dimensions)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
