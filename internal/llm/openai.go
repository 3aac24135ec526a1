package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ragkit-dev/ragkit/agent"
)

// OpenAIConfig configures the OpenAI-compatible chat provider. Ollama and
// other compatible servers work by pointing BaseURL at them.
type OpenAIConfig struct {
	// APIKey authenticates against the endpoint (may be a placeholder for
	// local servers).
	APIKey string
	// BaseURL overrides the API endpoint.
	BaseURL string
	// Model is the chat model name.
	Model string
	// Timeout bounds each generation call (default 60s).
	Timeout time.Duration
	// RequestsPerSecond rate-limits calls to the endpoint (0 = unlimited).
	RequestsPerSecond float64
}

// OpenAIProvider implements Provider over the OpenAI chat completions API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewOpenAIProvider creates a provider from config.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		return nil, errors.New("llm: model name is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: timeout,
		limiter: limiter,
	}, nil
}

// Generate returns the model's full response for the conversation.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []agent.Message) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelInvocation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toWire(messages),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelInvocation, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrModelInvocation)
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream returns an incremental token stream for the conversation.
func (p *OpenAIProvider) GenerateStream(ctx context.Context, messages []agent.Message) (Stream, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInvocation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)

	upstream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toWire(messages),
		Stream:   true,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrModelInvocation, err)
	}

	return &openaiStream{upstream: upstream, cancel: cancel}, nil
}

type openaiStream struct {
	upstream *openai.ChatCompletionStream
	cancel   context.CancelFunc
}

func (s *openaiStream) Recv() (string, error) {
	resp, err := s.upstream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("%w: %v", ErrModelInvocation, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *openaiStream) Close() error {
	s.cancel()
	return s.upstream.Close()
}

// toWire maps conversation messages to the chat completions format.
// Observations travel as user messages, matching the textual protocol the
// loop speaks.
func toWire(messages []agent.Message) []openai.ChatCompletionMessage {
	wire := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == agent.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		wire = append(wire, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return wire
}
