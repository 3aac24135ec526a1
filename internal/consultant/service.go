// Package consultant composes retrieval, session memory, and the reasoning
// loop into the conversational service behind the chat endpoints.
package consultant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/ragkit-dev/ragkit/agent"
	"github.com/ragkit-dev/ragkit/agents"
	"github.com/ragkit-dev/ragkit/internal/llm"
	"github.com/ragkit-dev/ragkit/internal/rag"
	"github.com/ragkit-dev/ragkit/pkg/observability"
	"github.com/ragkit-dev/ragkit/pkg/session"
)

// ErrInvalidRequest marks caller mistakes (missing session ID or message).
var ErrInvalidRequest = errors.New("consultant: invalid request")

// Response is the outcome of one synchronous chat turn.
type Response struct {
	SessionID  string `json:"memoryId"`
	Reply      string `json:"reply"`
	Outcome    string `json:"outcome"`
	Iterations int    `json:"iterations"`
}

// Service answers chat turns. The synchronous path runs the full reasoning
// loop with tools; the streaming path generates directly from retrieval and
// history without tool use.
type Service struct {
	provider llm.Provider
	loop     *agents.Loop
	rag      *rag.Service
	sessions *session.Manager
}

// NewService wires the conversational service together.
func NewService(provider llm.Provider, loop *agents.Loop, ragService *rag.Service, sessions *session.Manager) *Service {
	return &Service{
		provider: provider,
		loop:     loop,
		rag:      ragService,
		sessions: sessions,
	}
}

// Chat runs one synchronous turn: load history, retrieve references, run the
// reasoning loop, persist the transcript once. History is not persisted when
// the model invocation fails, so a failed turn leaves the session unchanged.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (Response, error) {
	ctx, span := observability.StartSpan(ctx, "consultant.chat")
	defer span.End()
	start := time.Now()

	if err := validateTurn(sessionID, message); err != nil {
		return Response{}, err
	}

	history, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		observability.ChatRequestsTotal.WithLabelValues("error").Inc()
		return Response{}, fmt.Errorf("load history: %w", err)
	}

	references, err := s.rag.BuildContext(ctx, message)
	if err != nil {
		observability.ChatRequestsTotal.WithLabelValues("error").Inc()
		return Response{}, fmt.Errorf("retrieve references: %w", err)
	}

	task := s.loop.TaskMessage(message, references)
	result, transcript, err := s.loop.Run(ctx, history, task)
	if err != nil {
		span.RecordError(err)
		observability.ChatRequestsTotal.WithLabelValues("error").Inc()
		return Response{}, err
	}

	if _, err := s.sessions.Replace(ctx, sessionID, transcript); err != nil {
		observability.ChatRequestsTotal.WithLabelValues("error").Inc()
		return Response{}, err
	}

	outcome := "answered"
	if result.Kind == agents.Exhausted {
		outcome = "exhausted"
	}
	observability.ChatRequestsTotal.WithLabelValues(outcome).Inc()
	observability.ChatDuration.Observe(time.Since(start).Seconds())
	log.Printf("chat session=%s outcome=%s iterations=%d", sessionID, outcome, result.Iterations)

	return Response{
		SessionID:  sessionID,
		Reply:      result.Text,
		Outcome:    outcome,
		Iterations: result.Iterations,
	}, nil
}

// streamPrompt frames the streaming turn. No tool roster; the streaming path
// answers directly from references and history.
const streamPrompt = "You are a helpful consultant assistant. Answer the question using the conversation so far%s\n\nQuestion: %s"

// ChatStream runs one streaming turn: retrieval and history feed a direct
// model stream, and each chunk goes through send as it arrives. The turn is
// persisted only after the stream completes; a failed or abandoned stream
// leaves the session unchanged.
func (s *Service) ChatStream(ctx context.Context, sessionID, message string, send func(chunk string) error) error {
	ctx, span := observability.StartSpan(ctx, "consultant.chat_stream")
	defer span.End()
	start := time.Now()

	if err := validateTurn(sessionID, message); err != nil {
		return err
	}

	history, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		observability.ChatRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("load history: %w", err)
	}

	references, err := s.rag.BuildContext(ctx, message)
	if err != nil {
		observability.ChatRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("retrieve references: %w", err)
	}

	refsBlock := "."
	if references != "" {
		refsBlock = " and the reference material below.\n\nReference material:\n" + references
	}
	turn := agent.NewMessage(agent.RoleUser, fmt.Sprintf(streamPrompt, refsBlock, message))

	stream, err := s.provider.GenerateStream(ctx, append(append([]agent.Message{}, history...), turn))
	if err != nil {
		span.RecordError(err)
		observability.ChatRequestsTotal.WithLabelValues("error").Inc()
		return err
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			span.RecordError(err)
			observability.ChatRequestsTotal.WithLabelValues("error").Inc()
			return err
		}
		reply.WriteString(chunk)
		if err := send(chunk); err != nil {
			// Client went away; drop the turn rather than persisting a
			// reply nobody saw in full.
			return err
		}
	}

	if _, err := s.sessions.Append(ctx, sessionID, turn, agent.NewMessage(agent.RoleAssistant, reply.String())); err != nil {
		observability.ChatRequestsTotal.WithLabelValues("error").Inc()
		return err
	}

	observability.ChatRequestsTotal.WithLabelValues("answered").Inc()
	observability.ChatDuration.Observe(time.Since(start).Seconds())
	return nil
}

// History returns the persisted transcript for a session.
func (s *Service) History(ctx context.Context, sessionID string) ([]agent.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: memoryId is required", ErrInvalidRequest)
	}
	return s.sessions.Load(ctx, sessionID)
}

// Evict forgets a session entirely.
func (s *Service) Evict(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: memoryId is required", ErrInvalidRequest)
	}
	return s.sessions.Evict(ctx, sessionID)
}

func validateTurn(sessionID, message string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: memoryId is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	return nil
}
