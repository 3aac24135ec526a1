package llm

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ragkit-dev/ragkit/agent"
)

// ScriptedProvider replays canned responses in order. It is the test double
// for the reasoning loop and the consultant service.
type ScriptedProvider struct {
	mu        sync.Mutex
	responses []string
	calls     int

	// Err, when set, is returned by every call instead of a response.
	Err error

	// Transcripts records the message list of each call for assertions.
	Transcripts [][]agent.Message
}

// NewScriptedProvider creates a provider that returns the given responses
// one per Generate call.
func NewScriptedProvider(responses ...string) *ScriptedProvider {
	return &ScriptedProvider{responses: responses}
}

// Calls returns how many generations have been requested.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *ScriptedProvider) next(messages []agent.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]agent.Message, len(messages))
	copy(snapshot, messages)
	p.Transcripts = append(p.Transcripts, snapshot)

	if p.Err != nil {
		return "", p.Err
	}
	if p.calls >= len(p.responses) {
		return "", fmt.Errorf("%w: script exhausted after %d calls", ErrModelInvocation, p.calls)
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

// Generate returns the next scripted response.
func (p *ScriptedProvider) Generate(_ context.Context, messages []agent.Message) (string, error) {
	return p.next(messages)
}

// GenerateStream returns the next scripted response split into word-sized
// chunks.
func (p *ScriptedProvider) GenerateStream(_ context.Context, messages []agent.Message) (Stream, error) {
	resp, err := p.next(messages)
	if err != nil {
		return nil, err
	}
	return &scriptedStream{text: resp}, nil
}

type scriptedStream struct {
	text string
	pos  int
}

// Recv emits the response a few bytes at a time to exercise accumulation.
func (s *scriptedStream) Recv() (string, error) {
	if s.pos >= len(s.text) {
		return "", io.EOF
	}
	end := s.pos + 4
	if end > len(s.text) {
		end = len(s.text)
	}
	chunk := s.text[s.pos:end]
	s.pos = end
	return chunk, nil
}

func (s *scriptedStream) Close() error {
	s.pos = len(s.text)
	return nil
}
