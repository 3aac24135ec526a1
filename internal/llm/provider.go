// Package llm wraps the model-generation capability behind a narrow
// interface so the reasoning loop can be tested with a scripted fake.
package llm

import (
	"context"
	"errors"

	"github.com/ragkit-dev/ragkit/agent"
)

// ErrModelInvocation wraps network, timeout, and upstream model failures.
// These abort the current run and surface to the caller; they are not
// retried automatically.
var ErrModelInvocation = errors.New("llm: model invocation failed")

// Provider generates assistant text from a message list.
type Provider interface {
	// Generate returns the model's full response for the conversation.
	Generate(ctx context.Context, messages []agent.Message) (string, error)

	// GenerateStream returns an incremental token stream for the
	// conversation. The stream ends with io.EOF.
	GenerateStream(ctx context.Context, messages []agent.Message) (Stream, error)
}

// Stream produces response text incrementally. Recv returns io.EOF after
// the final token; Close releases the stream early (caller disconnect).
type Stream interface {
	Recv() (string, error)
	Close() error
}
