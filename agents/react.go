// Package agents implements the reasoning/acting loop controller: a bounded
// state machine alternating model calls, response classification, and tool
// dispatch.
package agents

import (
	"context"
	"fmt"
	"log"

	"github.com/ragkit-dev/ragkit/agent"
	"github.com/ragkit-dev/ragkit/internal/llm"
	"github.com/ragkit-dev/ragkit/pkg/observability"
	"github.com/ragkit-dev/ragkit/pkg/tools"
)

// DefaultMaxIterations bounds the loop regardless of model output.
const DefaultMaxIterations = 5

// TimeoutNotice is returned verbatim when the iteration bound is reached
// without an answer. Callers display it as-is rather than retrying.
const TimeoutNotice = "I could not finish this task within the step limit. Please simplify the request or split it into smaller steps."

// ResultKind distinguishes the two normal loop outcomes.
type ResultKind int

const (
	// Answered means the model produced a final answer.
	Answered ResultKind = iota
	// Exhausted means the iteration bound was reached first. This is a
	// normal outcome, not a failure.
	Exhausted
)

// Result is the outcome of one loop run.
type Result struct {
	Kind ResultKind
	// Text is the final answer, or TimeoutNotice when exhausted.
	Text string
	// Iterations is the number of model calls made.
	Iterations int
}

const systemPrompt = `You are a helpful consultant assistant that can use tools to complete tasks.

Think and act in the following format:

Thought: reason about what to do next
Action: the tool to use, written as tool_name(arguments)
Observation: [the system fills in the tool result]
... (Thought/Action/Observation repeat as needed)
Thought: I now know the final answer
Answer: [the final answer]

Available tools:
%s`

// Loop runs the reasoning/acting protocol over a provider and a tool
// registry. A Loop is stateless and safe for concurrent runs.
type Loop struct {
	provider      llm.Provider
	registry      *tools.Registry
	maxIterations int
}

// NewLoop creates a loop controller. A non-positive maxIterations falls
// back to DefaultMaxIterations.
func NewLoop(provider llm.Provider, registry *tools.Registry, maxIterations int) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{provider: provider, registry: registry, maxIterations: maxIterations}
}

// TaskMessage renders the user turn the loop appends on entry: the system
// instruction (with the tool roster), optional reference material from
// retrieval, and the task itself.
func (l *Loop) TaskMessage(task, references string) agent.Message {
	prompt := fmt.Sprintf(systemPrompt, l.registry.Roster())
	if references != "" {
		prompt += "\nReference material:\n" + references + "\n"
	}
	return agent.NewMessage(agent.RoleUser, prompt+"\nTask: "+task)
}

// Run executes the loop: model call, classification, then tool dispatch or
// termination. It returns the outcome and the full mutated message list,
// which the caller persists once the run concludes. A model failure aborts
// the run with an error; tool failures never do.
//
// When a response carries neither marker the loop continues without
// appending anything, so a deterministic model can repeat itself until the
// iteration bound; that behavior is intentional.
func (l *Loop) Run(ctx context.Context, history []agent.Message, task agent.Message) (Result, []agent.Message, error) {
	ctx, span := observability.StartSpan(ctx, "agents.react.run")
	defer span.End()

	messages := make([]agent.Message, 0, len(history)+2)
	messages = append(messages, history...)
	messages = append(messages, task)

	for i := 0; i < l.maxIterations; i++ {
		response, err := l.provider.Generate(ctx, messages)
		if err != nil {
			span.RecordError(err)
			return Result{}, nil, fmt.Errorf("iteration %d: %w", i+1, err)
		}
		messages = append(messages, agent.NewMessage(agent.RoleAssistant, response))
		observability.LoopIterations.Inc()

		switch c := Classify(response); c.Kind {
		case ClassAnswer:
			return Result{Kind: Answered, Text: c.Text, Iterations: i + 1}, messages, nil

		case ClassAction:
			observation := l.registry.Dispatch(ctx, c.Text)
			log.Printf("react: action %q -> %q", c.Text, truncate(observation, 120))
			messages = append(messages, agent.NewMessage(agent.RoleObservation, "Observation: "+observation))

		case ClassContinue:
			// Non-actionable thought; loop again with no new state.
		}
	}

	return Result{Kind: Exhausted, Text: TimeoutNotice, Iterations: l.maxIterations}, messages, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
