package session

import (
	"context"
	"fmt"

	"github.com/ragkit-dev/ragkit/agent"
)

// Manager applies the message window on top of a Store. After every mutation
// the retained history is the most recently appended windowMax messages in
// original order; older messages are evicted first.
type Manager struct {
	store     Store
	windowMax int
}

// NewManager creates a Manager. A non-positive windowMax falls back to
// DefaultWindowMax.
func NewManager(store Store, windowMax int) *Manager {
	if windowMax <= 0 {
		windowMax = DefaultWindowMax
	}
	return &Manager{store: store, windowMax: windowMax}
}

// WindowMax returns the configured message bound.
func (m *Manager) WindowMax() int {
	return m.windowMax
}

// Load returns the persisted history for a session, empty for an unknown or
// expired session.
func (m *Manager) Load(ctx context.Context, sessionID string) ([]agent.Message, error) {
	return m.store.Load(ctx, sessionID)
}

// Append loads the history, appends the given messages with sequential
// indexes, trims to the window, and writes the result back. This is a
// read-modify-write cycle; concurrent appends to the same session race at
// full-list granularity (last write wins).
func (m *Manager) Append(ctx context.Context, sessionID string, messages ...agent.Message) ([]agent.Message, error) {
	history, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	next := 0
	if len(history) > 0 {
		next = history[len(history)-1].Index + 1
	}
	for _, msg := range messages {
		msg.Index = next
		next++
		history = append(history, msg)
	}

	history = m.trim(history)

	if err := m.store.Replace(ctx, sessionID, history); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", sessionID, err)
	}
	return history, nil
}

// Replace persists a fully rebuilt history (as the loop controller produces
// it), trimming to the window first. Message indexes are assigned for any
// message still carrying the unassigned marker.
func (m *Manager) Replace(ctx context.Context, sessionID string, messages []agent.Message) ([]agent.Message, error) {
	next := 0
	for i := range messages {
		if messages[i].Index < 0 {
			messages[i].Index = next
		}
		next = messages[i].Index + 1
	}

	messages = m.trim(messages)

	if err := m.store.Replace(ctx, sessionID, messages); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", sessionID, err)
	}
	return messages, nil
}

// Evict forgets a session entirely.
func (m *Manager) Evict(ctx context.Context, sessionID string) error {
	return m.store.Evict(ctx, sessionID)
}

func (m *Manager) trim(history []agent.Message) []agent.Message {
	if len(history) <= m.windowMax {
		return history
	}
	return history[len(history)-m.windowMax:]
}
