// Package agent defines the conversation message model shared by the
// reasoning loop, the session store, and the consultant service.
package agent

import (
	"fmt"
)

// Role identifies who produced a message.
type Role string

const (
	// RoleUser marks messages sent by the end user (including the
	// observation wrapper the loop feeds back after a tool call in the
	// textual protocol).
	RoleUser Role = "user"

	// RoleAssistant marks raw model responses.
	RoleAssistant Role = "assistant"

	// RoleObservation marks tool results appended by the dispatcher.
	RoleObservation Role = "observation"
)

// Message is a single entry in a conversation. Messages are immutable once
// created and strictly ordered by Index within their session.
type Message struct {
	// Role identifies the producer of the message.
	Role Role `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Index is the message's position in the session, assigned at append
	// time. Indexes keep their original values after window eviction so the
	// retained suffix still reflects production order.
	Index int `json:"index"`
}

// NewMessage creates a message with an unassigned index. The session manager
// assigns the index when the message is appended.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Index: -1}
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleObservation:
		return true
	}
	return false
}

// String returns a short human-readable form for logs.
func (m Message) String() string {
	content := m.Content
	if len(content) > 60 {
		content = content[:57] + "..."
	}
	return fmt.Sprintf("Message{#%d %s: %q}", m.Index, m.Role, content)
}
