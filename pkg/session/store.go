// Package session provides windowed, persisted conversation memory keyed by
// an opaque session identifier.
//
// The storage model is whole-list read-modify-write: a writer loads the full
// history, mutates it in memory, and writes it back under the same key with a
// refreshed expiration. Two concurrent writers to the same session therefore
// race at full-list granularity and the last write wins; the loser's messages
// are silently lost. Callers needing stronger consistency must serialize
// access per session themselves.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/ragkit-dev/ragkit/agent"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("session: store closed")

const (
	// DefaultWindowMax is the default maximum number of retained messages.
	DefaultWindowMax = 20

	// DefaultTTL is the default session expiration. A session idle for
	// this duration is implicitly forgotten.
	DefaultTTL = 24 * time.Hour
)

// Store persists full message histories keyed by session ID.
type Store interface {
	// Load returns the stored history, or an empty slice for an unknown
	// or expired session.
	Load(ctx context.Context, sessionID string) ([]agent.Message, error)

	// Replace overwrites the stored history and refreshes the expiration.
	Replace(ctx context.Context, sessionID string, messages []agent.Message) error

	// Evict removes the session entirely.
	Evict(ctx context.Context, sessionID string) error

	// Close releases resources held by the store.
	Close() error
}
