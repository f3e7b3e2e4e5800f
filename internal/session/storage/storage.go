// Package storage defines the persistence contracts for mentee sessions,
// conversation memory, and telemetry events.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SessionStore persists mentee sessions keyed by user id.
type SessionStore interface {
	// GetSession returns the session for a user or ErrNotFound.
	GetSession(ctx context.Context, userID string) (domain.Session, error)
	// PutSession inserts or replaces a session.
	PutSession(ctx context.Context, sess domain.Session) error
}

// MemoryFragment is one stored conversation snippet with its embedding,
// used for semantic retrieval when building dialogue prompts.
type MemoryFragment struct {
	ID        string
	UserID    string
	Text      string
	Embedding []float32
	Metadata  map[string]string
	CreatedAt time.Time
}

// MemoryStore persists conversation fragments for retrieval.
type MemoryStore interface {
	AppendMemoryFragment(ctx context.Context, fragment MemoryFragment) error
	// ListMemoryFragments returns all fragments for a user, newest last.
	ListMemoryFragments(ctx context.Context, userID string) ([]MemoryFragment, error)
}

// TelemetryEvent records one operational event (turn processed, state
// transition, collaborator failure).
type TelemetryEvent struct {
	Timestamp time.Time
	UserID    string
	Kind      string
	Severity  string
	Detail    string
}

// TelemetryStore persists telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}
