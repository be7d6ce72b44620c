package domain

import "context"

// SessionStore persists sessions and their append-only turn sequences.
// Implementations must make AppendTurn atomic: the turn and the session
// metadata update commit together or not at all. Serialization of
// concurrent appends to the same session is the session manager's job,
// not the store's.
type SessionStore interface {
	// PutSession inserts the session if absent. Existing sessions are
	// left untouched, so the call is idempotent.
	PutSession(ctx context.Context, s Session) error

	// GetSession returns session metadata (no turns), or nil when the
	// id is unknown.
	GetSession(ctx context.Context, id string) (*Session, error)

	// AppendTurn stores the turn and updates TurnCount, LastDomain (when
	// the turn carries one) and UpdatedAt in one atomic step.
	AppendTurn(ctx context.Context, sessionID string, t Turn) error

	// Turns returns the most recent limit turns oldest-first; limit <= 0
	// means all turns.
	Turns(ctx context.Context, sessionID string, limit int) ([]Turn, error)

	// ListSessions returns up to limit sessions, most recently updated
	// first.
	ListSessions(ctx context.Context, limit int) ([]Session, error)

	// DeleteSession removes a session and its turns.
	DeleteSession(ctx context.Context, id string) error

	Close() error
}
