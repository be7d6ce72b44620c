// Package session owns conversation state: append-only turn sequences
// keyed by an opaque session id.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"retirebot/internal/domain"

	"github.com/google/uuid"
)

// Manager is the only component allowed to mutate session state. Appends
// against the same session id serialize on a per-id lock so sequence
// numbers never collide or gap; different sessions proceed independently.
type Manager struct {
	store  domain.SessionStore
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-session append locks
}

func NewManager(store domain.SessionStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding one session id, creating it on
// first use. The outer lock is held only for the map access.
func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// Create allocates a new empty session with a generated id.
func (m *Manager) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	now := time.Now()
	if err := m.store.PutSession(ctx, domain.Session{ID: id, CreatedAt: now, UpdatedAt: now}); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	m.logger.Info("session created", "session", id)
	return id, nil
}

// GetOrCreate returns the session state for id, creating an empty
// session when absent. Safe to call repeatedly with the same id; an
// existing session's history is never reset.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if sess != nil {
		return sess, nil
	}

	// Create under the per-id lock; another caller may be racing us.
	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()

	sess, err = m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}

	now := time.Now()
	created := domain.Session{ID: id, CreatedAt: now, UpdatedAt: now}
	if err := m.store.PutSession(ctx, created); err != nil {
		return nil, fmt.Errorf("create session %s: %w", id, err)
	}
	m.logger.Info("session created", "session", id)
	return &created, nil
}

// AppendTurn assigns the next sequence number and commits the turn.
// Returns domain.ErrSessionNotFound when the id was never created. The
// lock covers only the sequence assignment and store write, never any
// provider or reasoner call.
func (m *Manager) AppendTurn(ctx context.Context, sessionID string, role domain.Role, content string, d domain.Domain) (*domain.Turn, error) {
	l := m.lockFor(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}
	if sess == nil {
		return nil, domain.ErrSessionNotFound
	}

	turn := domain.Turn{
		Seq:       sess.TurnCount + 1,
		Role:      role,
		Content:   content,
		Domain:    d,
		CreatedAt: time.Now(),
	}
	if err := m.store.AppendTurn(ctx, sessionID, turn); err != nil {
		return nil, fmt.Errorf("append turn %d to %s: %w", turn.Seq, sessionID, err)
	}
	return &turn, nil
}

// History returns the most recent limit turns oldest-first; limit <= 0
// means all turns. Each call is an independent snapshot of the state at
// call time, not a live view.
func (m *Manager) History(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	return m.store.Turns(ctx, sessionID, limit)
}

// Snapshot returns session metadata with the most recent historyLimit
// turns loaded, for the router and responders to read.
func (m *Manager) Snapshot(ctx context.Context, sessionID string, historyLimit int) (*domain.Session, error) {
	sess, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrSessionNotFound
	}
	turns, err := m.store.Turns(ctx, sessionID, historyLimit)
	if err != nil {
		return nil, err
	}
	sess.Turns = turns
	return sess, nil
}

// Reset deletes a session and its turns, starting the conversation fresh.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	l := m.lockFor(sessionID)
	l.Lock()
	defer l.Unlock()

	if err := m.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session %s: %w", sessionID, err)
	}
	m.logger.Info("session reset", "session", sessionID)
	return nil
}

// List returns up to limit sessions, most recently updated first.
func (m *Manager) List(ctx context.Context, limit int) ([]domain.Session, error) {
	return m.store.ListSessions(ctx, limit)
}
