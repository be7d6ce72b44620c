package store

import (
	"context"
	"sort"
	"sync"

	"retirebot/internal/domain"
)

// MemoryStore implements domain.SessionStore in process memory. It is
// the default backend for tests and for deployments that don't need
// sessions to survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memSession
}

type memSession struct {
	meta  domain.Session
	turns []domain.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memSession)}
}

func (s *MemoryStore) PutSession(ctx context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.ID]; exists {
		return nil
	}
	meta := sess
	meta.Turns = nil
	s.sessions[sess.ID] = &memSession{meta: meta}
	return nil
}

func (s *MemoryStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	meta := ms.meta
	return &meta, nil
}

func (s *MemoryStore) AppendTurn(ctx context.Context, sessionID string, t domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	ms.turns = append(ms.turns, t)
	ms.meta.TurnCount = len(ms.turns)
	if t.Domain != "" {
		ms.meta.LastDomain = t.Domain
	}
	ms.meta.UpdatedAt = t.CreatedAt
	return nil
}

func (s *MemoryStore) Turns(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	turns := ms.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	// Copy so callers never observe later appends.
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, ms := range s.sessions {
		out = append(out, ms.meta)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
