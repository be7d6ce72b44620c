package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"retirebot/internal/domain"
	"retirebot/internal/store"
)

func newManager() *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store.NewMemoryStore(), logger)
}

func TestCreate_ReturnsUniqueIDs(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	a, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct session ids, got %q twice", a)
	}
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	if _, err := m.GetOrCreate(ctx, "s1"); err != nil {
		t.Fatalf("first get-or-create: %v", err)
	}
	if _, err := m.AppendTurn(ctx, "s1", domain.RoleUser, "hello", ""); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Second call must reflect the appended turn, never reset history.
	sess, err := m.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("second get-or-create: %v", err)
	}
	if sess.TurnCount != 1 {
		t.Fatalf("expected turn count 1, got %d", sess.TurnCount)
	}
}

func TestAppendTurn_SequenceNumbers(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	if _, err := m.GetOrCreate(ctx, "s1"); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 4; i++ {
		turn, err := m.AppendTurn(ctx, "s1", domain.RoleUser, "msg", "")
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if turn.Seq != i {
			t.Fatalf("expected seq %d, got %d", i, turn.Seq)
		}
	}
}

func TestAppendTurn_UnknownSession(t *testing.T) {
	m := newManager()
	_, err := m.AppendTurn(context.Background(), "never-created", domain.RoleUser, "x", "")
	if err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppendTurn_TracksLastDomain(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	if _, err := m.GetOrCreate(ctx, "s1"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.AppendTurn(ctx, "s1", domain.RoleUser, "q", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AppendTurn(ctx, "s1", domain.RoleAssistant, "a", domain.DomainMedicare); err != nil {
		t.Fatal(err)
	}

	sess, err := m.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if sess.LastDomain != domain.DomainMedicare {
		t.Fatalf("expected last domain medicare, got %q", sess.LastDomain)
	}
}

func TestHistory_RoundTrip(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	if _, err := m.GetOrCreate(ctx, "s1"); err != nil {
		t.Fatal(err)
	}

	contents := []string{"one", "two", "three"}
	for _, c := range contents {
		if _, err := m.AppendTurn(ctx, "s1", domain.RoleUser, c, ""); err != nil {
			t.Fatal(err)
		}
	}

	turns, err := m.History(ctx, "s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != len(contents) {
		t.Fatalf("expected %d turns, got %d", len(contents), len(turns))
	}
	for i, c := range contents {
		if turns[i].Content != c {
			t.Fatalf("turn %d: expected %q, got %q", i, c, turns[i].Content)
		}
	}
}

// Concurrent appends against one session must produce a strictly
// increasing run starting at 1 with no gaps or duplicates.
func TestAppendTurn_ConcurrentSameSession(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	if _, err := m.GetOrCreate(ctx, "s1"); err != nil {
		t.Fatal(err)
	}

	const n = 50
	seqs := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			turn, err := m.AppendTurn(ctx, "s1", domain.RoleUser, "concurrent", "")
			if err != nil {
				t.Errorf("append: %v", err)
				return
			}
			seqs <- turn.Seq
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int]bool)
	for s := range seqs {
		if seen[s] {
			t.Fatalf("duplicate sequence number %d", s)
		}
		seen[s] = true
	}
	for i := 1; i <= n; i++ {
		if !seen[i] {
			t.Fatalf("missing sequence number %d", i)
		}
	}
}

// Appends against different sessions must not interfere with each
// other's numbering.
func TestAppendTurn_ConcurrentDifferentSessions(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		if _, err := m.GetOrCreate(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	const perSession = 20
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < perSession; i++ {
				if _, err := m.AppendTurn(ctx, id, domain.RoleUser, "x", ""); err != nil {
					t.Errorf("append to %s: %v", id, err)
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		turns, err := m.History(ctx, id, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(turns) != perSession {
			t.Fatalf("session %s: expected %d turns, got %d", id, perSession, len(turns))
		}
		for i, turn := range turns {
			if turn.Seq != i+1 {
				t.Fatalf("session %s: expected seq %d, got %d", id, i+1, turn.Seq)
			}
		}
	}
}

func TestReset_StartsFresh(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	if _, err := m.GetOrCreate(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AppendTurn(ctx, "s1", domain.RoleUser, "x", ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Reset(ctx, "s1"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	sess, err := m.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if sess.TurnCount != 0 {
		t.Fatalf("expected empty session after reset, got %d turns", sess.TurnCount)
	}
}

func TestSnapshot_LoadsRecentTurns(t *testing.T) {
	m := newManager()
	ctx := context.Background()
	if _, err := m.GetOrCreate(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := m.AppendTurn(ctx, "s1", domain.RoleUser, "x", ""); err != nil {
			t.Fatal(err)
		}
	}

	sess, err := m.Snapshot(ctx, "s1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Turns) != 2 {
		t.Fatalf("expected 2 loaded turns, got %d", len(sess.Turns))
	}
	if sess.TurnCount != 5 {
		t.Fatalf("expected turn count 5, got %d", sess.TurnCount)
	}
}
