package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"retirebot/internal/bus"
	"retirebot/internal/domain"
	"retirebot/internal/knowledge"
	"retirebot/internal/reasoner"
	"retirebot/internal/router"
	"retirebot/internal/session"
	"retirebot/internal/specialist"
	"retirebot/internal/store"
)

const (
	testDisclaimer = "Please verify with official sources before making decisions."
	testApology    = "I'm sorry, I can't help with that right now."
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(r domain.Reasoner) (*Orchestrator, *session.Manager) {
	logger := discardLogger()
	sessions := session.NewManager(store.NewMemoryStore(), logger)

	opts := specialist.Options{Reasoner: r, Logger: logger}
	registry := specialist.NewRegistry(logger,
		specialist.NewGeneral(opts),
		specialist.NewMedicare(knowledge.NewMedicareInfo(), knowledge.NewMedicarePlans(), opts),
		specialist.NewMedicaid(knowledge.NewMedicaidInfo(), knowledge.NewMedicaidEligibility(), opts),
		specialist.NewLocal(knowledge.NewLocalResources(), opts),
	)

	orch := New(Config{
		Sessions:      sessions,
		Router:        router.New(router.Config{ConfidenceThreshold: 0.5, Logger: logger}),
		Registry:      registry,
		Logger:        logger,
		Disclaimer:    testDisclaimer,
		Apology:       testApology,
		HistoryWindow: 10,
	})
	return orch, sessions
}

func TestHandleMessage_MedicareQuestion(t *testing.T) {
	orch, sessions := newOrchestrator(reasoner.NewTemplate())
	ctx := context.Background()

	res, err := orch.HandleMessage(ctx, "s1", "What does Medicare Part A cover?")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Decision.Domain != domain.DomainMedicare {
		t.Fatalf("expected medicare route, got %q", res.Decision.Domain)
	}
	if !strings.Contains(res.Reply, "Hospital Insurance") {
		t.Fatalf("expected part a content, got %q", res.Reply)
	}
	if !strings.Contains(res.Reply, testDisclaimer) {
		t.Fatalf("expected disclaimer appended, got %q", res.Reply)
	}

	// Both turns recorded, assistant turn tagged with the domain.
	turns, err := sessions.History(ctx, "s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != domain.RoleUser || turns[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", turns)
	}
	if turns[1].Domain != domain.DomainMedicare {
		t.Fatalf("assistant turn domain = %q", turns[1].Domain)
	}
}

// A follow-up without a domain word stays on the last active domain.
func TestHandleMessage_ContinuityAcrossTurns(t *testing.T) {
	orch, _ := newOrchestrator(reasoner.NewTemplate())
	ctx := context.Background()

	if _, err := orch.HandleMessage(ctx, "s1", "Tell me about Medicare Part A"); err != nil {
		t.Fatal(err)
	}
	res, err := orch.HandleMessage(ctx, "s1", "What about Part B?")
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision.Domain != domain.DomainMedicare {
		t.Fatalf("expected continuity to keep medicare, got %q", res.Decision.Domain)
	}
	if !strings.Contains(res.Reply, "Medical Insurance") {
		t.Fatalf("expected part b content, got %q", res.Reply)
	}
}

func TestHandleMessage_LocalResources(t *testing.T) {
	orch, _ := newOrchestrator(reasoner.NewTemplate())

	res, err := orch.HandleMessage(context.Background(), "s1", "Find senior centers in Tampa")
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision.Domain != domain.DomainLocalResources {
		t.Fatalf("expected local_resources, got %q", res.Decision.Domain)
	}
	if !strings.Contains(res.Reply, "Hyde Park") {
		t.Fatalf("expected tampa listings, got %q", res.Reply)
	}
}

func TestHandleMessage_DisclaimerAppendedOnce(t *testing.T) {
	orch, _ := newOrchestrator(reasoner.NewTemplate())

	res, err := orch.HandleMessage(context.Background(), "s1", "What are the costs of Medicare?")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(res.Reply, testDisclaimer); n != 1 {
		t.Fatalf("expected disclaimer exactly once, found %d times in %q", n, res.Reply)
	}
}

func TestHandleMessage_GeneralNoDisclaimer(t *testing.T) {
	orch, sessions := newOrchestrator(reasoner.NewTemplate())
	ctx := context.Background()

	res, err := orch.HandleMessage(ctx, "s1", "Hello there!")
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision.Domain != domain.DomainGeneral {
		t.Fatalf("expected general route, got %q", res.Decision.Domain)
	}
	if strings.Contains(res.Reply, testDisclaimer) {
		t.Fatalf("general reply must not carry the disclaimer: %q", res.Reply)
	}

	// General turns never set a last active domain.
	sess, err := sessions.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if sess.LastDomain != "" {
		t.Fatalf("expected no last domain, got %q", sess.LastDomain)
	}
}

type failingReasoner struct{}

func (f *failingReasoner) Name() string                      { return "failing" }
func (f *failingReasoner) Healthy(ctx context.Context) error { return errors.New("down") }
func (f *failingReasoner) Reason(ctx context.Context, req domain.ReasonRequest) (*domain.ReasonResponse, error) {
	return nil, errors.New("reasoner down")
}

func TestHandleMessage_ReasonerFailureApologizes(t *testing.T) {
	orch, sessions := newOrchestrator(&failingReasoner{})
	ctx := context.Background()

	res, err := orch.HandleMessage(ctx, "s1", "What does Medicare Part A cover?")
	if err != nil {
		t.Fatalf("failure path must still produce a reply: %v", err)
	}
	if !res.Failed {
		t.Fatal("expected result to be marked failed")
	}
	if res.Reply != testApology {
		t.Fatalf("expected apology, got %q", res.Reply)
	}

	// The user message and the apology are both in the transcript.
	turns, err := sessions.History(ctx, "s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[1].Content != testApology {
		t.Fatalf("apology not recorded: %q", turns[1].Content)
	}

	// The apology never shifts continuity.
	sess, err := sessions.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if sess.LastDomain != "" {
		t.Fatalf("expected last domain untouched, got %q", sess.LastDomain)
	}
}

func TestHandleMessage_SequencesAcrossManyTurns(t *testing.T) {
	orch, sessions := newOrchestrator(reasoner.NewTemplate())
	ctx := context.Background()

	inputs := []string{
		"What is Medicare Part A?",
		"Am I eligible for Medicaid?",
		"Find senior centers in Miami",
	}
	for _, in := range inputs {
		if _, err := orch.HandleMessage(ctx, "s1", in); err != nil {
			t.Fatalf("handle %q: %v", in, err)
		}
	}

	turns, err := sessions.History(ctx, "s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != len(inputs)*2 {
		t.Fatalf("expected %d turns, got %d", len(inputs)*2, len(turns))
	}
	for i, turn := range turns {
		if turn.Seq != i+1 {
			t.Fatalf("turn %d has seq %d", i, turn.Seq)
		}
	}
}

func TestLoop_RoundTripThroughBus(t *testing.T) {
	orch, _ := newOrchestrator(reasoner.NewTemplate())
	logger := discardLogger()
	b := bus.New(16, logger)
	defer b.Close()

	replies := make(chan domain.OutboundMessage, 1)
	b.OnOutbound("cli", func(msg domain.OutboundMessage) {
		replies <- msg
	})

	loop := NewLoop(LoopConfig{Orchestrator: orch, Bus: b, Logger: logger, Concurrency: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	b.Publish(domain.InboundMessage{
		Channel:   "cli",
		ChatID:    "local",
		SenderID:  "user",
		Content:   "What is Medicare Part D?",
		Timestamp: time.Now(),
	})

	select {
	case msg := <-replies:
		if msg.Failed {
			t.Fatalf("unexpected failed reply: %q", msg.Content)
		}
		if !strings.Contains(msg.Content, "Prescription Drug") {
			t.Fatalf("expected part d content, got %q", msg.Content)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reply on the bus")
	}
}

func TestRateLimiter_BurstThenWait(t *testing.T) {
	rl := NewRateLimiter(2, 600) // 10/sec refill keeps the test fast
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	// Third call needs a refill: at 10 tokens/sec that is ~100ms.
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("expected third acquire to wait, took %v", elapsed)
	}
}

func TestRateLimiter_ContextCancel(t *testing.T) {
	rl := NewRateLimiter(1, 1) // very slow refill
	ctx := context.Background()
	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := rl.Wait(cancelCtx); err == nil {
		t.Fatal("expected context deadline to abort the wait")
	}
}
