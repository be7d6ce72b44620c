package eval

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"retirebot/internal/knowledge"
	"retirebot/internal/orchestrator"
	"retirebot/internal/reasoner"
	"retirebot/internal/router"
	"retirebot/internal/session"
	"retirebot/internal/specialist"
	"retirebot/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAssistant() *orchestrator.Orchestrator {
	logger := discardLogger()
	sessions := session.NewManager(store.NewMemoryStore(), logger)

	opts := specialist.Options{Reasoner: reasoner.NewTemplate(), Logger: logger}
	registry := specialist.NewRegistry(logger,
		specialist.NewGeneral(opts),
		specialist.NewMedicare(knowledge.NewMedicareInfo(), knowledge.NewMedicarePlans(), opts),
		specialist.NewMedicaid(knowledge.NewMedicaidInfo(), knowledge.NewMedicaidEligibility(), opts),
		specialist.NewLocal(knowledge.NewLocalResources(), opts),
	)

	return orchestrator.New(orchestrator.Config{
		Sessions:      sessions,
		Router:        router.New(router.Config{ConfidenceThreshold: 0.5, Logger: logger}),
		Registry:      registry,
		Logger:        logger,
		Disclaimer:    "Please verify with official sources before making decisions.",
		Apology:       "I'm sorry, I can't help with that right now.",
		HistoryWindow: 10,
	})
}

func TestLoadCases(t *testing.T) {
	input := `{"id": "a", "input": "hello", "must_contain": ["x"]}

{"id": "b", "input": "world", "expected_domains": ["medicare"]}
`
	cases, err := LoadCases(strings.NewReader(input))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].ID != "a" || cases[1].ExpectedDomains[0] != "medicare" {
		t.Fatalf("unexpected cases %+v", cases)
	}
}

func TestLoadCases_RejectsBadInput(t *testing.T) {
	if _, err := LoadCases(strings.NewReader(`{"id": "a"}`)); err == nil {
		t.Fatal("expected error for case without input")
	}
	if _, err := LoadCases(strings.NewReader("not json\n")); err == nil {
		t.Fatal("expected error for malformed line")
	}
	if _, err := LoadCases(strings.NewReader("\n\n")); err == nil {
		t.Fatal("expected error for empty suite")
	}
}

func TestBuiltinCases(t *testing.T) {
	cases, err := BuiltinCases()
	if err != nil {
		t.Fatalf("builtin suite: %v", err)
	}
	if len(cases) < 5 {
		t.Fatalf("expected a real suite, got %d cases", len(cases))
	}
	seen := map[string]bool{}
	for _, c := range cases {
		if seen[c.ID] {
			t.Fatalf("duplicate case id %q", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestRun_BuiltinSuitePasses(t *testing.T) {
	cases, err := BuiltinCases()
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	runner := NewRunner(RunnerConfig{
		Assistant: newAssistant(),
		Out:       &out,
		Logger:    discardLogger(),
	})

	summary, err := runner.Run(context.Background(), cases)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.Passed() {
		t.Fatalf("hard failures %v\n%s", summary.FailedCases, out.String())
	}
	if summary.Total != len(cases) {
		t.Fatalf("expected %d results, got %d", len(cases), summary.Total)
	}
	if !strings.Contains(out.String(), "=== Summary ===") {
		t.Fatalf("missing summary section in report:\n%s", out.String())
	}
}

func TestRun_DetectsMissingPhrase(t *testing.T) {
	runner := NewRunner(RunnerConfig{
		Assistant: newAssistant(),
		Out:       io.Discard,
		Logger:    discardLogger(),
	})

	summary, err := runner.Run(context.Background(), []Case{{
		ID:          "impossible",
		Input:       "What does Medicare Part B cover?",
		MustContain: []string{"this phrase never appears"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Passed() {
		t.Fatal("expected a hard failure")
	}
	if summary.FailedCases[0] != "impossible" {
		t.Fatalf("unexpected failed cases %v", summary.FailedCases)
	}
}

func TestRun_WrongDomainIsHardFailure(t *testing.T) {
	runner := NewRunner(RunnerConfig{
		Assistant: newAssistant(),
		Out:       io.Discard,
		Logger:    discardLogger(),
	})

	summary, err := runner.Run(context.Background(), []Case{{
		ID:              "misroute",
		Input:           "What does Medicare Part B cover?",
		ExpectedDomains: []string{"medicaid"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Passed() {
		t.Fatal("expected routing check to fail")
	}
}

func TestRun_MultiDomainWarning(t *testing.T) {
	runner := NewRunner(RunnerConfig{
		Assistant: newAssistant(),
		Out:       io.Discard,
		Logger:    discardLogger(),
	})

	// The medicare fallback reply never mentions Medicaid or Miami, so
	// the coverage heuristic should warn without failing the case.
	summary, err := runner.Run(context.Background(), []Case{{
		ID:           "multi",
		Input:        "I just moved to Miami and need help understanding both Medicare and Medicaid options",
		IntentType:   "multi_domain",
		ProfileHints: map[string]string{"city": "Miami"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Passed() {
		t.Fatalf("expected no hard failures, got %v", summary.FailedCases)
	}
	if summary.Warnings == 0 {
		t.Fatal("expected a coverage warning")
	}
}
