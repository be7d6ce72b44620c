package reasoner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retirebot/internal/config"
	"retirebot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTemplate_RendersKnowledge(t *testing.T) {
	tmpl := NewTemplate()
	resp, err := tmpl.Reason(context.Background(), domain.ReasonRequest{
		System:    "You are a Medicare specialist.",
		Knowledge: "Medicare Part B covers doctor visits.",
		Input:     "What does Part B cover?",
	})
	if err != nil {
		t.Fatalf("reason: %v", err)
	}
	if !strings.Contains(resp.Text, "Part B covers doctor visits") {
		t.Fatalf("expected knowledge in reply, got %q", resp.Text)
	}
}

func TestTemplate_NoKnowledgeAsksForDetail(t *testing.T) {
	tmpl := NewTemplate()
	resp, err := tmpl.Reason(context.Background(), domain.ReasonRequest{Input: "hello"})
	if err != nil {
		t.Fatalf("reason: %v", err)
	}
	if !strings.Contains(resp.Text, "Medicare") {
		t.Fatalf("expected guidance reply, got %q", resp.Text)
	}
}

type stubReasoner struct {
	name string
	text string
	err  error
}

func (s *stubReasoner) Name() string                          { return s.name }
func (s *stubReasoner) Healthy(ctx context.Context) error     { return s.err }
func (s *stubReasoner) Reason(ctx context.Context, req domain.ReasonRequest) (*domain.ReasonResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ReasonResponse{Text: s.text, Model: s.name}, nil
}

func TestFailover_UsesFirstHealthy(t *testing.T) {
	f := NewFailover([]domain.Reasoner{
		&stubReasoner{name: "a", text: "from a"},
		&stubReasoner{name: "b", text: "from b"},
	}, discardLogger())

	resp, err := f.Reason(context.Background(), domain.ReasonRequest{Input: "x"})
	if err != nil {
		t.Fatalf("reason: %v", err)
	}
	if resp.Text != "from a" {
		t.Fatalf("expected first reasoner, got %q", resp.Text)
	}
}

func TestFailover_FallsBackOnError(t *testing.T) {
	f := NewFailover([]domain.Reasoner{
		&stubReasoner{name: "a", err: errors.New("boom")},
		&stubReasoner{name: "b", text: "from b"},
	}, discardLogger())

	resp, err := f.Reason(context.Background(), domain.ReasonRequest{Input: "x"})
	if err != nil {
		t.Fatalf("reason: %v", err)
	}
	if resp.Text != "from b" {
		t.Fatalf("expected fallback reasoner, got %q", resp.Text)
	}
}

func TestFailover_AllFail(t *testing.T) {
	f := NewFailover([]domain.Reasoner{
		&stubReasoner{name: "a", err: errors.New("boom")},
		&stubReasoner{name: "b", err: errors.New("bang")},
	}, discardLogger())

	if _, err := f.Reason(context.Background(), domain.ReasonRequest{Input: "x"}); err == nil {
		t.Fatal("expected error when every reasoner fails")
	}
}

func TestOpenAI_Reason(t *testing.T) {
	var gotBody oaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Part B covers doctor visits."}},
			},
		})
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", APIBase: srv.URL, Model: "gpt-4o-mini", Logger: discardLogger()})
	resp, err := o.Reason(context.Background(), domain.ReasonRequest{
		System:    "You are a Medicare specialist.",
		Knowledge: "Part B facts here.",
		History:   []domain.Turn{{Role: domain.RoleUser, Content: "hi"}, {Role: domain.RoleAssistant, Content: "hello"}},
		Input:     "What does Part B cover?",
	})
	if err != nil {
		t.Fatalf("reason: %v", err)
	}
	if resp.Text != "Part B covers doctor visits." {
		t.Fatalf("unexpected reply %q", resp.Text)
	}

	// System message carries the persona and the knowledge context.
	if len(gotBody.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Role != "system" || !strings.Contains(gotBody.Messages[0].Content, "Part B facts") {
		t.Fatalf("system message missing knowledge: %+v", gotBody.Messages[0])
	}
	if gotBody.Messages[2].Role != "assistant" {
		t.Fatalf("history roles not mapped: %+v", gotBody.Messages)
	}
}

func TestOpenAI_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "k", APIBase: srv.URL, Logger: discardLogger()})
	if _, err := o.Reason(context.Background(), domain.ReasonRequest{Input: "x"}); err == nil {
		t.Fatal("expected error on 400 response")
	}
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.General.DefaultReasoner = "template"
	cfg.General.FailoverChain = nil
	cfg.Reasoners = map[string]config.ReasonerConfig{
		"template": {Enabled: true},
		"openai":   {Enabled: false},
	}
	return cfg
}

func TestFactory_GetCachesInstances(t *testing.T) {
	f := NewFactory(testConfig(), discardLogger())
	ctx := context.Background()

	a, err := f.Get(ctx, "template")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, err := f.Get(ctx, "template")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if a != b {
		t.Fatal("expected cached instance to be reused")
	}
}

func TestFactory_DefaultWhenNameEmpty(t *testing.T) {
	f := NewFactory(testConfig(), discardLogger())
	r, err := f.Get(context.Background(), "")
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if r.Name() != "template" {
		t.Fatalf("expected default template, got %q", r.Name())
	}
}

func TestFactory_DisabledAndUnknown(t *testing.T) {
	f := NewFactory(testConfig(), discardLogger())
	if _, err := f.Get(context.Background(), "openai"); err == nil {
		t.Fatal("expected error for disabled reasoner")
	}
	if _, err := f.Get(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown reasoner")
	}
}

func TestFactory_ChainSkipsUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.General.FailoverChain = []string{"openai", "template"}
	f := NewFactory(cfg, discardLogger())

	r, err := f.Chain(context.Background())
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	// openai is disabled, so the chain collapses to template alone.
	if r.Name() != "template" {
		t.Fatalf("expected template, got %q", r.Name())
	}
}
