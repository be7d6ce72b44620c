package router

import (
	"io"
	"log/slog"
	"testing"

	"retirebot/internal/config"
	"retirebot/internal/domain"
)

func newRouter() *Router {
	return New(Config{
		ConfidenceThreshold: 0.5,
		Logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRoute_MedicareKeywords(t *testing.T) {
	r := newRouter()
	d := r.Route(&domain.Session{ID: "s1"}, "What is Medicare Part A?")
	if d.Domain != domain.DomainMedicare {
		t.Fatalf("expected medicare, got %q (%s)", d.Domain, d.Rationale)
	}
	if d.Confidence < r.Threshold() {
		t.Fatalf("expected confidence >= threshold, got %.2f", d.Confidence)
	}
}

func TestRoute_MedicaidKeywords(t *testing.T) {
	r := newRouter()
	d := r.Route(&domain.Session{ID: "s1"}, "Am I eligible for Florida Medicaid long-term care?")
	if d.Domain != domain.DomainMedicaid {
		t.Fatalf("expected medicaid, got %q (%s)", d.Domain, d.Rationale)
	}
}

func TestRoute_LocalResources(t *testing.T) {
	r := newRouter()
	d := r.Route(&domain.Session{ID: "s1"}, "Find senior centers near 33101")
	if d.Domain != domain.DomainLocalResources {
		t.Fatalf("expected local_resources, got %q (%s)", d.Domain, d.Rationale)
	}
}

func TestRoute_NoSignalsFallsBack(t *testing.T) {
	r := newRouter()
	d := r.Route(&domain.Session{ID: "s1"}, "Hello there, how are you today?")
	if d.Domain != domain.DomainGeneral {
		t.Fatalf("expected general fallback, got %q", d.Domain)
	}
	if d.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %.2f", d.Confidence)
	}
	if d.Rationale == "" {
		t.Fatal("rationale must be populated even for the fallback")
	}
}

// Continuity bias: an ambiguous follow-up with no strong signal for
// another domain stays on the conversation's last active domain, with
// confidence at or above the threshold.
func TestRoute_ContinuityBias(t *testing.T) {
	r := newRouter()
	sess := &domain.Session{ID: "s1", LastDomain: domain.DomainMedicare}

	d := r.Route(sess, "How much does that cost?")
	if d.Domain != domain.DomainMedicare {
		t.Fatalf("expected continuity to keep medicare, got %q (%s)", d.Domain, d.Rationale)
	}
	if d.Confidence < r.Threshold() {
		t.Fatalf("continuity confidence %.2f below threshold %.2f", d.Confidence, r.Threshold())
	}
}

// End-to-end scenario 2: "What about Part B?" must stay on Medicare via
// continuity even without the word "Medicare".
func TestRoute_FollowUpWithoutDomainWord(t *testing.T) {
	r := newRouter()
	sess := &domain.Session{ID: "s1", LastDomain: domain.DomainMedicare}

	d := r.Route(sess, "What about Part B?")
	if d.Domain != domain.DomainMedicare {
		t.Fatalf("expected medicare, got %q (%s)", d.Domain, d.Rationale)
	}
}

// A strong signal for another domain overrides continuity.
func TestRoute_StrongSignalOverridesContinuity(t *testing.T) {
	r := newRouter()
	sess := &domain.Session{ID: "s1", LastDomain: domain.DomainMedicare}

	d := r.Route(sess, "Actually, can you check Medicaid waiver programs?")
	if d.Domain != domain.DomainMedicaid {
		t.Fatalf("expected strong medicaid signal to win, got %q (%s)", d.Domain, d.Rationale)
	}
}

// A single weak signal for another domain does not override continuity.
func TestRoute_WeakSignalLosesToContinuity(t *testing.T) {
	r := newRouter()
	sess := &domain.Session{ID: "s1", LastDomain: domain.DomainMedicaid}

	d := r.Route(sess, "Is there help with transportation for that?")
	if d.Domain != domain.DomainMedicaid {
		t.Fatalf("expected continuity to hold, got %q (%s)", d.Domain, d.Rationale)
	}
}

// Tie-break determinism: equal-strength signals for Medicare and
// Medicaid always resolve to Medicare.
func TestRoute_TieBreakPrecedence(t *testing.T) {
	r := newRouter()
	for i := 0; i < 20; i++ {
		d := r.Route(&domain.Session{ID: "s1"}, "Tell me about medicare and medicaid")
		if d.Domain != domain.DomainMedicare {
			t.Fatalf("run %d: expected medicare by precedence, got %q", i, d.Domain)
		}
	}
}

func TestRoute_DecisionDomainAlwaysValid(t *testing.T) {
	r := newRouter()
	inputs := []string{
		"", "medicare", "medicaid", "senior center", "random words entirely",
		"medicare medicaid senior center all at once",
	}
	for _, in := range inputs {
		d := r.Route(&domain.Session{ID: "s1"}, in)
		if !d.Domain.Valid() {
			t.Fatalf("input %q produced invalid domain %q", in, d.Domain)
		}
		if d.Confidence < 0 || d.Confidence > 1 {
			t.Fatalf("input %q produced confidence %.2f outside [0,1]", in, d.Confidence)
		}
	}
}

func TestRoute_CustomProfile(t *testing.T) {
	r := New(Config{
		ConfidenceThreshold: 0.5,
		Profiles: map[string]config.DomainProfile{
			"medicare": {StrongKeywords: []string{"red white and blue card"}},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	d := r.Route(&domain.Session{ID: "s1"}, "I lost my red white and blue card")
	if d.Domain != domain.DomainMedicare {
		t.Fatalf("expected custom profile to route medicare, got %q", d.Domain)
	}
}

func TestRoute_HistoryScan(t *testing.T) {
	r := New(Config{
		ConfidenceThreshold: 0.5,
		MaxHistoryTurns:     4,
		Logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	sess := &domain.Session{
		ID: "s1",
		Turns: []domain.Turn{
			{Seq: 1, Role: domain.RoleUser, Content: "I keep asking about medicaid income limits"},
		},
	}
	d := r.Route(sess, "And what paperwork do I need?")
	if d.Domain != domain.DomainMedicaid {
		t.Fatalf("expected history scan to pick medicaid, got %q (%s)", d.Domain, d.Rationale)
	}
}

func TestRoute_NilSession(t *testing.T) {
	r := newRouter()
	d := r.Route(nil, "what is medicare part d")
	if d.Domain != domain.DomainMedicare {
		t.Fatalf("expected medicare with nil session, got %q", d.Domain)
	}
}
