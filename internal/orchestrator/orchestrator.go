// Package orchestrator wires the pipeline behind every turn: rate
// limit, session lookup, routing, specialist response, disclaimer
// handling, and turn persistence.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"retirebot/internal/domain"
	"retirebot/internal/metrics"
	"retirebot/internal/router"
	"retirebot/internal/session"
	"retirebot/internal/specialist"
)

// Result is the outcome of one handled turn.
type Result struct {
	SessionID string
	Reply     string
	Decision  domain.RoutingDecision
	Failed    bool // true when the reply is the apology, not an answer
}

// Orchestrator executes the turn pipeline. It is safe for concurrent
// use; per-session ordering is enforced by the session manager's
// sequence numbering, not by the orchestrator.
type Orchestrator struct {
	sessions *session.Manager
	router   *router.Router
	registry *specialist.Registry
	logger   *slog.Logger

	disclaimer    string
	apology       string
	historyWindow int
	limiters      *sessionLimiters
}

// Config holds the orchestrator dependencies and tuning.
type Config struct {
	Sessions      *session.Manager
	Router        *router.Router
	Registry      *specialist.Registry
	Logger        *slog.Logger
	Disclaimer    string
	Apology       string
	HistoryWindow int
	RateBurst     int
	RatePerMinute float64
}

func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 20
	}
	return &Orchestrator{
		sessions:      cfg.Sessions,
		router:        cfg.Router,
		registry:      cfg.Registry,
		logger:        cfg.Logger,
		disclaimer:    cfg.Disclaimer,
		apology:       cfg.Apology,
		historyWindow: cfg.HistoryWindow,
		limiters:      newSessionLimiters(cfg.RateBurst, cfg.RatePerMinute),
	}
}

// HandleMessage runs one user message through the full pipeline and
// returns the reply. Both the user message and the reply are committed
// to the session, including the apology path, so the transcript always
// reflects what the user saw.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, text string) (*Result, error) {
	start := time.Now()

	if err := o.limiters.forSession(sessionID).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	if _, err := o.sessions.GetOrCreate(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	sess, err := o.sessions.Snapshot(ctx, sessionID, o.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("session snapshot: %w", err)
	}

	decision := o.router.Route(sess, text)
	metrics.MessagesTotal.Inc()
	metrics.RoutingDecisions(string(decision.Domain)).Inc()
	o.logger.Info("routed message",
		"session", sessionID,
		"domain", decision.Domain,
		"confidence", decision.Confidence,
	)

	if _, err := o.sessions.AppendTurn(ctx, sessionID, domain.RoleUser, text, ""); err != nil {
		return nil, fmt.Errorf("record user turn: %w", err)
	}

	responder, err := o.registry.Lookup(decision.Domain)
	if err != nil {
		return nil, err
	}

	resp, err := responder.Respond(ctx, sess, text)
	if err != nil {
		// Reasoning failed: apologize, but keep the transcript intact.
		// The apology carries no domain so it never shifts continuity.
		o.logger.Error("responder failed, sending apology",
			"session", sessionID, "domain", decision.Domain, "error", err)
		metrics.ReasonerFailures.Inc()
		if _, aerr := o.sessions.AppendTurn(ctx, sessionID, domain.RoleAssistant, o.apology, ""); aerr != nil {
			o.logger.Error("cannot record apology turn", "session", sessionID, "error", aerr)
		}
		return &Result{SessionID: sessionID, Reply: o.apology, Decision: decision, Failed: true}, nil
	}

	reply := resp.Reply
	if resp.NeedsDisclaimer && o.disclaimer != "" && !strings.Contains(reply, o.disclaimer) {
		reply = reply + "\n\n" + o.disclaimer
	}

	// General-handled turns carry no domain tag so one ambiguous turn
	// never erases continuity with the last active specialist.
	turnDomain := decision.Domain
	if turnDomain == domain.DomainGeneral {
		turnDomain = ""
	}
	if _, err := o.sessions.AppendTurn(ctx, sessionID, domain.RoleAssistant, reply, turnDomain); err != nil {
		return nil, fmt.Errorf("record assistant turn: %w", err)
	}

	metrics.ReplyLatency.Observe(time.Since(start).Seconds())
	return &Result{SessionID: sessionID, Reply: reply, Decision: decision}, nil
}

// History exposes the session transcript for channels that render it.
func (o *Orchestrator) History(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	return o.sessions.History(ctx, sessionID, limit)
}

// NewSession allocates a fresh session id.
func (o *Orchestrator) NewSession(ctx context.Context) (string, error) {
	return o.sessions.Create(ctx)
}
