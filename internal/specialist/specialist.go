// Package specialist implements the per-domain responders. Each
// responder gathers knowledge for its domain, asks the reasoner for a
// reply grounded on that knowledge, and reports whether the reply needs
// the verification disclaimer.
package specialist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"retirebot/internal/domain"
	"retirebot/internal/metrics"
)

// Responder handles one specialist domain.
type Responder interface {
	Domain() domain.Domain
	Respond(ctx context.Context, sess *domain.Session, text string) (*domain.SpecialistResponse, error)
}

// Registry maps routing domains to responders.
type Registry struct {
	responders map[domain.Domain]Responder
	logger     *slog.Logger
}

func NewRegistry(logger *slog.Logger, responders ...Responder) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[domain.Domain]Responder, len(responders))
	for _, r := range responders {
		m[r.Domain()] = r
	}
	return &Registry{responders: m, logger: logger}
}

// Lookup returns the responder for a routed domain. Unknown domains
// fall back to the general responder so a routing bug never drops a
// message.
func (reg *Registry) Lookup(d domain.Domain) (Responder, error) {
	if r, ok := reg.responders[d]; ok {
		return r, nil
	}
	if r, ok := reg.responders[domain.DomainGeneral]; ok {
		reg.logger.Warn("no responder for domain, using general", "domain", d)
		return r, nil
	}
	return nil, fmt.Errorf("no responder registered for domain %s", d)
}

// Options are the reasoning knobs shared by every responder.
type Options struct {
	Reasoner    domain.Reasoner
	Logger      *slog.Logger
	MaxTokens   int
	Temperature float64
}

func (o *Options) fill() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

var zipPattern = regexp.MustCompile(`\b(\d{5})\b`)

// findZip extracts the first 5-digit zip code from free text.
func findZip(text string) (string, bool) {
	m := zipPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// reason runs the reasoning step for a responder. Knowledge lookup
// failures are handled by the caller; a reasoning failure propagates so
// the orchestrator can apologize for the turn.
func reason(ctx context.Context, o Options, system, knowledge string, sess *domain.Session, input string) (string, error) {
	var history []domain.Turn
	if sess != nil {
		history = sess.Turns
	}
	resp, err := o.Reasoner.Reason(ctx, domain.ReasonRequest{
		System:      system,
		Knowledge:   knowledge,
		History:     history,
		Input:       input,
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// consult performs one provider lookup, distinguishing "no result"
// from provider failure. On failure the responder degrades to a
// provider-free reply rather than dropping the turn.
func consult(ctx context.Context, o Options, p domain.KnowledgeProvider, q domain.KnowledgeQuery) (content string, found bool, failed bool) {
	res, err := p.Lookup(ctx, q)
	switch {
	case err == nil:
		return res.Content, true, false
	case errors.Is(err, domain.ErrNoResult):
		return "", false, false
	default:
		o.Logger.Error("knowledge provider failed", "provider", p.Name(), "error", err)
		metrics.ProviderErrors.Inc()
		return "", false, true
	}
}
