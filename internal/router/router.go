// Package router classifies incoming messages into specialist domains.
package router

import (
	"fmt"
	"log/slog"
	"strings"

	"retirebot/internal/config"
	"retirebot/internal/domain"
)

// Signal weights. A weak keyword on its own meets the default threshold;
// continuity with the last active domain outweighs a single foreign weak
// keyword; a strong keyword overrides continuity.
const (
	keywordWeight    = 1
	continuityWeight = 2
	strongWeight     = 3
	historyWeight    = 1 // capped contribution from recent-turn scan
)

// Router decides which specialist handles a turn. Classification is
// text/context-only: the router never calls knowledge providers.
type Router struct {
	threshold       float64
	maxHistoryTurns int
	profiles        map[domain.Domain]profile
	logger          *slog.Logger
}

type profile struct {
	keywords []string // pre-lowered
	strong   []string
}

// Config tunes the router.
type Config struct {
	ConfidenceThreshold float64
	MaxHistoryTurns     int
	Profiles            map[string]config.DomainProfile // merged over defaults
	Logger              *slog.Logger
}

func New(cfg Config) *Router {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	profiles := defaultProfiles()
	for name, p := range cfg.Profiles {
		d := domain.Domain(name)
		if !d.Valid() || d == domain.DomainGeneral {
			cfg.Logger.Warn("ignoring router profile for unknown domain", "domain", name)
			continue
		}
		profiles[d] = profile{
			keywords: lowerAll(p.Keywords),
			strong:   lowerAll(p.StrongKeywords),
		}
	}

	return &Router{
		threshold:       cfg.ConfidenceThreshold,
		maxHistoryTurns: cfg.MaxHistoryTurns,
		profiles:        profiles,
		logger:          cfg.Logger,
	}
}

// Route classifies the incoming text given the session state. The
// decision domain is always a registered specialist or the general
// fallback, never an arbitrary value.
func (r *Router) Route(sess *domain.Session, incoming string) domain.RoutingDecision {
	text := strings.ToLower(incoming)

	scores := make(map[domain.Domain]int, len(r.profiles))
	for d, p := range r.profiles {
		scores[d] = scoreText(text, p)
	}

	// Continuity bias: an ambiguous follow-up stays on the conversation's
	// last active domain unless another domain shows a strong signal.
	var lastDomain domain.Domain
	if sess != nil && sess.LastDomain != "" && sess.LastDomain != domain.DomainGeneral {
		lastDomain = sess.LastDomain
		scores[lastDomain] += continuityWeight
	}

	// Weak signals from the recent turn window, capped at one unit per
	// domain so old chatter can't outvote the current message.
	if r.maxHistoryTurns > 0 && sess != nil {
		recent := recentText(sess.Turns, r.maxHistoryTurns)
		for d, p := range r.profiles {
			if scoreText(recent, p) > 0 {
				scores[d] += historyWeight
			}
		}
	}

	// Pick the best candidate. Iterating in fixed precedence order with a
	// strict comparison makes exact ties deterministic:
	// Medicare > Medicaid > Local Resources.
	var best domain.Domain
	bestScore := 0
	for _, d := range domain.SpecialistDomains() {
		if scores[d] > bestScore {
			best = d
			bestScore = scores[d]
		}
	}

	if bestScore == 0 {
		r.logger.Debug("no domain signals, falling back", "text_len", len(incoming))
		return domain.RoutingDecision{
			Domain:     domain.DomainGeneral,
			Confidence: 0,
			Rationale:  "no domain signals in message or session context",
		}
	}

	confidence := float64(bestScore) / float64(bestScore+1)
	if confidence < r.threshold {
		return domain.RoutingDecision{
			Domain:     domain.DomainGeneral,
			Confidence: confidence,
			Rationale: fmt.Sprintf("best candidate %s scored %.2f, below threshold %.2f",
				best, confidence, r.threshold),
		}
	}

	rationale := fmt.Sprintf("%s scored %d", best, bestScore)
	if best == lastDomain {
		rationale += " (includes continuity with last active domain)"
	}

	decision := domain.RoutingDecision{
		Domain:     best,
		Confidence: confidence,
		Rationale:  rationale,
	}
	r.logger.Debug("routed message", "domain", decision.Domain, "confidence", decision.Confidence)
	return decision
}

// Threshold returns the configured minimum routing confidence.
func (r *Router) Threshold() float64 { return r.threshold }

func scoreText(text string, p profile) int {
	score := 0
	for _, kw := range p.keywords {
		if strings.Contains(text, kw) {
			score += keywordWeight
		}
	}
	for _, kw := range p.strong {
		if strings.Contains(text, kw) {
			score += strongWeight
		}
	}
	return score
}

func recentText(turns []domain.Turn, limit int) string {
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(strings.ToLower(t.Content))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// defaultProfiles holds the built-in routing signals per domain.
func defaultProfiles() map[domain.Domain]profile {
	return map[domain.Domain]profile{
		domain.DomainMedicare: {
			strong: []string{"medicare", "medigap", "part a", "part b", "part c", "part d"},
			keywords: []string{
				"hospital insurance", "medical insurance", "advantage plan",
				"supplemental insurance", "prescription drug", "irmaa",
				"enrollment period", "65th birthday", "donut hole",
			},
		},
		domain.DomainMedicaid: {
			strong: []string{"medicaid", "waiver program", "qualified income trust"},
			keywords: []string{
				"income limit", "asset limit", "long-term care", "long term care",
				"nursing home", "spend-down", "spousal impoverishment",
				"look-back", "access florida", "home care", "eligib",
			},
		},
		domain.DomainLocalResources: {
			strong: []string{"senior center", "senior centers", "near me"},
			keywords: []string{
				"miami", "orlando", "tampa", "jacksonville", "st. petersburg",
				"transportation", "housing", "meals", "facility", "facilities",
				"clinic", "community", "local", "near", "in my area", "county",
			},
		},
	}
}
