package domain

import (
	"context"
	"errors"
)

// ErrNoResult is the well-defined "no match" outcome of a knowledge
// lookup. Responders must surface it as an explicit statement, never as
// an invented answer.
var ErrNoResult = errors.New("knowledge: no result")

// KnowledgeQuery is a provider-specific lookup request.
type KnowledgeQuery struct {
	Kind   string            `json:"kind"`             // provider operation, e.g. "topic", "plans", "eligibility"
	Text   string            `json:"text"`             // free-text argument (topic, city, ...)
	Params map[string]string `json:"params,omitempty"` // structured arguments (zip, income, ...)
}

// KnowledgeResult is the result of a lookup. Results are deterministic
// for the built-in static data; live providers may return different
// answers across calls, so callers must not assume idempotence.
type KnowledgeResult struct {
	Provider string `json:"provider"`
	Content  string `json:"content"`
}

// KnowledgeProvider is a pluggable lookup function registered per
// specialist. Implementations are stateless and side-effect-free for
// static data; live providers may do network or file I/O, so lookups
// take a context and must not be called under session locks.
type KnowledgeProvider interface {
	Name() string
	Lookup(ctx context.Context, q KnowledgeQuery) (*KnowledgeResult, error)
}
