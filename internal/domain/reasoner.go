package domain

import "context"

// ReasonRequest is one synchronous reasoning step: turn a persona,
// conversation history, and optional knowledge context into reply text.
type ReasonRequest struct {
	System      string  // specialist persona / instructions
	Knowledge   string  // provider results to ground the reply on, may be empty
	History     []Turn  // recent turns, oldest first
	Input       string  // the incoming user message
	MaxTokens   int
	Temperature float64
}

// ReasonResponse is the reply produced by a reasoning backend.
type ReasonResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// Reasoner is the reasoning capability behind every specialist. The
// orchestration logic is fully testable against a deterministic
// implementation; production deployments plug in an LLM-backed one.
type Reasoner interface {
	Name() string
	Reason(ctx context.Context, req ReasonRequest) (*ReasonResponse, error)
	Healthy(ctx context.Context) error
}
