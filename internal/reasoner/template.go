// Package reasoner provides the reasoning backends behind the
// specialist responders: an offline deterministic template renderer and
// LLM-backed implementations with retry and failover.
package reasoner

import (
	"context"
	"strings"
	"time"

	"retirebot/internal/domain"
)

// Template is the deterministic offline reasoner. It renders the
// knowledge context the specialist gathered, or a short generic reply
// when there is nothing to ground on. It never fails, which makes it
// the natural tail of a failover chain.
type Template struct{}

func NewTemplate() *Template { return &Template{} }

func (t *Template) Name() string { return "template" }

func (t *Template) Healthy(ctx context.Context) error { return nil }

func (t *Template) Reason(ctx context.Context, req domain.ReasonRequest) (*domain.ReasonResponse, error) {
	start := time.Now()

	var sb strings.Builder
	if k := strings.TrimSpace(req.Knowledge); k != "" {
		sb.WriteString(k)
	} else {
		sb.WriteString("I can help with Medicare, Florida Medicaid, and local senior resources. ")
		sb.WriteString("Could you tell me a bit more about what you need? ")
		sb.WriteString("For example: \"What does Medicare Part B cover?\", \"Am I eligible for Medicaid?\", ")
		sb.WriteString("or \"Find senior centers in Tampa\".")
	}

	return &domain.ReasonResponse{
		Text:      sb.String(),
		Model:     "template",
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}
