package reasoner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"retirebot/internal/domain"
)

// Failover tries multiple reasoners in order, falling back to the next
// when the current one fails.
type Failover struct {
	reasoners []domain.Reasoner
	logger    *slog.Logger
}

// NewFailover creates a failover chain. At least one reasoner is
// required.
func NewFailover(reasoners []domain.Reasoner, logger *slog.Logger) *Failover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Failover{reasoners: reasoners, logger: logger}
}

func (f *Failover) Name() string {
	names := make([]string, len(f.reasoners))
	for i, r := range f.reasoners {
		names[i] = r.Name()
	}
	return "failover(" + strings.Join(names, ",") + ")"
}

func (f *Failover) Healthy(ctx context.Context) error {
	for _, r := range f.reasoners {
		if err := r.Healthy(ctx); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no healthy reasoner in failover chain")
}

// Reason tries each reasoner in order and returns the first successful
// response.
func (f *Failover) Reason(ctx context.Context, req domain.ReasonRequest) (*domain.ReasonResponse, error) {
	var lastErr error
	for i, r := range f.reasoners {
		resp, err := r.Reason(ctx, req)
		if err == nil {
			if i > 0 {
				f.logger.Info("failover: used fallback reasoner",
					"reasoner", r.Name(),
					"attempt", i+1,
				)
			}
			return resp, nil
		}
		lastErr = err
		f.logger.Warn("failover: reasoner failed, trying next",
			"reasoner", r.Name(),
			"attempt", i+1,
			"error", err,
		)
	}
	return nil, fmt.Errorf("all reasoners in failover chain failed: %w", lastErr)
}
