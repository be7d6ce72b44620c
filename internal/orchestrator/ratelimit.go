package orchestrator

import (
	"context"
	"sync"
	"time"

	"retirebot/internal/metrics"
)

// RateLimiter is a token bucket for throttling how fast one session can
// submit messages.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	max      float64
	rate     float64 // tokens per second
	lastTime time.Time
}

func NewRateLimiter(maxBurst int, ratePerMinute float64) *RateLimiter {
	if maxBurst <= 0 {
		maxBurst = 5
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 30
	}
	return &RateLimiter{
		tokens:   float64(maxBurst),
		max:      float64(maxBurst),
		rate:     ratePerMinute / 60.0,
		lastTime: time.Now(),
	}
}

func (rl *RateLimiter) Wait(ctx context.Context) error {
	waited := false
	for {
		rl.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(rl.lastTime).Seconds()
		rl.tokens += elapsed * rl.rate
		if rl.tokens > rl.max {
			rl.tokens = rl.max
		}
		rl.lastTime = now

		if rl.tokens >= 1.0 {
			rl.tokens -= 1.0
			rl.mu.Unlock()
			return nil
		}

		waitSec := (1.0 - rl.tokens) / rl.rate
		rl.mu.Unlock()

		if !waited {
			waited = true
			metrics.RateLimited.Inc()
		}

		timer := time.NewTimer(time.Duration(waitSec * float64(time.Second)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// sessionLimiters hands out one token bucket per session id.
type sessionLimiters struct {
	mu       sync.Mutex
	limiters map[string]*RateLimiter
	burst    int
	perMin   float64
}

func newSessionLimiters(burst int, perMinute float64) *sessionLimiters {
	return &sessionLimiters{
		limiters: make(map[string]*RateLimiter),
		burst:    burst,
		perMin:   perMinute,
	}
}

func (s *sessionLimiters) forSession(id string) *RateLimiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	rl, ok := s.limiters[id]
	if !ok {
		rl = NewRateLimiter(s.burst, s.perMin)
		s.limiters[id] = rl
	}
	return rl
}
