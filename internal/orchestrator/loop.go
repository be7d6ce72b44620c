package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"retirebot/internal/domain"
)

const defaultConcurrency = 3

// Loop consumes inbound messages from the bus and feeds them through
// the orchestrator with bounded concurrency.
type Loop struct {
	orch        *Orchestrator
	bus         domain.MessageBus
	logger      *slog.Logger
	concurrency int
}

type LoopConfig struct {
	Orchestrator *Orchestrator
	Bus          domain.MessageBus
	Logger       *slog.Logger
	Concurrency  int // max parallel messages
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loop{
		orch:        cfg.Orchestrator,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}
}

// Run consumes inbound messages until the context is cancelled or the
// bus closes.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("message loop started", "concurrency", l.concurrency)

	sem := make(chan struct{}, l.concurrency)
	inbound := l.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("message loop stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				l.logger.Info("inbound channel closed, message loop stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				l.processMessage(ctx, m)
			}(msg)
		}
	}
}

// ProcessDirect handles a message synchronously for callers that need a
// blocking reply.
func (l *Loop) ProcessDirect(ctx context.Context, content, channel, chatID string) (*Result, error) {
	return l.orch.HandleMessage(ctx, sessionKey(channel, chatID), content)
}

func (l *Loop) processMessage(ctx context.Context, msg domain.InboundMessage) {
	l.logger.Info("processing message",
		"channel", msg.Channel,
		"sender", msg.SenderID,
		"content_len", len(msg.Content),
	)
	start := time.Now()

	res, err := l.orch.HandleMessage(ctx, sessionKey(msg.Channel, msg.ChatID), msg.Content)
	if err != nil {
		l.logger.Error("message processing failed", "channel", msg.Channel, "error", err)
		l.bus.SendOutbound(domain.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: "Sorry, something went wrong handling that message. Please try again.",
			Failed:  true,
		})
		return
	}

	l.logger.Debug("message handled",
		"channel", msg.Channel,
		"domain", res.Decision.Domain,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	l.bus.SendOutbound(domain.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: res.Reply,
		Failed:  res.Failed,
	})
}

// sessionKey derives a stable session id from a channel conversation.
func sessionKey(channel, chatID string) string {
	return fmt.Sprintf("%s:%s", channel, chatID)
}
