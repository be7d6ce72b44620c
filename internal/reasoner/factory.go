package reasoner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"retirebot/internal/config"
	"retirebot/internal/domain"
)

// Constructor creates a reasoner from a config entry.
type Constructor func(ctx context.Context, rc config.ReasonerConfig, logger *slog.Logger) (domain.Reasoner, error)

// Factory creates and caches reasoners from config.
type Factory struct {
	cfg          *config.Config
	logger       *slog.Logger
	constructors map[string]Constructor
	cache        map[string]domain.Reasoner
	mu           sync.RWMutex
}

// NewFactory creates a reasoner factory with the built-in constructors
// registered.
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	f := &Factory{
		cfg:          cfg,
		logger:       logger,
		constructors: make(map[string]Constructor),
		cache:        make(map[string]domain.Reasoner),
	}
	f.registerDefaults()
	return f
}

// RegisterConstructor adds (or replaces) a reasoner constructor by name.
func (f *Factory) RegisterConstructor(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = ctor
}

func (f *Factory) registerDefaults() {
	f.constructors["template"] = func(ctx context.Context, rc config.ReasonerConfig, logger *slog.Logger) (domain.Reasoner, error) {
		return NewTemplate(), nil
	}
	f.constructors["gemini"] = func(ctx context.Context, rc config.ReasonerConfig, logger *slog.Logger) (domain.Reasoner, error) {
		return NewGemini(ctx, GeminiConfig{APIKey: rc.APIKey, Model: rc.Model, Logger: logger})
	}
	f.constructors["openai"] = func(ctx context.Context, rc config.ReasonerConfig, logger *slog.Logger) (domain.Reasoner, error) {
		return NewOpenAI(OpenAIConfig{APIKey: rc.APIKey, APIBase: rc.APIBase, Model: rc.Model, Logger: logger}), nil
	}
}

// Get returns the reasoner with the given name, or the configured
// default if name is empty. Created reasoners are cached so the same
// instance is reused across calls.
func (f *Factory) Get(ctx context.Context, name string) (domain.Reasoner, error) {
	if name == "" {
		name = f.cfg.General.DefaultReasoner
	}

	f.mu.RLock()
	if cached, ok := f.cache[name]; ok {
		f.mu.RUnlock()
		return cached, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Re-check under write lock.
	if cached, ok := f.cache[name]; ok {
		return cached, nil
	}

	rc, ok := f.cfg.Reasoners[name]
	if !ok {
		return nil, fmt.Errorf("unknown reasoner: %s", name)
	}
	if !rc.Enabled {
		return nil, fmt.Errorf("reasoner %s is disabled", name)
	}

	ctor, found := f.constructors[name]
	if !found {
		if rc.APIBase == "" || rc.APIKey == "" {
			return nil, fmt.Errorf("reasoner %s: no constructor registered and no API base/key configured", name)
		}
		// Treat unknown reasoners as OpenAI-compatible.
		r := NewOpenAI(OpenAIConfig{APIKey: rc.APIKey, APIBase: rc.APIBase, Model: rc.Model, Logger: f.logger})
		f.cache[name] = r
		return r, nil
	}

	r, err := ctor(ctx, rc, f.logger)
	if err != nil {
		return nil, fmt.Errorf("create reasoner %s: %w", name, err)
	}
	f.cache[name] = r
	return r, nil
}

// Chain builds the configured failover chain, skipping entries that
// cannot be constructed. Falls back to the default reasoner when no
// chain is configured, and to the template reasoner when nothing else
// can be built.
func (f *Factory) Chain(ctx context.Context) (domain.Reasoner, error) {
	names := f.cfg.General.FailoverChain
	if len(names) == 0 {
		return f.Get(ctx, "")
	}

	var reasoners []domain.Reasoner
	for _, name := range names {
		r, err := f.Get(ctx, name)
		if err != nil {
			f.logger.Warn("skipping unavailable reasoner in failover chain", "reasoner", name, "error", err)
			continue
		}
		reasoners = append(reasoners, r)
	}
	switch len(reasoners) {
	case 0:
		f.logger.Warn("no reasoner from failover chain available, using template")
		return NewTemplate(), nil
	case 1:
		return reasoners[0], nil
	default:
		return NewFailover(reasoners, f.logger), nil
	}
}
