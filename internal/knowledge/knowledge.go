// Package knowledge holds the pluggable lookup providers consulted by
// the specialist responders. The built-in data is a static snapshot;
// live data sources can replace any provider without touching routing
// or orchestration.
package knowledge

import (
	"context"
	"sort"
	"strings"
	"sync"

	"retirebot/internal/domain"
)

// QueryKindTopic is the lookup kind served by topic providers.
const QueryKindTopic = "topic"

// TopicProvider answers free-text topic lookups against a keyed text
// table: exact key match first, then substring match in either
// direction, the same resolution order the data was curated for.
type TopicProvider struct {
	name   string
	mu     sync.RWMutex
	topics map[string]string
}

func newTopicProvider(name string, topics map[string]string) *TopicProvider {
	return &TopicProvider{name: name, topics: topics}
}

func (p *TopicProvider) Name() string { return p.name }

func (p *TopicProvider) Lookup(ctx context.Context, q domain.KnowledgeQuery) (*domain.KnowledgeResult, error) {
	topic := strings.ToLower(strings.TrimSpace(q.Text))
	if topic == "" {
		return nil, domain.ErrNoResult
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if content, ok := p.topics[topic]; ok {
		return &domain.KnowledgeResult{Provider: p.name, Content: content}, nil
	}
	for key, content := range p.topics {
		if strings.Contains(topic, key) || strings.Contains(key, topic) {
			return &domain.KnowledgeResult{Provider: p.name, Content: content}, nil
		}
	}
	return nil, domain.ErrNoResult
}

// Topics returns the available topic keys, sorted, for "not found"
// guidance messages.
func (p *TopicProvider) Topics() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.topics))
	for k := range p.topics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge adds or replaces topics, used by the YAML pack loader.
func (p *TopicProvider) Merge(topics map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range topics {
		p.topics[strings.ToLower(strings.TrimSpace(k))] = v
	}
}

// BestTopic scans free text for the topic key it most plausibly asks
// about, so specialists can feed whole questions to a topic provider.
func (p *TopicProvider) BestTopic(text string) (string, bool) {
	lower := strings.ToLower(text)

	p.mu.RLock()
	defer p.mu.RUnlock()

	best := ""
	for key := range p.topics {
		if strings.Contains(lower, key) && len(key) > len(best) {
			best = key
		}
	}
	return best, best != ""
}
