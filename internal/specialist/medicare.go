package specialist

import (
	"context"
	"fmt"
	"strings"

	"retirebot/internal/domain"
	"retirebot/internal/knowledge"
)

const medicarePersona = `You are a patient, clear Medicare specialist helping seniors in Florida.
Explain coverage, enrollment, and costs in plain language. Keep replies short
and concrete, avoid jargon, and never invent coverage details that are not in
the reference information.`

// Medicare answers Medicare coverage, enrollment, cost, and plan
// questions, backed by the Medicare topic and plan providers.
type Medicare struct {
	info  *knowledge.TopicProvider
	plans *knowledge.PlanSearch
	opts  Options
}

func NewMedicare(info *knowledge.TopicProvider, plans *knowledge.PlanSearch, opts Options) *Medicare {
	opts.fill()
	return &Medicare{info: info, plans: plans, opts: opts}
}

func (m *Medicare) Domain() domain.Domain { return domain.DomainMedicare }

func (m *Medicare) Respond(ctx context.Context, sess *domain.Session, text string) (*domain.SpecialistResponse, error) {
	var (
		consulted []string
		sections  []string
		degraded  bool
	)

	// Plan search when the message carries a zip code and plan intent.
	if zip, ok := findZip(text); ok && wantsPlans(text) {
		consulted = append(consulted, m.plans.Name())
		content, found, failed := consult(ctx, m.opts, m.plans, domain.KnowledgeQuery{
			Kind:   knowledge.QueryKindPlans,
			Text:   text,
			Params: map[string]string{"zip": zip, "plan_type": planType(text)},
		})
		switch {
		case found:
			sections = append(sections, content)
		case failed:
			degraded = true
		default:
			return &domain.SpecialistResponse{
				Reply: fmt.Sprintf("I couldn't find any Medicare plans for zip code %s in my directory. "+
					"I currently have plan data for Miami (33101), Orlando (32801), and Tampa (33601). "+
					"For any Florida zip code, medicare.gov/plan-compare has the full list.", zip),
				ProvidersConsulted: consulted,
				NeedsDisclaimer:    true,
			}, nil
		}
	}

	// Topic lookup for everything else the message asks about.
	if topic, ok := m.info.BestTopic(text); ok {
		consulted = append(consulted, m.info.Name())
		content, found, failed := consult(ctx, m.opts, m.info, domain.KnowledgeQuery{
			Kind: knowledge.QueryKindTopic,
			Text: topic,
		})
		if found {
			sections = append(sections, content)
		}
		if failed {
			degraded = true
		}
	} else if len(sections) == 0 {
		consulted = append(consulted, m.info.Name())
		return &domain.SpecialistResponse{
			Reply: "I couldn't find specific Medicare information for that question. " +
				"I can help with: " + strings.Join(m.info.Topics(), ", ") + ". " +
				"You can also call 1-800-MEDICARE for anything I don't cover.",
			ProvidersConsulted: consulted,
			NeedsDisclaimer:    false,
		}, nil
	}

	reply, err := reason(ctx, m.opts, medicarePersona, strings.Join(sections, "\n\n"), sess, text)
	if err != nil {
		return nil, err
	}
	if degraded {
		m.opts.Logger.Warn("medicare responder degraded to provider-free reply")
	}

	return &domain.SpecialistResponse{
		Reply:              reply,
		ProvidersConsulted: consulted,
		NeedsDisclaimer:    true,
	}, nil
}

func wantsPlans(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range []string{"plan", "advantage", "medigap", "supplement", "hmo", "ppo"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func planType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "supplement") || strings.Contains(lower, "medigap"):
		return "supplement"
	case strings.Contains(lower, "advantage"):
		return "advantage"
	case strings.Contains(lower, "drug") || strings.Contains(lower, "part d"):
		return "partd"
	default:
		return "all"
	}
}
