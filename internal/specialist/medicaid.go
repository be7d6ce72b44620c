package specialist

import (
	"context"
	"regexp"
	"strings"

	"retirebot/internal/domain"
	"retirebot/internal/knowledge"
)

const medicaidPersona = `You are a careful Florida Medicaid specialist helping seniors and their
families. Explain eligibility rules, the application process, and long-term
care programs in plain language. Be encouraging but precise about limits and
deadlines, and never invent figures that are not in the reference information.`

// Medicaid answers Florida Medicaid eligibility, application, and
// long-term care questions, backed by the Medicaid topic provider and
// the eligibility pre-screen.
type Medicaid struct {
	info        *knowledge.TopicProvider
	eligibility domain.KnowledgeProvider
	opts        Options
}

func NewMedicaid(info *knowledge.TopicProvider, eligibility domain.KnowledgeProvider, opts Options) *Medicaid {
	opts.fill()
	return &Medicaid{info: info, eligibility: eligibility, opts: opts}
}

func (m *Medicaid) Domain() domain.Domain { return domain.DomainMedicaid }

func (m *Medicaid) Respond(ctx context.Context, sess *domain.Session, text string) (*domain.SpecialistResponse, error) {
	var (
		consulted []string
		sections  []string
		degraded  bool
	)

	// Run the financial pre-screen when the message carries enough
	// numbers to screen against.
	if params, ok := eligibilityParams(text); ok {
		consulted = append(consulted, m.eligibility.Name())
		content, found, failed := consult(ctx, m.opts, m.eligibility, domain.KnowledgeQuery{
			Kind:   knowledge.QueryKindEligibility,
			Text:   text,
			Params: params,
		})
		if found {
			sections = append(sections, content)
		}
		if failed {
			degraded = true
		}
	}

	if len(sections) == 0 {
		topic, ok := m.info.BestTopic(text)
		if !ok {
			// Anything routed here is at least about eligibility or coverage.
			topic = "eligibility"
		}
		consulted = append(consulted, m.info.Name())
		content, found, failed := consult(ctx, m.opts, m.info, domain.KnowledgeQuery{
			Kind: knowledge.QueryKindTopic,
			Text: topic,
		})
		switch {
		case found:
			sections = append(sections, content)
		case failed:
			degraded = true
		default:
			return &domain.SpecialistResponse{
				Reply: "I couldn't find specific Florida Medicaid information for that question. " +
					"I can help with: " + strings.Join(m.info.Topics(), ", ") + ". " +
					"The ACCESS Florida helpline at 1-866-762-2237 can answer anything I don't cover.",
				ProvidersConsulted: consulted,
				NeedsDisclaimer:    false,
			}, nil
		}
	}

	reply, err := reason(ctx, m.opts, medicaidPersona, strings.Join(sections, "\n\n"), sess, text)
	if err != nil {
		return nil, err
	}
	if degraded {
		m.opts.Logger.Warn("medicaid responder degraded to provider-free reply")
	}

	return &domain.SpecialistResponse{
		Reply:              reply,
		ProvidersConsulted: consulted,
		NeedsDisclaimer:    true,
	}, nil
}

var (
	agePattern    = regexp.MustCompile(`(?i)\b(?:i am|i'm|age|aged)\s*(\d{2,3})\b|\b(\d{2,3})[ -]years?[ -]old\b`)
	incomePattern = regexp.MustCompile(`(?i)\$?\s*([\d,]+(?:\.\d+)?)\s*(?:a|per|each|/)\s*month`)
	assetPattern  = regexp.MustCompile(`(?i)\$?\s*([\d,]+(?:\.\d+)?)\s*(?:in\s+)?(?:savings|assets)`)
)

// eligibilityParams pulls age, monthly income, and countable assets out
// of free text. The pre-screen only runs when all three are present;
// otherwise the topic data explains the limits instead.
func eligibilityParams(text string) (map[string]string, bool) {
	age := firstGroup(agePattern.FindStringSubmatch(text))
	income := firstGroup(incomePattern.FindStringSubmatch(text))
	assets := firstGroup(assetPattern.FindStringSubmatch(text))
	if age == "" || income == "" || assets == "" {
		return nil, false
	}

	params := map[string]string{
		"age":            age,
		"monthly_income": income,
		"assets":         assets,
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "nursing home") || strings.Contains(lower, "long-term care") ||
		strings.Contains(lower, "long term care") {
		params["long_term_care"] = "true"
	}
	return params, true
}

func firstGroup(m []string) string {
	for i := 1; i < len(m); i++ {
		if m[i] != "" {
			return strings.ReplaceAll(m[i], ",", "")
		}
	}
	return ""
}
