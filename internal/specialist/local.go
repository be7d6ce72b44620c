package specialist

import (
	"context"
	"fmt"
	"strings"

	"retirebot/internal/domain"
	"retirebot/internal/knowledge"
)

const localPersona = `You are a friendly local resource navigator for Florida seniors. Point
people to concrete services with names and phone numbers from the reference
information, and suggest calling the Elder Helpline when nothing local fits.`

// Local answers local senior resource lookups, backed by the city
// directory provider.
type Local struct {
	directory *knowledge.Directory
	opts      Options
}

func NewLocal(directory *knowledge.Directory, opts Options) *Local {
	opts.fill()
	return &Local{directory: directory, opts: opts}
}

func (l *Local) Domain() domain.Domain { return domain.DomainLocalResources }

func (l *Local) Respond(ctx context.Context, sess *domain.Session, text string) (*domain.SpecialistResponse, error) {
	city := l.findCity(text)
	if city == "" {
		// No location to search on: ask rather than guess.
		return &domain.SpecialistResponse{
			Reply: "I'd be happy to find senior resources near you. Which city are you in, " +
				"or what's your zip code? I have listings for " +
				strings.Join(titleAll(l.directory.Cities()), ", ") + ".",
			ProvidersConsulted: nil,
			NeedsDisclaimer:    false,
		}, nil
	}

	consulted := []string{l.directory.Name()}
	content, found, failed := consult(ctx, l.opts, l.directory, domain.KnowledgeQuery{
		Kind: knowledge.QueryKindDirectory,
		Text: text,
		Params: map[string]string{
			"city":          city,
			"resource_type": resourceType(text),
		},
	})
	if !found && !failed {
		return &domain.SpecialistResponse{
			Reply: fmt.Sprintf("I couldn't find listings for %s in my directory. "+
				"I currently cover %s. The Florida Elder Helpline at 1-800-963-5337 "+
				"can connect you with services anywhere in the state.",
				strings.Title(city), strings.Join(titleAll(l.directory.Cities()), ", ")),
			ProvidersConsulted: consulted,
			NeedsDisclaimer:    false,
		}, nil
	}

	knowledgeText := content
	reply, err := reason(ctx, l.opts, localPersona, knowledgeText, sess, text)
	if err != nil {
		return nil, err
	}
	if failed {
		l.opts.Logger.Warn("local responder degraded to provider-free reply")
	}

	return &domain.SpecialistResponse{
		Reply:              reply,
		ProvidersConsulted: consulted,
		NeedsDisclaimer:    true,
	}, nil
}

// findCity resolves a city from the message text or a zip code in it.
func (l *Local) findCity(text string) string {
	lower := strings.ToLower(text)
	for _, city := range l.directory.Cities() {
		if strings.Contains(lower, city) {
			return city
		}
	}
	if zip, ok := findZip(text); ok {
		if city, ok := l.directory.CityForZip(zip); ok {
			return city
		}
	}
	return ""
}

func resourceType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "senior center", "activities", "meals", "social"):
		return "senior center"
	case containsAny(lower, "transport", "ride", "bus", "getting to"):
		return "transportation"
	case containsAny(lower, "housing", "apartment", "living", "rent"):
		return "housing"
	case containsAny(lower, "health", "doctor", "clinic", "hospital", "medical"):
		return "healthcare"
	default:
		return "all"
	}
}

func containsAny(text string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func titleAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.Title(s)
	}
	return out
}
