package specialist

import (
	"context"

	"retirebot/internal/domain"
)

const generalPersona = `You are the front door of a benefits assistant for Florida seniors. You
can hand off to specialists for Medicare, Florida Medicaid, and local senior
resources. When a question is ambiguous, ask one short clarifying question to
find out which area the person needs.`

// General handles turns no specialist claimed: greetings, ambiguous
// questions, and anything below the routing confidence threshold. It
// consults no providers and asks a clarifying question when needed.
type General struct {
	opts Options
}

func NewGeneral(opts Options) *General {
	opts.fill()
	return &General{opts: opts}
}

func (g *General) Domain() domain.Domain { return domain.DomainGeneral }

func (g *General) Respond(ctx context.Context, sess *domain.Session, text string) (*domain.SpecialistResponse, error) {
	reply, err := reason(ctx, g.opts, generalPersona, "", sess, text)
	if err != nil {
		return nil, err
	}
	return &domain.SpecialistResponse{
		Reply:              reply,
		ProvidersConsulted: nil,
		NeedsDisclaimer:    false,
	}, nil
}
