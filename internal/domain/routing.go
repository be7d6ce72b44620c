package domain

// Domain is one specialist subject area, or the general fallback.
type Domain string

const (
	DomainMedicare       Domain = "medicare"
	DomainMedicaid       Domain = "medicaid"
	DomainLocalResources Domain = "local_resources"
	DomainGeneral        Domain = "general" // fallback / coordinator
)

// SpecialistDomains lists the specialist domains in tie-break precedence
// order: Medicare > Medicaid > Local Resources. The general fallback is
// never a tie-break candidate.
func SpecialistDomains() []Domain {
	return []Domain{DomainMedicare, DomainMedicaid, DomainLocalResources}
}

// Valid reports whether d is a registered domain or the fallback.
func (d Domain) Valid() bool {
	switch d {
	case DomainMedicare, DomainMedicaid, DomainLocalResources, DomainGeneral:
		return true
	}
	return false
}

// RoutingDecision is the outcome of classifying one incoming turn.
type RoutingDecision struct {
	Domain     Domain  `json:"domain"`
	Confidence float64 `json:"confidence"` // in [0,1]
	Rationale  string  `json:"rationale"`  // for logs, never shown to the user
}

// SpecialistResponse is what a responder returns for one turn.
type SpecialistResponse struct {
	Reply              string   `json:"reply"`
	ProvidersConsulted []string `json:"providers_consulted,omitempty"`

	// NeedsDisclaimer obligates the orchestrator to append the configured
	// verification disclaimer to the outbound reply.
	NeedsDisclaimer bool `json:"needs_disclaimer"`
}
