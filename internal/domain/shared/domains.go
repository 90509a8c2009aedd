package shared

// Domain identifies a developmental domain tracked by the platform.
// Every raw observation, norm entry, and derived analytic is keyed by one of
// these codes, so the set is closed and ordered.
type Domain string

const (
	// DomainMotor covers gross and fine motor development.
	DomainMotor Domain = "motor"
	// DomainLanguage covers receptive and expressive language.
	DomainLanguage Domain = "language"
	// DomainCognitive covers problem solving and early reasoning.
	DomainCognitive Domain = "cognitive"
	// DomainSocial covers social and emotional development.
	DomainSocial Domain = "social"
	// DomainSelfCare covers adaptive and self-care skills.
	DomainSelfCare Domain = "self_care"
)

// AllDomains returns every tracked domain in canonical order.
// The order doubles as the deterministic tiebreak for rankings.
func AllDomains() []Domain {
	return []Domain{
		DomainMotor,
		DomainLanguage,
		DomainCognitive,
		DomainSocial,
		DomainSelfCare,
	}
}

// IsValid checks that the domain code is one of the tracked domains.
func (d Domain) IsValid() bool {
	switch d {
	case DomainMotor, DomainLanguage, DomainCognitive, DomainSocial, DomainSelfCare:
		return true
	default:
		return false
	}
}

// String returns the string representation of the domain code.
func (d Domain) String() string {
	return string(d)
}
