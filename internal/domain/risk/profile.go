// Package risk contains the risk classification domain: fixed clinical-style
// Z thresholds per domain, worst-of aggregation across domains, and the
// deterministic ranking of at-risk domains. A student's risk profile is a
// current-state snapshot, not a ledger - each run overwrites the last.
package risk

import (
	"errors"
	"sort"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// Domain errors for the risk package.
var (
	ErrProfileNotFound = errors.New("risk: profile not found")
)

// Tier classifies a domain's standing against the age cohort.
type Tier string

const (
	// TierUnknown - no usable Z-score. Excluded from the overall aggregate
	// but reported so population coverage stays auditable. Never silently
	// counted as normal.
	TierUnknown Tier = "unknown"
	// TierNormal - Z > -1.
	TierNormal Tier = "normal"
	// TierWatch - -2 < Z <= -1.
	TierWatch Tier = "watch"
	// TierRisk - -3 < Z <= -2.
	TierRisk Tier = "risk"
	// TierHighRisk - Z <= -3.
	TierHighRisk Tier = "high_risk"
)

// Classification thresholds (standard deviations below the cohort mean).
const (
	watchThreshold    = -1
	riskThreshold     = -2
	highRiskThreshold = -3
)

// severity orders tiers from best to worst for known tiers. Unknown has no
// severity; it never participates in worst-of aggregation.
func (t Tier) severity() int {
	switch t {
	case TierNormal:
		return 0
	case TierWatch:
		return 1
	case TierRisk:
		return 2
	case TierHighRisk:
		return 3
	default:
		return -1
	}
}

// IsKnown reports whether the tier came from a usable Z-score.
func (t Tier) IsKnown() bool {
	return t.severity() >= 0
}

// IsAtRisk reports whether the tier warrants intervention.
func (t Tier) IsAtRisk() bool {
	return t == TierRisk || t == TierHighRisk
}

// WorseThan reports whether t is strictly worse than other.
// Unknown is never worse than a known tier.
func (t Tier) WorseThan(other Tier) bool {
	return t.severity() > other.severity()
}

// ClassifyZ maps a Z-score to its risk tier. A nil Z-score is explicitly
// unknown - the caller must not substitute zero to get a "normal" out of
// missing data.
func ClassifyZ(z *float64) Tier {
	if z == nil {
		return TierUnknown
	}
	switch {
	case *z <= highRiskThreshold:
		return TierHighRisk
	case *z <= riskThreshold:
		return TierRisk
	case *z <= watchThreshold:
		return TierWatch
	default:
		return TierNormal
	}
}

// DomainAssessment pairs a domain with its classified tier and the Z-score
// the classification came from.
type DomainAssessment struct {
	Domain shared.Domain
	Tier   Tier
	ZScore *float64
}

// Profile is a student's current risk state.
type Profile struct {
	StudentID student.ID

	// Domains holds one assessment per tracked domain, in canonical domain
	// order for deterministic serialization.
	Domains []DomainAssessment

	// OverallTier is the worst tier among domains with a known score.
	// If every domain is unknown, the overall tier is unknown.
	OverallTier Tier

	// AtRiskDomains lists domains at risk or high-risk tier, most negative
	// Z first, ties broken by domain code.
	AtRiskDomains []shared.Domain

	// UnknownDomains lists domains with no usable score, in canonical order.
	UnknownDomains []shared.Domain

	ComputedAt time.Time
}

// BuildProfile derives a profile from per-domain assessments.
// The invariant holds by construction: the overall tier is never better than
// the worst known domain tier.
func BuildProfile(studentID student.ID, assessments []DomainAssessment, at time.Time) Profile {
	p := Profile{
		StudentID:   studentID,
		Domains:     assessments,
		OverallTier: TierUnknown,
		ComputedAt:  at,
	}

	atRisk := make([]DomainAssessment, 0, len(assessments))
	for _, a := range assessments {
		if !a.Tier.IsKnown() {
			p.UnknownDomains = append(p.UnknownDomains, a.Domain)
			continue
		}
		if !p.OverallTier.IsKnown() || a.Tier.WorseThan(p.OverallTier) {
			p.OverallTier = a.Tier
		}
		if a.Tier.IsAtRisk() {
			atRisk = append(atRisk, a)
		}
	}

	p.AtRiskDomains = RankAtRisk(atRisk)
	return p
}

// RankAtRisk orders at-risk assessments by ascending Z-score (most negative
// first), breaking ties by domain code so repeated runs rank identically.
func RankAtRisk(assessments []DomainAssessment) []shared.Domain {
	ranked := make([]DomainAssessment, len(assessments))
	copy(ranked, assessments)

	sort.SliceStable(ranked, func(i, j int) bool {
		zi, zj := ranked[i].ZScore, ranked[j].ZScore
		if zi != nil && zj != nil && *zi != *zj {
			return *zi < *zj
		}
		return ranked[i].Domain < ranked[j].Domain
	})

	domains := make([]shared.Domain, len(ranked))
	for i, a := range ranked {
		domains[i] = a.Domain
	}
	return domains
}

// TierFor returns the tier recorded for a domain, or unknown when the
// profile has no assessment for it.
func (p Profile) TierFor(domain shared.Domain) Tier {
	for _, a := range p.Domains {
		if a.Domain == domain {
			return a.Tier
		}
	}
	return TierUnknown
}

// ZFor returns the Z-score recorded for a domain, or nil.
func (p Profile) ZFor(domain shared.Domain) *float64 {
	for _, a := range p.Domains {
		if a.Domain == domain {
			return a.ZScore
		}
	}
	return nil
}
