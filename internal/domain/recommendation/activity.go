// Package recommendation contains the activity catalog and the
// recommendation entity: age-bracketed activity matching, the priority
// heuristic, and the pending-dedupe rule that keeps repeated batch runs
// from flooding a family's activity feed.
package recommendation

import (
	"context"
	"errors"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

var (
	ErrEmptyCatalog     = errors.New("recommendation: no activities match domain and age")
	ErrActivityNotFound = errors.New("recommendation: activity not found")
)

// ActivityID identifies a catalog activity.
type ActivityID string

// Activity is a catalog entry: a concrete intervention exercise bound to a
// developmental domain and an age bracket in months.
type Activity struct {
	ID          ActivityID
	Title       string
	Description string
	Domain      shared.Domain

	// AgeMinMonths and AgeMaxMonths bound the inclusive age bracket the
	// activity is designed for.
	AgeMinMonths int
	AgeMaxMonths int
}

// SuitableFor reports whether the activity targets the given domain and
// covers the given age.
func (a Activity) SuitableFor(domain shared.Domain, ageMonths int) bool {
	return a.Domain == domain &&
		ageMonths >= a.AgeMinMonths &&
		ageMonths <= a.AgeMaxMonths
}

// CatalogRepository reads the activity catalog. The catalog is owned by the
// content team; this module only matches against it.
type CatalogRepository interface {
	// FindByDomainAndAge returns activities for the domain whose age bracket
	// covers ageMonths, in stable catalog order.
	FindByDomainAndAge(ctx context.Context, domain shared.Domain, ageMonths int) ([]Activity, error)
}
