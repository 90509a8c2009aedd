// Package norms contains the age-cohort norm table: reference means and
// standard deviations per (age bucket, developmental domain). The table is
// immutable reference data - seeded once, looked up by every scoring run,
// never written by the pipeline itself.
package norms

import (
	"errors"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

// Domain errors for the norms package.
var (
	ErrEntryNotFound    = errors.New("norms: no entry for age bucket and domain")
	ErrInvalidStdDev    = errors.New("norms: standard deviation must be positive")
	ErrInvalidAgeBucket = errors.New("norms: age bucket outside supported range")
	ErrInvalidDomain    = errors.New("norms: unknown domain code")
)

// Age buckets are sparse: one bucket every six months across the early
// childhood range. Student ages are continuous, so lookups snap to the
// nearest bucket.
const (
	// MinAgeBucket is the youngest supported bucket (24 months).
	MinAgeBucket = 24
	// MaxAgeBucket is the oldest supported bucket (72 months).
	MaxAgeBucket = 72
	// BucketStep is the spacing between buckets in months.
	BucketStep = 6
)

// AgeBuckets returns the discrete bucket set in ascending order.
func AgeBuckets() []int {
	buckets := make([]int, 0, (MaxAgeBucket-MinAgeBucket)/BucketStep+1)
	for b := MinAgeBucket; b <= MaxAgeBucket; b += BucketStep {
		buckets = append(buckets, b)
	}
	return buckets
}

// NearestBucket selects the bucket closest to an exact age in months.
// Ages outside the supported range clamp to the nearest edge bucket.
// Ties break toward the younger bucket: a 45-month-old sits exactly between
// the 42 and 48 buckets and is normed against 42.
func NearestBucket(ageMonths int) int {
	if ageMonths <= MinAgeBucket {
		return MinAgeBucket
	}
	if ageMonths >= MaxAgeBucket {
		return MaxAgeBucket
	}

	lower := MinAgeBucket + ((ageMonths - MinAgeBucket) / BucketStep * BucketStep)
	upper := lower + BucketStep

	if ageMonths-lower <= upper-ageMonths {
		return lower
	}
	return upper
}

// Entry holds the reference statistics for one (age bucket, domain) pair.
// The mean and standard deviation are on the common percentage scale that
// raw observations are normalized to before scoring.
type Entry struct {
	// AgeBucketMonths is the discrete age bucket this entry norms.
	AgeBucketMonths int

	// Domain is the developmental domain.
	Domain shared.Domain

	// Mean is the cohort mean score (percentage scale).
	Mean float64

	// StdDev is the cohort standard deviation. Always > 0 for a valid entry;
	// a degenerate deviation makes Z-scores meaningless and is rejected at
	// seed time.
	StdDev float64

	// SampleSize is the number of children behind the statistic.
	SampleSize int
}

// Key returns the unique key for this entry.
func (e Entry) Key() string {
	return fmt.Sprintf("%d:%s", e.AgeBucketMonths, e.Domain)
}

// Validate checks the entry invariants.
func (e Entry) Validate() error {
	if e.AgeBucketMonths < MinAgeBucket || e.AgeBucketMonths > MaxAgeBucket ||
		(e.AgeBucketMonths-MinAgeBucket)%BucketStep != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAgeBucket, e.AgeBucketMonths)
	}
	if !e.Domain.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, e.Domain)
	}
	if e.StdDev <= 0 {
		return fmt.Errorf("%w: %f", ErrInvalidStdDev, e.StdDev)
	}
	return nil
}
