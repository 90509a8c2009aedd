package norms

import "github.com/brightsteps/brightsteps-analytics/internal/domain/shared"

// seedProfile holds the per-domain shape of the built-in reference table.
// The numbers are placeholders calibrated to a 0-100 percentage scale; a
// deployment replaces them with instrument-specific norms, which is why the
// seed never overwrites rows that already exist.
type seedProfile struct {
	baseMean   float64 // mean at the youngest bucket
	meanSlope  float64 // mean change per bucket step
	stdDev     float64
	sampleSize int
}

var seedProfiles = map[shared.Domain]seedProfile{
	shared.DomainMotor:     {baseMean: 48, meanSlope: 1.0, stdDev: 15, sampleSize: 310},
	shared.DomainLanguage:  {baseMean: 45, meanSlope: 1.5, stdDev: 16, sampleSize: 290},
	shared.DomainCognitive: {baseMean: 47, meanSlope: 1.2, stdDev: 15, sampleSize: 305},
	shared.DomainSocial:    {baseMean: 50, meanSlope: 0.8, stdDev: 14, sampleSize: 280},
	shared.DomainSelfCare:  {baseMean: 46, meanSlope: 1.4, stdDev: 15, sampleSize: 265},
}

// DefaultSeed returns the built-in norm table: one entry for every
// (age bucket x domain) pair. Deterministic, so seeding is reproducible.
func DefaultSeed() []Entry {
	buckets := AgeBuckets()
	entries := make([]Entry, 0, len(buckets)*len(seedProfiles))

	for _, domain := range shared.AllDomains() {
		profile := seedProfiles[domain]
		for i, bucket := range buckets {
			entries = append(entries, Entry{
				AgeBucketMonths: bucket,
				Domain:          domain,
				Mean:            profile.baseMean + float64(i)*profile.meanSlope,
				StdDev:          profile.stdDev,
				SampleSize:      profile.sampleSize,
			})
		}
	}

	return entries
}
