package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

func zp(v float64) *float64 { return &v }

func TestClassifyZ(t *testing.T) {
	tests := []struct {
		name string
		z    *float64
		want Tier
	}{
		{"nil is unknown", nil, TierUnknown},
		{"positive is normal", zp(1.5), TierNormal},
		{"zero is normal", zp(0), TierNormal},
		{"just above -1 is normal", zp(-0.99), TierNormal},
		{"exactly -1 is watch", zp(-1), TierWatch},
		{"one stddev below mean is watch", zp((35.0 - 50.0) / 15.0), TierWatch},
		{"exactly -2 is risk", zp(-2), TierRisk},
		{"between -3 and -2 is risk", zp(-2.5), TierRisk},
		{"exactly -3 is high risk", zp(-3), TierHighRisk},
		{"below -3 is high risk", zp(-3.5), TierHighRisk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyZ(tt.z))
		})
	}
}

func TestTierOrdering(t *testing.T) {
	assert.True(t, TierHighRisk.WorseThan(TierRisk))
	assert.True(t, TierRisk.WorseThan(TierWatch))
	assert.True(t, TierWatch.WorseThan(TierNormal))
	assert.False(t, TierNormal.WorseThan(TierWatch))

	// Unknown never outranks a known tier.
	assert.False(t, TierUnknown.WorseThan(TierNormal))
	assert.False(t, TierUnknown.WorseThan(TierHighRisk))
}

func TestBuildProfile_OverallIsWorstKnown(t *testing.T) {
	now := time.Now()
	p := BuildProfile("st-1", []DomainAssessment{
		{Domain: shared.DomainMotor, Tier: TierNormal, ZScore: zp(0.2)},
		{Domain: shared.DomainLanguage, Tier: TierHighRisk, ZScore: zp(-3.4)},
	}, now)

	assert.Equal(t, TierHighRisk, p.OverallTier)
	assert.Equal(t, []shared.Domain{shared.DomainLanguage}, p.AtRiskDomains)
	assert.Empty(t, p.UnknownDomains)
}

func TestBuildProfile_UnknownExcludedFromAggregate(t *testing.T) {
	p := BuildProfile("st-1", []DomainAssessment{
		{Domain: shared.DomainMotor, Tier: TierWatch, ZScore: zp(-1.5)},
		{Domain: shared.DomainLanguage, Tier: TierUnknown},
		{Domain: shared.DomainCognitive, Tier: TierUnknown},
	}, time.Now())

	assert.Equal(t, TierWatch, p.OverallTier)
	assert.Equal(t,
		[]shared.Domain{shared.DomainLanguage, shared.DomainCognitive},
		p.UnknownDomains)
}

func TestBuildProfile_AllUnknown(t *testing.T) {
	p := BuildProfile("st-1", []DomainAssessment{
		{Domain: shared.DomainMotor, Tier: TierUnknown},
		{Domain: shared.DomainSocial, Tier: TierUnknown},
	}, time.Now())

	assert.Equal(t, TierUnknown, p.OverallTier)
	assert.Empty(t, p.AtRiskDomains)
	assert.Len(t, p.UnknownDomains, 2)
}

func TestRankAtRisk_MostNegativeFirst(t *testing.T) {
	ranked := RankAtRisk([]DomainAssessment{
		{Domain: shared.DomainCognitive, Tier: TierRisk, ZScore: zp(-2.1)},
		{Domain: shared.DomainMotor, Tier: TierHighRisk, ZScore: zp(-3.5)},
	})

	assert.Equal(t,
		[]shared.Domain{shared.DomainMotor, shared.DomainCognitive},
		ranked)
}

func TestRankAtRisk_TieBrokenByDomainCode(t *testing.T) {
	ranked := RankAtRisk([]DomainAssessment{
		{Domain: shared.DomainSocial, Tier: TierRisk, ZScore: zp(-2.2)},
		{Domain: shared.DomainCognitive, Tier: TierRisk, ZScore: zp(-2.2)},
	})

	// "cognitive" < "social" lexicographically.
	assert.Equal(t,
		[]shared.Domain{shared.DomainCognitive, shared.DomainSocial},
		ranked)
}

func TestProfile_TierFor(t *testing.T) {
	p := BuildProfile("st-1", []DomainAssessment{
		{Domain: shared.DomainMotor, Tier: TierNormal, ZScore: zp(0.5)},
	}, time.Now())

	assert.Equal(t, TierNormal, p.TierFor(shared.DomainMotor))
	assert.Equal(t, TierUnknown, p.TierFor(shared.DomainSelfCare))
	assert.Nil(t, p.ZFor(shared.DomainSelfCare))
}
