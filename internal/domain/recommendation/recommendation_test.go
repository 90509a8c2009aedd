package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		threshold float64
		want      Priority
	}{
		{"well below threshold", 40, 50, PriorityHigh},
		{"just past the high cutoff", 48.9, 50, PriorityHigh},
		{"inside the medium band", 49.5, 50, PriorityMedium},
		{"exactly at high cutoff is medium", 49, 50, PriorityMedium},
		{"at threshold", 50, 50, PriorityLow},
		{"above threshold", 62, 50, PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriorityFor(tt.score, tt.threshold))
		})
	}
}

func TestActivity_SuitableFor(t *testing.T) {
	act := Activity{
		ID:           "act-1",
		Domain:       shared.DomainMotor,
		AgeMinMonths: 36,
		AgeMaxMonths: 48,
	}

	assert.True(t, act.SuitableFor(shared.DomainMotor, 36))
	assert.True(t, act.SuitableFor(shared.DomainMotor, 48))
	assert.True(t, act.SuitableFor(shared.DomainMotor, 42))
	assert.False(t, act.SuitableFor(shared.DomainMotor, 35))
	assert.False(t, act.SuitableFor(shared.DomainMotor, 49))
	assert.False(t, act.SuitableFor(shared.DomainLanguage, 42))
}

func TestNew(t *testing.T) {
	act := Activity{
		ID:     "act-7",
		Title:  "Bead threading",
		Domain: shared.DomainMotor,
	}

	rec := New("st-1", act, PriorityHigh, AudienceParent, "fine motor practice")

	assert.NotEqual(t, rec.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, shared.DomainMotor, rec.Domain)
	assert.Equal(t, ActivityID("act-7"), rec.ActivityID)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestAudienceValues(t *testing.T) {
	act := Activity{ID: "act-7", Domain: shared.DomainMotor}

	for _, audience := range []Audience{AudienceParent, AudienceTeacher, AudienceBoth} {
		rec := New("st-1", act, PriorityMedium, audience, "shared practice")
		assert.Equal(t, audience, rec.Audience)
	}
}

func TestRationaleFor(t *testing.T) {
	got := RationaleFor(shared.DomainLanguage, "risk")
	assert.Contains(t, got, "language")
	assert.Contains(t, got, "risk")
}
