package recommendation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// Priority signals how urgently the activity should be surfaced.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Audience says who the recommendation is addressed to.
type Audience string

const (
	AudienceParent  Audience = "parent"
	AudienceTeacher Audience = "teacher"
	AudienceBoth    Audience = "both"
)

// Status tracks the recommendation lifecycle. Only pending recommendations
// participate in deduplication; once acted on, the same activity may be
// recommended again later.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDismissed Status = "dismissed"
	StatusCompleted Status = "completed"
)

// Recommendation links a student to a suggested catalog activity for a
// struggling domain.
type Recommendation struct {
	ID         uuid.UUID     `json:"id"`
	StudentID  student.ID    `json:"student_id"`
	Domain     shared.Domain `json:"domain"`
	ActivityID ActivityID    `json:"activity_id"`
	Rationale  string        `json:"rationale"`
	Priority   Priority      `json:"priority"`
	Audience   Audience      `json:"audience"`
	Status     Status        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// New builds a pending recommendation with a fresh identifier.
func New(studentID student.ID, activity Activity, priority Priority, audience Audience, rationale string) Recommendation {
	return Recommendation{
		ID:         uuid.New(),
		StudentID:  studentID,
		Domain:     activity.Domain,
		ActivityID: activity.ID,
		Rationale:  rationale,
		Priority:   priority,
		Audience:   audience,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// PriorityFor applies the urgency heuristic on the percent scale.
// Scores a full point bucket below the threshold are urgent; anything under
// the threshold still warrants attention; the rest is enrichment.
func PriorityFor(currentScore, threshold float64) Priority {
	switch {
	case currentScore < threshold-1:
		return PriorityHigh
	case currentScore < threshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Rationale renders the standard explanation attached to a generated
// recommendation.
func RationaleFor(domain shared.Domain, tier string) string {
	return fmt.Sprintf("%s development is at %s tier relative to the age cohort", domain, tier)
}
