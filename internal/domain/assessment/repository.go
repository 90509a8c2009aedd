package assessment

import (
	"context"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// Repository defines read access to raw observations.
// The assessment subsystem owns the records; the pipeline never writes them.
type Repository interface {
	// ListObservations returns all observations for one student and domain
	// within the window, in observation-time order.
	ListObservations(ctx context.Context, studentID student.ID, domain shared.Domain, window Window) ([]Observation, error)
}
