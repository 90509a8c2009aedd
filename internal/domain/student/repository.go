package student

import "context"

// Repository defines persistence operations for students.
// The analytics core only reads students; writes belong to the enrollment
// subsystem.
type Repository interface {
	// GetByID returns a student by internal ID.
	GetByID(ctx context.Context, id ID) (*Student, error)

	// GetActiveStudents returns every student with StatusActive.
	// This is the population iterated by batch runs.
	GetActiveStudents(ctx context.Context) ([]*Student, error)
}
