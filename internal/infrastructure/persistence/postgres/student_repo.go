package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository against the platform-owned
// students table. Read-only: enrollment writes happen elsewhere.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const studentColumns = `id, date_of_birth, status, enrolled_at, created_at, updated_at`

// scanStudent maps one row to the entity. The date of birth is nullable in
// the intake schema; a NULL maps to the zero time, which scoring treats as
// an input data error for that student.
func scanStudent(row pgx.Row) (*student.Student, error) {
	var s student.Student
	var dob *time.Time

	if err := row.Scan(
		&s.ID,
		&dob,
		&s.Status,
		&s.EnrolledAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if dob != nil {
		s.DateOfBirth = dob.UTC()
	}
	return &s, nil
}

// GetByID returns a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id student.ID) (*student.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)

	s, err := scanStudent(r.conn.QueryRow(ctx, query, string(id)))
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	return s, nil
}

// GetActiveStudents returns every student with active status, the population
// iterated by batch runs. Ordered by ID so runs walk students in a stable
// order.
func (r *StudentRepository) GetActiveStudents(ctx context.Context) ([]*student.Student, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM students
		WHERE status = $1
		ORDER BY id
	`, studentColumns)

	rows, err := r.conn.Query(ctx, query, string(student.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query active students: %w", err)
	}
	defer rows.Close()

	var students []*student.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}

	return students, rows.Err()
}
