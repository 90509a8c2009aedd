package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/batch"
)

// ══════════════════════════════════════════════════════════════════════════════
// BATCH RUN HISTORY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RunHistoryRepository implements batch.HistoryRepository for PostgreSQL.
type RunHistoryRepository struct {
	conn *Connection
}

// NewRunHistoryRepository creates a new RunHistoryRepository.
func NewRunHistoryRepository(conn *Connection) *RunHistoryRepository {
	return &RunHistoryRepository{conn: conn}
}

// Record writes a finished run.
func (r *RunHistoryRepository) Record(ctx context.Context, record batch.RunRecord) error {
	errorsJSON, err := json.Marshal(record.Summary.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal run errors: %w", err)
	}

	query := `
		INSERT INTO batch_runs (id, job_name, started_at, finished_at, processed, succeeded, failed, errors, aborted, abort_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.conn.Exec(ctx, query,
		record.ID,
		record.JobName,
		record.StartedAt,
		record.FinishedAt,
		record.Summary.Processed,
		record.Summary.Succeeded,
		record.Summary.Failed,
		errorsJSON,
		record.Aborted,
		nullableString(record.AbortReason),
	)
	if err != nil {
		return fmt.Errorf("failed to record batch run: %w", err)
	}

	return nil
}

// Recent returns the latest runs for a job, newest first.
func (r *RunHistoryRepository) Recent(ctx context.Context, jobName string, limit int) ([]batch.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, job_name, started_at, finished_at, processed, succeeded, failed, errors, aborted, abort_reason
		FROM batch_runs
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch runs: %w", err)
	}
	defer rows.Close()

	var records []batch.RunRecord
	for rows.Next() {
		var rec batch.RunRecord
		var errorsJSON []byte
		var abortReason *string

		if err := rows.Scan(
			&rec.ID,
			&rec.JobName,
			&rec.StartedAt,
			&rec.FinishedAt,
			&rec.Summary.Processed,
			&rec.Summary.Succeeded,
			&rec.Summary.Failed,
			&errorsJSON,
			&rec.Aborted,
			&abortReason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan batch run: %w", err)
		}

		if err := json.Unmarshal(errorsJSON, &rec.Summary.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run errors: %w", err)
		}
		if abortReason != nil {
			rec.AbortReason = *abortReason
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
