package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/application/query"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
	"github.com/brightsteps/brightsteps-analytics/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "BrightSteps Analytics API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":          "/health",
			"recommendations": "/api/v1/students/{id}/recommendations",
			"trajectory":      "/api/v1/students/{id}/trajectory",
			"jobs":            "/api/v1/jobs",
			"trigger":         "/api/v1/runs/{job}",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ANALYTICS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetRecommendations handles GET /api/v1/students/{id}/recommendations.
func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathStudentID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.GetRecommendationsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Recommendations handler not configured")
		return
	}

	result, err := s.deps.GetRecommendationsHandler.Handle(r.Context(), query.GetRecommendationsQuery{
		StudentID: studentID,
	})
	if err != nil {
		s.writeStudentError(w, r, err, "failed to get recommendations", studentID)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetTrajectory handles GET /api/v1/students/{id}/trajectory.
// The horizon is set with ?months=N, defaulting to three months.
func (s *Server) handleGetTrajectory(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathStudentID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.PredictTrajectoryHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Trajectory handler not configured")
		return
	}

	q := query.PredictTrajectoryQuery{
		StudentID:   studentID,
		MonthsAhead: getQueryParamInt(r, "months", 0),
	}
	if err := q.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	summary, err := s.deps.PredictTrajectoryHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeStudentError(w, r, err, "failed to predict trajectory", studentID)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// writeStudentError maps application errors onto HTTP statuses.
func (s *Server) writeStudentError(w http.ResponseWriter, r *http.Request, err error, msg string, studentID student.ID) {
	switch {
	case errors.Is(err, student.ErrStudentNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "Student not found")
	case errors.Is(err, shared.ErrStoreUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "Storage is temporarily unavailable")
	default:
		s.logger.Error(msg,
			logger.Err(err),
			logger.StudentID(string(studentID)),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", msg)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type jobView struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
	RunCount    int64     `json:"run_count"`
	FailCount   int64     `json:"fail_count"`
}

// handleListJobs handles GET /api/v1/jobs.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Scheduler not configured")
		return
	}

	infos := s.deps.Scheduler.ListJobs()
	views := make([]jobView, 0, len(infos))
	for _, info := range infos {
		views = append(views, jobView{
			Name:        info.Name,
			Description: info.Description,
			Enabled:     info.Enabled,
			Schedule:    info.Schedule,
			LastRun:     info.LastRun,
			NextRun:     info.NextRun,
			RunCount:    info.RunCount,
			FailCount:   info.FailCount,
		})
	}

	writeJSON(w, http.StatusOK, views)
}

type jobRunView struct {
	JobName     string    `json:"job_name"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Manual      bool      `json:"manual"`
}

// handleJobHistory handles GET /api/v1/jobs/history.
func (s *Server) handleJobHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Scheduler not configured")
		return
	}

	limit := getQueryParamInt(r, "limit", 20)
	results := s.deps.Scheduler.History(limit)

	views := make([]jobRunView, 0, len(results))
	for _, res := range results {
		view := jobRunView{
			JobName:     res.JobName,
			StartedAt:   res.StartedAt,
			CompletedAt: res.CompletedAt,
			Duration:    res.Duration.String(),
			Success:     res.Success,
			Manual:      res.Manual,
		}
		if res.Error != nil {
			view.Error = res.Error.Error()
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, views)
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCH TRIGGER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// triggerResult is the envelope returned by a manual batch trigger.
type triggerResult struct {
	Job        string      `json:"job"`
	Summary    interface{} `json:"summary"`
	DurationMS int64       `json:"duration_ms"`
}

// handleTriggerRun handles POST /api/v1/runs/{job}. The pass runs inside the
// request so the external scheduler that called it receives the real counts.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	jobName := r.PathValue("job")

	if s.deps.Triggers == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "No batch jobs registered")
		return
	}

	ctx := r.Context()
	if s.config.TriggerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TriggerTimeout)
		defer cancel()
	}

	s.logger.Info("batch trigger received",
		logger.JobName(jobName),
		logger.String("request_id", getRequestID(r.Context())),
	)

	start := time.Now()
	summary, found, busy, err := s.deps.Triggers.Trigger(ctx, jobName)

	switch {
	case !found:
		writeJSONError(w, http.StatusNotFound, "unknown_job", "No such batch job: "+jobName)
	case busy:
		writeJSONError(w, http.StatusConflict, "already_running", "Job is already running: "+jobName)
	case err != nil:
		s.logger.Error("triggered batch run failed",
			logger.JobName(jobName),
			logger.Err(err),
		)
		status := http.StatusInternalServerError
		code := "run_failed"
		if errors.Is(err, shared.ErrNormTableUnseeded) {
			status = http.StatusConflict
			code = "norm_table_unseeded"
		}
		writeJSONError(w, status, code, err.Error())
	default:
		writeJSON(w, http.StatusOK, triggerResult{
			Job:        jobName,
			Summary:    summary,
			DurationMS: time.Since(start).Milliseconds(),
		})
	}
}

// handleTriggerDisabled responds when no trigger secret is configured.
func (s *Server) handleTriggerDisabled(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, http.StatusForbidden, "triggers_disabled",
		"Batch triggers are disabled: no trigger secret configured")
}
