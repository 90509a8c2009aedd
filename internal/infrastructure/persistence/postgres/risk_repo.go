package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/risk"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RISK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RiskRepository implements risk.Repository for PostgreSQL. One row per
// student; each run replaces the previous snapshot.
type RiskRepository struct {
	conn *Connection
}

// NewRiskRepository creates a new RiskRepository.
func NewRiskRepository(conn *Connection) *RiskRepository {
	return &RiskRepository{conn: conn}
}

// assessmentRow is the JSONB shape of one per-domain assessment.
type assessmentRow struct {
	Domain string   `json:"domain"`
	Tier   string   `json:"tier"`
	ZScore *float64 `json:"z_score,omitempty"`
}

// Upsert writes the snapshot, overwriting an existing one for the student.
func (r *RiskRepository) Upsert(ctx context.Context, profile risk.Profile) error {
	assessments := make([]assessmentRow, 0, len(profile.Domains))
	for _, a := range profile.Domains {
		assessments = append(assessments, assessmentRow{
			Domain: string(a.Domain),
			Tier:   string(a.Tier),
			ZScore: a.ZScore,
		})
	}
	assessmentsJSON, err := json.Marshal(assessments)
	if err != nil {
		return fmt.Errorf("failed to marshal assessments: %w", err)
	}

	query := `
		INSERT INTO risk_profiles (student_id, overall_tier, assessments, at_risk_domains, unknown_domains, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id) DO UPDATE SET
			overall_tier = EXCLUDED.overall_tier,
			assessments = EXCLUDED.assessments,
			at_risk_domains = EXCLUDED.at_risk_domains,
			unknown_domains = EXCLUDED.unknown_domains,
			computed_at = EXCLUDED.computed_at
	`

	_, err = r.conn.Exec(ctx, query,
		string(profile.StudentID),
		string(profile.OverallTier),
		assessmentsJSON,
		domainsToStrings(profile.AtRiskDomains),
		domainsToStrings(profile.UnknownDomains),
		profile.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert risk profile: %w", err)
	}

	return nil
}

// Get returns the current snapshot for a student.
func (r *RiskRepository) Get(ctx context.Context, studentID student.ID) (risk.Profile, error) {
	query := `
		SELECT student_id, overall_tier, assessments, at_risk_domains, unknown_domains, computed_at
		FROM risk_profiles
		WHERE student_id = $1
	`

	var profile risk.Profile
	var assessmentsJSON []byte
	var atRisk, unknown []string

	err := r.conn.QueryRow(ctx, query, string(studentID)).Scan(
		&profile.StudentID,
		&profile.OverallTier,
		&assessmentsJSON,
		&atRisk,
		&unknown,
		&profile.ComputedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return risk.Profile{}, risk.ErrProfileNotFound
		}
		return risk.Profile{}, fmt.Errorf("failed to get risk profile: %w", err)
	}

	var assessments []assessmentRow
	if err := json.Unmarshal(assessmentsJSON, &assessments); err != nil {
		return risk.Profile{}, fmt.Errorf("failed to unmarshal assessments: %w", err)
	}
	for _, a := range assessments {
		profile.Domains = append(profile.Domains, risk.DomainAssessment{
			Domain: shared.Domain(a.Domain),
			Tier:   risk.Tier(a.Tier),
			ZScore: a.ZScore,
		})
	}
	profile.AtRiskDomains = stringsToDomains(atRisk)
	profile.UnknownDomains = stringsToDomains(unknown)

	return profile, nil
}

func domainsToStrings(domains []shared.Domain) []string {
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = string(d)
	}
	return out
}

func stringsToDomains(values []string) []shared.Domain {
	if len(values) == 0 {
		return nil
	}
	out := make([]shared.Domain, len(values))
	for i, v := range values {
		out[i] = shared.Domain(v)
	}
	return out
}
