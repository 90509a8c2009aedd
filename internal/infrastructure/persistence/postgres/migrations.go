package postgres

// Migrations cover only the tables this module owns: the norm table and the
// derived analytics (z-profiles, risk snapshots, recommendations). Students,
// raw observations, and the activity catalog belong to other subsystems and
// are read through their existing tables.

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: NORM TABLE
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS norm_entries (
    age_bucket_months INTEGER NOT NULL,
    domain VARCHAR(20) NOT NULL,
    mean DOUBLE PRECISION NOT NULL,
    std_dev DOUBLE PRECISION NOT NULL,
    sample_size INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (age_bucket_months, domain),

    CONSTRAINT valid_norm_domain CHECK (domain IN ('motor', 'language', 'cognitive', 'social', 'self_care')),
    CONSTRAINT valid_std_dev CHECK (std_dev > 0),
    CONSTRAINT valid_age_bucket CHECK (age_bucket_months BETWEEN 24 AND 72)
);
`

const migration001Down = `DROP TABLE IF EXISTS norm_entries;`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: Z-PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS z_profiles (
    id BIGSERIAL PRIMARY KEY,
    student_id UUID NOT NULL,
    domain VARCHAR(20) NOT NULL,
    period DATE NOT NULL,
    z_score DOUBLE PRECISION,
    raw_mean DOUBLE PRECISION,
    sample_count INTEGER NOT NULL DEFAULT 0,
    computed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_zp_domain CHECK (domain IN ('motor', 'language', 'cognitive', 'social', 'self_care')),
    CONSTRAINT uq_z_profiles UNIQUE (student_id, domain, period)
);

CREATE INDEX IF NOT EXISTS idx_z_profiles_student ON z_profiles(student_id);
CREATE INDEX IF NOT EXISTS idx_z_profiles_student_domain ON z_profiles(student_id, domain, period);
`

const migration002Down = `DROP TABLE IF EXISTS z_profiles;`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: RISK SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS risk_profiles (
    student_id UUID PRIMARY KEY,
    overall_tier VARCHAR(20) NOT NULL,
    assessments JSONB NOT NULL DEFAULT '[]'::jsonb,
    at_risk_domains TEXT[] NOT NULL DEFAULT '{}',
    unknown_domains TEXT[] NOT NULL DEFAULT '{}',
    computed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_overall_tier CHECK (overall_tier IN ('unknown', 'normal', 'watch', 'risk', 'high_risk'))
);
`

const migration003Down = `DROP TABLE IF EXISTS risk_profiles;`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: RECOMMENDATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS recommendations (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL,
    domain VARCHAR(20) NOT NULL,
    activity_id VARCHAR(64) NOT NULL,
    rationale TEXT NOT NULL DEFAULT '',
    priority VARCHAR(10) NOT NULL,
    audience VARCHAR(10) NOT NULL DEFAULT 'parent',
    status VARCHAR(12) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_rec_domain CHECK (domain IN ('motor', 'language', 'cognitive', 'social', 'self_care')),
    CONSTRAINT valid_priority CHECK (priority IN ('high', 'medium', 'low')),
    CONSTRAINT valid_audience CHECK (audience IN ('parent', 'teacher', 'both')),
    CONSTRAINT valid_rec_status CHECK (status IN ('pending', 'accepted', 'dismissed', 'completed'))
);

CREATE INDEX IF NOT EXISTS idx_recommendations_student ON recommendations(student_id, created_at DESC);

-- The dedupe rule: at most one PENDING recommendation per
-- (student, domain, activity). Resolved recommendations do not block repeats.
CREATE UNIQUE INDEX IF NOT EXISTS uq_recommendations_pending
    ON recommendations(student_id, domain, activity_id)
    WHERE status = 'pending';
`

const migration004Down = `DROP TABLE IF EXISTS recommendations;`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: BATCH RUN HISTORY
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
CREATE TABLE IF NOT EXISTS batch_runs (
    id UUID PRIMARY KEY,
    job_name VARCHAR(40) NOT NULL,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    finished_at TIMESTAMP WITH TIME ZONE,
    processed INTEGER NOT NULL DEFAULT 0,
    succeeded INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    errors JSONB NOT NULL DEFAULT '[]'::jsonb,
    aborted BOOLEAN NOT NULL DEFAULT FALSE,
    abort_reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_batch_runs_job ON batch_runs(job_name, started_at DESC);
`

const migration005Down = `DROP TABLE IF EXISTS batch_runs;`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_norm_entries", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_z_profiles", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_risk_profiles", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_recommendations", UpSQL: migration004Up, DownSQL: migration004Down},
		{Version: 5, Name: "create_batch_runs", UpSQL: migration005Up, DownSQL: migration005Down},
	}
}
