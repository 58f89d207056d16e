package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_sessions_and_academic_structure",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_students_and_enrollments",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_assessment_config",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_results",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: SESSIONS, CLASSES, SECTIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Academic sessions and class structure
-- Version: 001

CREATE TABLE IF NOT EXISTS sessions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    name VARCHAR(50) NOT NULL,
    start_date DATE NOT NULL,
    end_date DATE NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    is_locked BOOLEAN NOT NULL DEFAULT FALSE,
    locked_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_period CHECK (end_date > start_date),
    CONSTRAINT uq_sessions_tenant_name UNIQUE (tenant_id, name)
);

-- At most one active session per school.
CREATE UNIQUE INDEX IF NOT EXISTS uq_sessions_one_active
    ON sessions(tenant_id) WHERE is_active;

CREATE INDEX IF NOT EXISTS idx_sessions_tenant ON sessions(tenant_id);

CREATE TABLE IF NOT EXISTS classes (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    name VARCHAR(50) NOT NULL,
    numeric_level INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_classes_tenant_name UNIQUE (tenant_id, name)
);

CREATE INDEX IF NOT EXISTS idx_classes_tenant ON classes(tenant_id, numeric_level);

CREATE TABLE IF NOT EXISTS sections (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
    name VARCHAR(50) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_sections_class_name UNIQUE (class_id, name)
);

CREATE INDEX IF NOT EXISTS idx_sections_tenant_class ON sections(tenant_id, class_id);
`

const migration001Down = `
DROP TABLE IF EXISTS sections;
DROP TABLE IF EXISTS classes;
DROP TABLE IF EXISTS sessions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: STUDENTS AND ENROLLMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Students and their per-session enrollments
-- Version: 002

CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    admission_no VARCHAR(50) NOT NULL,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    date_of_birth DATE NOT NULL,
    gender VARCHAR(10) NOT NULL,
    guardian_name VARCHAR(200) NOT NULL DEFAULT '',
    phone VARCHAR(30) NOT NULL DEFAULT '',
    password_hash VARCHAR(100) NOT NULL DEFAULT '',
    current_session_id UUID,
    current_class_id UUID,
    current_section_id UUID,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    admitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_gender CHECK (gender IN ('male', 'female', 'other')),
    CONSTRAINT uq_students_admission UNIQUE (tenant_id, admission_no)
);

CREATE INDEX IF NOT EXISTS idx_students_tenant ON students(tenant_id);
CREATE INDEX IF NOT EXISTS idx_students_current_section
    ON students(tenant_id, current_session_id, current_section_id) WHERE is_active;

CREATE TABLE IF NOT EXISTS enrollments (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    session_id UUID NOT NULL REFERENCES sessions(id),
    class_id UUID NOT NULL REFERENCES classes(id),
    section_id UUID NOT NULL REFERENCES sections(id),
    roll_no VARCHAR(50) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    promoted_to_id UUID REFERENCES enrollments(id),
    promotion_date DATE,
    remarks TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN
        ('active', 'promoted', 'retained', 'transferred', 'graduated', 'dropped')),
    -- a record can never be its own successor
    CONSTRAINT no_self_successor CHECK (promoted_to_id IS NULL OR promoted_to_id <> id),
    CONSTRAINT uq_enrollments_student_session UNIQUE (student_id, session_id)
);

CREATE INDEX IF NOT EXISTS idx_enrollments_tenant_session ON enrollments(tenant_id, session_id);
CREATE INDEX IF NOT EXISTS idx_enrollments_student ON enrollments(tenant_id, student_id, created_at);
CREATE INDEX IF NOT EXISTS idx_enrollments_section_active
    ON enrollments(tenant_id, session_id, section_id) WHERE status = 'active';
`

const migration002Down = `
DROP TABLE IF EXISTS enrollments;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: ASSESSMENT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Category registry, subjects and marks distributions
-- Version: 003

CREATE TABLE IF NOT EXISTS assessment_categories (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    code VARCHAR(50) NOT NULL,
    name VARCHAR(100) NOT NULL,
    category_type VARCHAR(20) NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_category_type CHECK (category_type IN
        ('summative', 'formative', 'project', 'practical', 'other')),
    CONSTRAINT uq_categories_tenant_code UNIQUE (tenant_id, code)
);

CREATE INDEX IF NOT EXISTS idx_categories_tenant_order
    ON assessment_categories(tenant_id, sort_order) WHERE is_active;

CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL,
    kind VARCHAR(20) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_kind CHECK (kind IN ('core', 'cocurricular', 'optional')),
    CONSTRAINT uq_subjects_class_name UNIQUE (class_id, name)
);

CREATE INDEX IF NOT EXISTS idx_subjects_tenant_class ON subjects(tenant_id, class_id, kind);

CREATE TABLE IF NOT EXISTS marks_distributions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
    category_id UUID NOT NULL REFERENCES assessment_categories(id) ON DELETE CASCADE,
    kind VARCHAR(20) NOT NULL,
    subject_id UUID REFERENCES subjects(id) ON DELETE CASCADE,
    full_marks INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_dist_kind CHECK (kind IN ('core', 'cocurricular', 'optional')),
    CONSTRAINT valid_full_marks CHECK (full_marks >= 0)
);

-- One row per cell; a NULL subject_id is the kind-wide row.
CREATE UNIQUE INDEX IF NOT EXISTS uq_distributions_cell
    ON marks_distributions(tenant_id, class_id, category_id, kind,
        COALESCE(subject_id, '00000000-0000-0000-0000-000000000000'::uuid));

CREATE INDEX IF NOT EXISTS idx_distributions_class ON marks_distributions(tenant_id, class_id);
`

const migration003Down = `
DROP TABLE IF EXISTS marks_distributions;
DROP TABLE IF EXISTS subjects;
DROP TABLE IF EXISTS assessment_categories;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: RESULTS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Subject, co-curricular and optional results
-- Version: 004

CREATE TABLE IF NOT EXISTS results (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    session_id UUID NOT NULL REFERENCES sessions(id),

    -- graded lines as [{"label": ..., "obtained": ..., "full": ...}]
    lines JSONB NOT NULL DEFAULT '[]'::jsonb,

    total_obtained INTEGER NOT NULL DEFAULT 0,
    total_full INTEGER NOT NULL DEFAULT 0,
    overall_grade VARCHAR(5) NOT NULL DEFAULT 'D',
    conduct VARCHAR(50) NOT NULL DEFAULT 'Good',
    attendance_days INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_totals CHECK (total_obtained >= 0 AND total_full >= 0),
    CONSTRAINT uq_results_cell UNIQUE (student_id, subject_id, session_id)
);

CREATE INDEX IF NOT EXISTS idx_results_student_session ON results(tenant_id, student_id, session_id);

CREATE TABLE IF NOT EXISTS cocurricular_results (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    session_id UUID NOT NULL REFERENCES sessions(id),
    first_term INTEGER NOT NULL DEFAULT 0,
    second_term INTEGER NOT NULL DEFAULT 0,
    final_term INTEGER NOT NULL DEFAULT 0,
    full_marks INTEGER NOT NULL DEFAULT 50,
    first_term_grade VARCHAR(5) NOT NULL DEFAULT 'D',
    second_term_grade VARCHAR(5) NOT NULL DEFAULT 'D',
    final_term_grade VARCHAR(5) NOT NULL DEFAULT 'D',
    overall_grade VARCHAR(5) NOT NULL DEFAULT 'D',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_cocur_marks CHECK (
        first_term >= 0 AND second_term >= 0 AND final_term >= 0 AND full_marks >= 0),
    CONSTRAINT uq_cocur_cell UNIQUE (student_id, subject_id, session_id)
);

CREATE INDEX IF NOT EXISTS idx_cocur_student_session
    ON cocurricular_results(tenant_id, student_id, session_id);

CREATE TABLE IF NOT EXISTS optional_results (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tenant_id UUID NOT NULL,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    session_id UUID NOT NULL REFERENCES sessions(id),
    obtained INTEGER NOT NULL DEFAULT 0,
    full_marks INTEGER NOT NULL DEFAULT 50,
    grade VARCHAR(5) NOT NULL DEFAULT 'D',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_opt_marks CHECK (obtained >= 0 AND full_marks >= 0),
    CONSTRAINT uq_opt_cell UNIQUE (student_id, subject_id, session_id)
);

CREATE INDEX IF NOT EXISTS idx_opt_student_session
    ON optional_results(tenant_id, student_id, session_id);
`

const migration004Down = `
DROP TABLE IF EXISTS optional_results;
DROP TABLE IF EXISTS cocurricular_results;
DROP TABLE IF EXISTS results;
`
