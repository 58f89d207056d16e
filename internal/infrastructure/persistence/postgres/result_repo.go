package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mektep-io/academic-core/internal/domain/grading"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESULT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const resultColumns = `id, tenant_id, student_id, subject_id, session_id, lines,
	total_obtained, total_full, overall_grade, conduct, attendance_days,
	created_at, updated_at`

// ResultRepository implements grading.ResultRepository for PostgreSQL.
// Graded lines are stored as a JSONB array on the result row.
type ResultRepository struct {
	conn *Connection
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(conn *Connection) *ResultRepository {
	return &ResultRepository{conn: conn}
}

// UpsertResult inserts or replaces a subject result.
func (r *ResultRepository) UpsertResult(ctx context.Context, rec *grading.ResultRecord) error {
	lines, err := json.Marshal(rec.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal result lines: %w", err)
	}

	query := `
		INSERT INTO results (
			id, tenant_id, student_id, subject_id, session_id, lines,
			total_obtained, total_full, overall_grade, conduct, attendance_days,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (student_id, subject_id, session_id) DO UPDATE SET
			lines = EXCLUDED.lines,
			total_obtained = EXCLUDED.total_obtained,
			total_full = EXCLUDED.total_full,
			overall_grade = EXCLUDED.overall_grade,
			conduct = EXCLUDED.conduct,
			attendance_days = EXCLUDED.attendance_days,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.conn.Exec(ctx, query,
		rec.ID,
		rec.TenantID.String(),
		rec.StudentID,
		rec.SubjectID,
		rec.SessionID,
		lines,
		rec.TotalObtained.Int(),
		rec.TotalFull.Int(),
		string(rec.OverallGrade),
		rec.Conduct,
		rec.AttendanceDays,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert result: %w", err)
	}

	return nil
}

// GetResult returns the result for a (student, subject, session) cell.
func (r *ResultRepository) GetResult(ctx context.Context, tenantID shared.TenantID, studentID, subjectID, sessionID string) (*grading.ResultRecord, error) {
	query := `SELECT ` + resultColumns + ` FROM results
		WHERE tenant_id = $1 AND student_id = $2 AND subject_id = $3 AND session_id = $4`

	row := r.conn.QueryRow(ctx, query, tenantID.String(), studentID, subjectID, sessionID)
	return scanResult(row)
}

// ListResultsByStudent returns a student's subject results for a session,
// ordered by subject name.
func (r *ResultRepository) ListResultsByStudent(ctx context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*grading.ResultRecord, error) {
	query := `
		SELECT r.id, r.tenant_id, r.student_id, r.subject_id, r.session_id, r.lines,
			r.total_obtained, r.total_full, r.overall_grade, r.conduct, r.attendance_days,
			r.created_at, r.updated_at
		FROM results r
		JOIN subjects s ON s.id = r.subject_id
		WHERE r.tenant_id = $1 AND r.student_id = $2 AND r.session_id = $3
		ORDER BY s.name
	`

	rows, err := r.conn.Query(ctx, query, tenantID.String(), studentID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var records []*grading.ResultRecord
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanResult(row pgx.Row) (*grading.ResultRecord, error) {
	var (
		rec      grading.ResultRecord
		tenantID string
		lines    []byte
		obtained int
		full     int
		grade    string
	)

	err := row.Scan(
		&rec.ID,
		&tenantID,
		&rec.StudentID,
		&rec.SubjectID,
		&rec.SessionID,
		&lines,
		&obtained,
		&full,
		&grade,
		&rec.Conduct,
		&rec.AttendanceDays,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("grading", "GetResult", shared.ErrNotFound, "result not found")
		}
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}

	if err := json.Unmarshal(lines, &rec.Lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result lines: %w", err)
	}

	rec.TenantID = shared.TenantID(tenantID)
	rec.TotalObtained = shared.Marks(obtained)
	rec.TotalFull = shared.Marks(full)
	rec.OverallGrade = grading.Grade(grade)

	return &rec, nil
}

// ─────────────────────────────────────────────
// Co-curricular results
// ─────────────────────────────────────────────

// UpsertCocurricular inserts or replaces a co-curricular result.
func (r *ResultRepository) UpsertCocurricular(ctx context.Context, rec *grading.CocurricularResult) error {
	query := `
		INSERT INTO cocurricular_results (
			id, tenant_id, student_id, subject_id, session_id,
			first_term, second_term, final_term, full_marks,
			first_term_grade, second_term_grade, final_term_grade, overall_grade,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (student_id, subject_id, session_id) DO UPDATE SET
			first_term = EXCLUDED.first_term,
			second_term = EXCLUDED.second_term,
			final_term = EXCLUDED.final_term,
			full_marks = EXCLUDED.full_marks,
			first_term_grade = EXCLUDED.first_term_grade,
			second_term_grade = EXCLUDED.second_term_grade,
			final_term_grade = EXCLUDED.final_term_grade,
			overall_grade = EXCLUDED.overall_grade,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		rec.ID,
		rec.TenantID.String(),
		rec.StudentID,
		rec.SubjectID,
		rec.SessionID,
		rec.FirstTerm.Int(),
		rec.SecondTerm.Int(),
		rec.FinalTerm.Int(),
		rec.FullMarks.Int(),
		string(rec.FirstTermGrade),
		string(rec.SecondTermGrade),
		string(rec.FinalTermGrade),
		string(rec.OverallGrade),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cocurricular result: %w", err)
	}

	return nil
}

// ListCocurricularByStudent returns a student's co-curricular results
// for a session, ordered by subject name.
func (r *ResultRepository) ListCocurricularByStudent(ctx context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*grading.CocurricularResult, error) {
	query := `
		SELECT r.id, r.tenant_id, r.student_id, r.subject_id, r.session_id,
			r.first_term, r.second_term, r.final_term, r.full_marks,
			r.first_term_grade, r.second_term_grade, r.final_term_grade, r.overall_grade,
			r.created_at, r.updated_at
		FROM cocurricular_results r
		JOIN subjects s ON s.id = r.subject_id
		WHERE r.tenant_id = $1 AND r.student_id = $2 AND r.session_id = $3
		ORDER BY s.name
	`

	rows, err := r.conn.Query(ctx, query, tenantID.String(), studentID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cocurricular results: %w", err)
	}
	defer rows.Close()

	var records []*grading.CocurricularResult
	for rows.Next() {
		var (
			rec                        grading.CocurricularResult
			tenant                     string
			first, second, final, full int
			g1, g2, g3, overall        string
		)
		err := rows.Scan(
			&rec.ID, &tenant, &rec.StudentID, &rec.SubjectID, &rec.SessionID,
			&first, &second, &final, &full,
			&g1, &g2, &g3, &overall,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cocurricular result: %w", err)
		}

		rec.TenantID = shared.TenantID(tenant)
		rec.FirstTerm = shared.Marks(first)
		rec.SecondTerm = shared.Marks(second)
		rec.FinalTerm = shared.Marks(final)
		rec.FullMarks = shared.Marks(full)
		rec.FirstTermGrade = grading.Grade(g1)
		rec.SecondTermGrade = grading.Grade(g2)
		rec.FinalTermGrade = grading.Grade(g3)
		rec.OverallGrade = grading.Grade(overall)

		records = append(records, &rec)
	}

	return records, rows.Err()
}

// ─────────────────────────────────────────────
// Optional-subject results
// ─────────────────────────────────────────────

// UpsertOptional inserts or replaces an optional-subject result.
func (r *ResultRepository) UpsertOptional(ctx context.Context, rec *grading.OptionalResult) error {
	query := `
		INSERT INTO optional_results (
			id, tenant_id, student_id, subject_id, session_id,
			obtained, full_marks, grade, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (student_id, subject_id, session_id) DO UPDATE SET
			obtained = EXCLUDED.obtained,
			full_marks = EXCLUDED.full_marks,
			grade = EXCLUDED.grade,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		rec.ID,
		rec.TenantID.String(),
		rec.StudentID,
		rec.SubjectID,
		rec.SessionID,
		rec.Obtained.Int(),
		rec.Full.Int(),
		string(rec.Grade),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert optional result: %w", err)
	}

	return nil
}

// ListOptionalByStudent returns a student's optional-subject results
// for a session, ordered by subject name.
func (r *ResultRepository) ListOptionalByStudent(ctx context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*grading.OptionalResult, error) {
	query := `
		SELECT r.id, r.tenant_id, r.student_id, r.subject_id, r.session_id,
			r.obtained, r.full_marks, r.grade, r.created_at, r.updated_at
		FROM optional_results r
		JOIN subjects s ON s.id = r.subject_id
		WHERE r.tenant_id = $1 AND r.student_id = $2 AND r.session_id = $3
		ORDER BY s.name
	`

	rows, err := r.conn.Query(ctx, query, tenantID.String(), studentID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list optional results: %w", err)
	}
	defer rows.Close()

	var records []*grading.OptionalResult
	for rows.Next() {
		var (
			rec            grading.OptionalResult
			tenant         string
			obtained, full int
			grade          string
		)
		err := rows.Scan(
			&rec.ID, &tenant, &rec.StudentID, &rec.SubjectID, &rec.SessionID,
			&obtained, &full, &grade, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan optional result: %w", err)
		}

		rec.TenantID = shared.TenantID(tenant)
		rec.Obtained = shared.Marks(obtained)
		rec.Full = shared.Marks(full)
		rec.Grade = grading.Grade(grade)

		records = append(records, &rec)
	}

	return records, rows.Err()
}
