package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const studentColumns = `id, tenant_id, admission_no, first_name, last_name,
	date_of_birth, gender, guardian_name, phone, password_hash,
	COALESCE(current_session_id::text, ''), COALESCE(current_class_id::text, ''),
	COALESCE(current_section_id::text, ''), is_active, admitted_at, created_at, updated_at`

// StudentRepository implements enrollment.StudentRepository for PostgreSQL.
// It runs against a Querier so the same code serves both pool-backed
// reads and transaction-scoped writes inside a unit of work.
type StudentRepository struct {
	q Querier
}

// NewStudentRepository creates a pool-backed StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{q: conn}
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *enrollment.Student) error {
	query := `
		INSERT INTO students (
			id, tenant_id, admission_no, first_name, last_name,
			date_of_birth, gender, guardian_name, phone, password_hash,
			current_session_id, current_class_id, current_section_id,
			is_active, admitted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			NULLIF($11, '')::uuid, NULLIF($12, '')::uuid, NULLIF($13, '')::uuid,
			$14, $15, $16, $17)
	`

	_, err := r.q.Exec(ctx, query,
		s.ID,
		s.TenantID.String(),
		s.AdmissionNo,
		s.FirstName,
		s.LastName,
		s.DateOfBirth,
		string(s.Gender),
		s.GuardianName,
		s.Phone,
		s.PasswordHash,
		s.CurrentSessionID,
		s.CurrentClassID,
		s.CurrentSectionID,
		s.IsActive,
		s.AdmittedAt,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("enrollment", "Create", shared.ErrAlreadyExists, "admission number already exists in school")
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID returns a student by internal ID within a school.
func (r *StudentRepository) GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*enrollment.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE tenant_id = $1 AND id = $2`

	row := r.q.QueryRow(ctx, query, tenantID.String(), id)
	return scanStudent(row)
}

// GetByAdmissionNo returns a student by admission number.
func (r *StudentRepository) GetByAdmissionNo(ctx context.Context, tenantID shared.TenantID, admissionNo string) (*enrollment.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE tenant_id = $1 AND admission_no = $2`

	row := r.q.QueryRow(ctx, query, tenantID.String(), admissionNo)
	return scanStudent(row)
}

// Update persists a modified student.
func (r *StudentRepository) Update(ctx context.Context, s *enrollment.Student) error {
	query := `
		UPDATE students SET
			first_name = $1,
			last_name = $2,
			gender = $3,
			guardian_name = $4,
			phone = $5,
			password_hash = $6,
			current_session_id = NULLIF($7, '')::uuid,
			current_class_id = NULLIF($8, '')::uuid,
			current_section_id = NULLIF($9, '')::uuid,
			is_active = $10,
			updated_at = $11
		WHERE tenant_id = $12 AND id = $13
	`

	result, err := r.q.Exec(ctx, query,
		s.FirstName,
		s.LastName,
		string(s.Gender),
		s.GuardianName,
		s.Phone,
		s.PasswordHash,
		s.CurrentSessionID,
		s.CurrentClassID,
		s.CurrentSectionID,
		s.IsActive,
		time.Now().UTC(),
		s.TenantID.String(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("enrollment", "Update", shared.ErrNotFound, "student not found")
	}

	return nil
}

// ListBySection returns the active students currently placed in a section.
func (r *StudentRepository) ListBySection(ctx context.Context, tenantID shared.TenantID, sessionID, sectionID string) ([]*enrollment.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE tenant_id = $1 AND current_session_id = $2 AND current_section_id = $3 AND is_active
		ORDER BY last_name, first_name`

	rows, err := r.q.Query(ctx, query, tenantID.String(), sessionID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []*enrollment.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}

	return students, rows.Err()
}

// ExistsByAdmissionNo reports whether the admission number is taken.
func (r *StudentRepository) ExistsByAdmissionNo(ctx context.Context, tenantID shared.TenantID, admissionNo string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE tenant_id = $1 AND admission_no = $2)`,
		tenantID.String(), admissionNo,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admission number: %w", err)
	}
	return exists, nil
}

func scanStudent(row pgx.Row) (*enrollment.Student, error) {
	var (
		s        enrollment.Student
		tenantID string
		gender   string
	)

	err := row.Scan(
		&s.ID,
		&tenantID,
		&s.AdmissionNo,
		&s.FirstName,
		&s.LastName,
		&s.DateOfBirth,
		&gender,
		&s.GuardianName,
		&s.Phone,
		&s.PasswordHash,
		&s.CurrentSessionID,
		&s.CurrentClassID,
		&s.CurrentSectionID,
		&s.IsActive,
		&s.AdmittedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("enrollment", "Get", shared.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	s.TenantID = shared.TenantID(tenantID)
	s.Gender = enrollment.Gender(gender)

	return &s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const enrollmentColumns = `id, tenant_id, student_id, session_id, class_id, section_id,
	roll_no, status, COALESCE(promoted_to_id::text, ''), promotion_date, remarks,
	created_at, updated_at`

// EnrollmentRepository implements enrollment.Repository for PostgreSQL.
type EnrollmentRepository struct {
	q Querier
}

// NewEnrollmentRepository creates a pool-backed EnrollmentRepository.
func NewEnrollmentRepository(conn *Connection) *EnrollmentRepository {
	return &EnrollmentRepository{q: conn}
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	query := `
		INSERT INTO enrollments (
			id, tenant_id, student_id, session_id, class_id, section_id,
			roll_no, status, promoted_to_id, promotion_date, remarks,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			NULLIF($9, '')::uuid, $10, $11, $12, $13)
	`

	_, err := r.q.Exec(ctx, query,
		e.ID,
		e.TenantID.String(),
		e.StudentID,
		e.SessionID,
		e.ClassID,
		e.SectionID,
		e.RollNo.String(),
		string(e.Status),
		e.PromotedToID,
		nullableTime(e.PromotionDate),
		e.Remarks,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("enrollment", "Create", shared.ErrAlreadyExists, "student already enrolled in session")
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// GetByID returns an enrollment by ID within a school.
func (r *EnrollmentRepository) GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*enrollment.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE tenant_id = $1 AND id = $2`

	row := r.q.QueryRow(ctx, query, tenantID.String(), id)
	return scanEnrollment(row)
}

// GetByStudentAndSession returns the student's enrollment in a session.
func (r *EnrollmentRepository) GetByStudentAndSession(ctx context.Context, tenantID shared.TenantID, studentID, sessionID string) (*enrollment.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments
		WHERE tenant_id = $1 AND student_id = $2 AND session_id = $3`

	row := r.q.QueryRow(ctx, query, tenantID.String(), studentID, sessionID)
	return scanEnrollment(row)
}

// Update persists a modified enrollment.
func (r *EnrollmentRepository) Update(ctx context.Context, e *enrollment.Enrollment) error {
	query := `
		UPDATE enrollments SET
			class_id = $1,
			section_id = $2,
			roll_no = $3,
			status = $4,
			promoted_to_id = NULLIF($5, '')::uuid,
			promotion_date = $6,
			remarks = $7,
			updated_at = $8
		WHERE tenant_id = $9 AND id = $10
	`

	result, err := r.q.Exec(ctx, query,
		e.ClassID,
		e.SectionID,
		e.RollNo.String(),
		string(e.Status),
		e.PromotedToID,
		nullableTime(e.PromotionDate),
		e.Remarks,
		time.Now().UTC(),
		e.TenantID.String(),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("enrollment", "Update", shared.ErrNotFound, "enrollment not found")
	}

	return nil
}

// HistoryByStudent returns every enrollment of a student, oldest first.
func (r *EnrollmentRepository) HistoryByStudent(ctx context.Context, tenantID shared.TenantID, studentID string) ([]*enrollment.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments
		WHERE tenant_id = $1 AND student_id = $2 ORDER BY created_at`

	return r.queryEnrollments(ctx, query, tenantID.String(), studentID)
}

// ListActiveBySection returns active enrollments of a section.
func (r *EnrollmentRepository) ListActiveBySection(ctx context.Context, tenantID shared.TenantID, sessionID, sectionID string) ([]*enrollment.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments
		WHERE tenant_id = $1 AND session_id = $2 AND section_id = $3 AND status = 'active'
		ORDER BY roll_no`

	return r.queryEnrollments(ctx, query, tenantID.String(), sessionID, sectionID)
}

// ListActiveBySession returns every active enrollment of a session.
func (r *EnrollmentRepository) ListActiveBySession(ctx context.Context, tenantID shared.TenantID, sessionID string) ([]*enrollment.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments
		WHERE tenant_id = $1 AND session_id = $2 AND status = 'active'
		ORDER BY class_id, section_id, roll_no`

	return r.queryEnrollments(ctx, query, tenantID.String(), sessionID)
}

// CountActiveBySection returns the number of active enrollments in a section.
func (r *EnrollmentRepository) CountActiveBySection(ctx context.Context, tenantID shared.TenantID, sessionID, sectionID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM enrollments
		WHERE tenant_id = $1 AND session_id = $2 AND section_id = $3 AND status = 'active'
	`, tenantID.String(), sessionID, sectionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return count, nil
}

func (r *EnrollmentRepository) queryEnrollments(ctx context.Context, query string, args ...interface{}) ([]*enrollment.Enrollment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*enrollment.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}

	return enrollments, rows.Err()
}

func scanEnrollment(row pgx.Row) (*enrollment.Enrollment, error) {
	var (
		e             enrollment.Enrollment
		tenantID      string
		rollNo        string
		status        string
		promotionDate *time.Time
	)

	err := row.Scan(
		&e.ID,
		&tenantID,
		&e.StudentID,
		&e.SessionID,
		&e.ClassID,
		&e.SectionID,
		&rollNo,
		&status,
		&e.PromotedToID,
		&promotionDate,
		&e.Remarks,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("enrollment", "Get", shared.ErrNotFound, "enrollment not found")
		}
		return nil, fmt.Errorf("failed to scan enrollment: %w", err)
	}

	e.TenantID = shared.TenantID(tenantID)
	e.RollNo = shared.RollNo(rollNo)
	e.Status = enrollment.Status(status)
	if promotionDate != nil {
		e.PromotionDate = *promotionDate
	}

	return &e, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ClassRepository implements enrollment.ClassRepository for PostgreSQL.
type ClassRepository struct {
	conn *Connection
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(conn *Connection) *ClassRepository {
	return &ClassRepository{conn: conn}
}

// CreateClass inserts a new class.
func (r *ClassRepository) CreateClass(ctx context.Context, c *enrollment.Class) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO classes (id, tenant_id, name, numeric_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.TenantID.String(), c.Name, c.Numeric, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("enrollment", "CreateClass", shared.ErrAlreadyExists, "class name already exists in school")
		}
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

// GetClass returns a class by ID within a school.
func (r *ClassRepository) GetClass(ctx context.Context, tenantID shared.TenantID, id string) (*enrollment.Class, error) {
	var (
		c      enrollment.Class
		tenant string
	)
	err := r.conn.QueryRow(ctx, `
		SELECT id, tenant_id, name, numeric_level, created_at, updated_at
		FROM classes WHERE tenant_id = $1 AND id = $2
	`, tenantID.String(), id).Scan(&c.ID, &tenant, &c.Name, &c.Numeric, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("enrollment", "GetClass", shared.ErrNotFound, "class not found")
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	c.TenantID = shared.TenantID(tenant)
	return &c, nil
}

// ListClasses returns the school's classes ordered by level.
func (r *ClassRepository) ListClasses(ctx context.Context, tenantID shared.TenantID) ([]*enrollment.Class, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, tenant_id, name, numeric_level, created_at, updated_at
		FROM classes WHERE tenant_id = $1 ORDER BY numeric_level, name
	`, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	var classes []*enrollment.Class
	for rows.Next() {
		var (
			c      enrollment.Class
			tenant string
		)
		if err := rows.Scan(&c.ID, &tenant, &c.Name, &c.Numeric, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		c.TenantID = shared.TenantID(tenant)
		classes = append(classes, &c)
	}

	return classes, rows.Err()
}

// CreateSection inserts a new section.
func (r *ClassRepository) CreateSection(ctx context.Context, s *enrollment.Section) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO sections (id, tenant_id, class_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.TenantID.String(), s.ClassID, s.Name, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("enrollment", "CreateSection", shared.ErrAlreadyExists, "section name already exists in class")
		}
		return fmt.Errorf("failed to create section: %w", err)
	}
	return nil
}

// GetSection returns a section by ID within a school.
func (r *ClassRepository) GetSection(ctx context.Context, tenantID shared.TenantID, id string) (*enrollment.Section, error) {
	var (
		s      enrollment.Section
		tenant string
	)
	err := r.conn.QueryRow(ctx, `
		SELECT id, tenant_id, class_id, name, created_at, updated_at
		FROM sections WHERE tenant_id = $1 AND id = $2
	`, tenantID.String(), id).Scan(&s.ID, &tenant, &s.ClassID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("enrollment", "GetSection", shared.ErrNotFound, "section not found")
		}
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	s.TenantID = shared.TenantID(tenant)
	return &s, nil
}

// ListSections returns the sections of a class ordered by name.
func (r *ClassRepository) ListSections(ctx context.Context, tenantID shared.TenantID, classID string) ([]*enrollment.Section, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, tenant_id, class_id, name, created_at, updated_at
		FROM sections WHERE tenant_id = $1 AND class_id = $2 ORDER BY name
	`, tenantID.String(), classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []*enrollment.Section
	for rows.Next() {
		var (
			s      enrollment.Section
			tenant string
		)
		if err := rows.Scan(&s.ID, &tenant, &s.ClassID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		s.TenantID = shared.TenantID(tenant)
		sections = append(sections, &s)
	}

	return sections, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK IMPLEMENTATION
// Lifecycle transitions touch a student and two enrollments at once;
// the unit of work scopes those writes to a single pgx transaction.
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements enrollment.UnitOfWork over a pgx transaction.
type UnitOfWork struct {
	tx       pgx.Tx
	done     bool
	students *StudentRepository
	enrolls  *EnrollmentRepository
}

// Students returns the transaction-scoped student repository.
func (u *UnitOfWork) Students() enrollment.StudentRepository { return u.students }

// Enrollments returns the transaction-scoped enrollment repository.
func (u *UnitOfWork) Enrollments() enrollment.Repository { return u.enrolls }

// Commit commits the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return nil
}

// Rollback aborts the transaction. Safe to call after Commit.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return nil
}

// UnitOfWorkFactory implements enrollment.UnitOfWorkFactory.
type UnitOfWorkFactory struct {
	conn *Connection
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory.
func NewUnitOfWorkFactory(conn *Connection) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{conn: conn}
}

// Begin starts a transaction and returns a unit of work bound to it.
func (f *UnitOfWorkFactory) Begin(ctx context.Context) (enrollment.UnitOfWork, error) {
	tx, err := f.conn.BeginTx(ctx, DefaultTxOptions())
	if err != nil {
		return nil, err
	}

	return &UnitOfWork{
		tx:       tx,
		students: &StudentRepository{q: tx},
		enrolls:  &EnrollmentRepository{q: tx},
	}, nil
}
