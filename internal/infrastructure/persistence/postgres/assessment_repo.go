package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const categoryColumns = `id, tenant_id, code, name, category_type, sort_order,
	is_active, created_at, updated_at`

// CategoryRepository implements assessment.CategoryRepository for PostgreSQL.
type CategoryRepository struct {
	conn *Connection
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(conn *Connection) *CategoryRepository {
	return &CategoryRepository{conn: conn}
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *assessment.AssessmentCategory) error {
	query := `
		INSERT INTO assessment_categories (
			id, tenant_id, code, name, category_type, sort_order,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		c.ID,
		c.TenantID.String(),
		c.Code.String(),
		c.Name,
		string(c.Type),
		c.SortOrder,
		c.IsActive,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("assessment", "Create", shared.ErrAlreadyExists, "category code already exists in school")
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetByID returns a category by ID within a school.
func (r *CategoryRepository) GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*assessment.AssessmentCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM assessment_categories WHERE tenant_id = $1 AND id = $2`

	row := r.conn.QueryRow(ctx, query, tenantID.String(), id)
	return scanCategory(row)
}

// GetByCode returns a category by its unique code.
func (r *CategoryRepository) GetByCode(ctx context.Context, tenantID shared.TenantID, code shared.Code) (*assessment.AssessmentCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM assessment_categories WHERE tenant_id = $1 AND code = $2`

	row := r.conn.QueryRow(ctx, query, tenantID.String(), code.String())
	return scanCategory(row)
}

// Update persists a modified category.
func (r *CategoryRepository) Update(ctx context.Context, c *assessment.AssessmentCategory) error {
	query := `
		UPDATE assessment_categories SET
			name = $1,
			category_type = $2,
			sort_order = $3,
			is_active = $4,
			updated_at = $5
		WHERE tenant_id = $6 AND id = $7
	`

	result, err := r.conn.Exec(ctx, query,
		c.Name,
		string(c.Type),
		c.SortOrder,
		c.IsActive,
		time.Now().UTC(),
		c.TenantID.String(),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("assessment", "Update", shared.ErrNotFound, "category not found")
	}

	return nil
}

// List returns the school's active categories in registry order.
func (r *CategoryRepository) List(ctx context.Context, tenantID shared.TenantID) ([]*assessment.AssessmentCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM assessment_categories
		WHERE tenant_id = $1 AND is_active ORDER BY sort_order, code`

	rows, err := r.conn.Query(ctx, query, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*assessment.AssessmentCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// UpdateOrder rewrites sort orders following the given ID sequence.
// IDs not belonging to the school are skipped silently.
func (r *CategoryRepository) UpdateOrder(ctx context.Context, tenantID shared.TenantID, orderedIDs []string) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		order := 0
		for _, id := range orderedIDs {
			result, err := tx.Exec(ctx, `
				UPDATE assessment_categories SET sort_order = $1, updated_at = NOW()
				WHERE tenant_id = $2 AND id = $3
			`, order, tenantID.String(), id)
			if err != nil {
				return fmt.Errorf("failed to reorder category %s: %w", id, err)
			}
			if result.RowsAffected() > 0 {
				order++
			}
		}
		return nil
	})
}

func scanCategory(row pgx.Row) (*assessment.AssessmentCategory, error) {
	var (
		c        assessment.AssessmentCategory
		tenantID string
		code     string
		catType  string
	)

	err := row.Scan(
		&c.ID,
		&tenantID,
		&code,
		&c.Name,
		&catType,
		&c.SortOrder,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("assessment", "Get", shared.ErrNotFound, "category not found")
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	c.TenantID = shared.TenantID(tenantID)
	c.Code = shared.Code(code)
	c.Type = assessment.CategoryType(catType)

	return &c, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubjectRepository implements assessment.SubjectRepository for PostgreSQL.
type SubjectRepository struct {
	conn *Connection
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(conn *Connection) *SubjectRepository {
	return &SubjectRepository{conn: conn}
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, s *assessment.Subject) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO subjects (id, tenant_id, class_id, name, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.TenantID.String(), s.ClassID, s.Name, string(s.Kind), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("assessment", "Create", shared.ErrAlreadyExists, "subject name already exists in class")
		}
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

// GetByID returns a subject by ID within a school.
func (r *SubjectRepository) GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*assessment.Subject, error) {
	var (
		s      assessment.Subject
		tenant string
		kind   string
	)
	err := r.conn.QueryRow(ctx, `
		SELECT id, tenant_id, class_id, name, kind, created_at, updated_at
		FROM subjects WHERE tenant_id = $1 AND id = $2
	`, tenantID.String(), id).Scan(&s.ID, &tenant, &s.ClassID, &s.Name, &kind, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("assessment", "GetByID", shared.ErrNotFound, "subject not found")
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	s.TenantID = shared.TenantID(tenant)
	s.Kind = assessment.SubjectKind(kind)
	return &s, nil
}

// ListByClass returns the subjects of a class, optionally filtered by kind.
func (r *SubjectRepository) ListByClass(ctx context.Context, tenantID shared.TenantID, classID string, kind assessment.SubjectKind) ([]*assessment.Subject, error) {
	query := `
		SELECT id, tenant_id, class_id, name, kind, created_at, updated_at
		FROM subjects
		WHERE tenant_id = $1 AND class_id = $2 AND ($3 = '' OR kind = $3)
		ORDER BY name
	`

	rows, err := r.conn.Query(ctx, query, tenantID.String(), classID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*assessment.Subject
	for rows.Next() {
		var (
			s      assessment.Subject
			tenant string
			k      string
		)
		if err := rows.Scan(&s.ID, &tenant, &s.ClassID, &s.Name, &k, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		s.TenantID = shared.TenantID(tenant)
		s.Kind = assessment.SubjectKind(k)
		subjects = append(subjects, &s)
	}

	return subjects, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// DISTRIBUTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const distributionColumns = `id, tenant_id, class_id, category_id, kind,
	COALESCE(subject_id::text, ''), full_marks, created_at, updated_at`

// DistributionRepository implements assessment.DistributionRepository for PostgreSQL.
type DistributionRepository struct {
	conn *Connection
}

// NewDistributionRepository creates a new DistributionRepository.
func NewDistributionRepository(conn *Connection) *DistributionRepository {
	return &DistributionRepository{conn: conn}
}

// Upsert inserts or updates the distribution for its cell.
func (r *DistributionRepository) Upsert(ctx context.Context, d *assessment.MarksDistribution) error {
	query := `
		INSERT INTO marks_distributions (
			id, tenant_id, class_id, category_id, kind, subject_id, full_marks,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, $8, $9)
		ON CONFLICT (tenant_id, class_id, category_id, kind,
			COALESCE(subject_id, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET full_marks = EXCLUDED.full_marks, updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		d.ID,
		d.TenantID.String(),
		d.ClassID,
		d.CategoryID,
		string(d.Kind),
		d.SubjectID,
		d.FullMarks.Int(),
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert distribution: %w", err)
	}

	return nil
}

// Resolve returns the full marks for a cell. The subject-specific row
// wins over the kind-wide row.
func (r *DistributionRepository) Resolve(ctx context.Context, tenantID shared.TenantID, classID, categoryID string, kind assessment.SubjectKind, subjectID string) (shared.Marks, error) {
	query := `
		SELECT full_marks FROM marks_distributions
		WHERE tenant_id = $1 AND class_id = $2 AND category_id = $3 AND kind = $4
		  AND (subject_id = NULLIF($5, '')::uuid OR subject_id IS NULL)
		ORDER BY subject_id NULLS LAST
		LIMIT 1
	`

	var full int
	err := r.conn.QueryRow(ctx, query,
		tenantID.String(), classID, categoryID, string(kind), subjectID,
	).Scan(&full)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.NewDomainError("assessment", "Resolve", shared.ErrNotConfigured, "no marks distribution for cell")
		}
		return 0, fmt.Errorf("failed to resolve distribution: %w", err)
	}

	return shared.Marks(full), nil
}

// ListByClass returns all distributions of a class.
func (r *DistributionRepository) ListByClass(ctx context.Context, tenantID shared.TenantID, classID string) ([]*assessment.MarksDistribution, error) {
	query := `SELECT ` + distributionColumns + ` FROM marks_distributions
		WHERE tenant_id = $1 AND class_id = $2`

	rows, err := r.conn.Query(ctx, query, tenantID.String(), classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}
	defer rows.Close()

	var distributions []*assessment.MarksDistribution
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, err
		}
		distributions = append(distributions, d)
	}

	return distributions, rows.Err()
}

// ReplaceForClassKind atomically replaces every distribution of a
// (class, kind) pair with the given rows.
func (r *DistributionRepository) ReplaceForClassKind(ctx context.Context, tenantID shared.TenantID, classID string, kind assessment.SubjectKind, dists []*assessment.MarksDistribution) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM marks_distributions
			WHERE tenant_id = $1 AND class_id = $2 AND kind = $3
		`, tenantID.String(), classID, string(kind))
		if err != nil {
			return fmt.Errorf("failed to clear distributions: %w", err)
		}

		for _, d := range dists {
			_, err := tx.Exec(ctx, `
				INSERT INTO marks_distributions (
					id, tenant_id, class_id, category_id, kind, subject_id, full_marks,
					created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, $8, $9)
			`,
				d.ID,
				d.TenantID.String(),
				d.ClassID,
				d.CategoryID,
				string(d.Kind),
				d.SubjectID,
				d.FullMarks.Int(),
				d.CreatedAt,
				d.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert distribution: %w", err)
			}
		}

		return nil
	})
}

func scanDistribution(row pgx.Row) (*assessment.MarksDistribution, error) {
	var (
		d        assessment.MarksDistribution
		tenantID string
		kind     string
		full     int
	)

	err := row.Scan(
		&d.ID,
		&tenantID,
		&d.ClassID,
		&d.CategoryID,
		&kind,
		&d.SubjectID,
		&full,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("assessment", "Get", shared.ErrNotFound, "distribution not found")
		}
		return nil, fmt.Errorf("failed to scan distribution: %w", err)
	}

	d.TenantID = shared.TenantID(tenantID)
	d.Kind = assessment.SubjectKind(kind)
	d.FullMarks = shared.Marks(full)

	return &d, nil
}
