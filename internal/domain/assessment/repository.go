package assessment

import (
	"context"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// Repository interfaces for assessment configuration. Implementations
// live in infrastructure/persistence.

// CategoryRepository stores the per-school category registry.
type CategoryRepository interface {
	// Create inserts a new category.
	// Returns shared.ErrAlreadyExists when the code is taken in the school.
	Create(ctx context.Context, c *AssessmentCategory) error

	// GetByID returns a category by ID within a school.
	// Returns shared.ErrNotFound when missing.
	GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*AssessmentCategory, error)

	// GetByCode returns a category by its unique code.
	// Returns shared.ErrNotFound when missing.
	GetByCode(ctx context.Context, tenantID shared.TenantID, code shared.Code) (*AssessmentCategory, error)

	// Update persists a modified category.
	Update(ctx context.Context, c *AssessmentCategory) error

	// List returns the school's active categories ordered by sort order,
	// ties broken by code.
	List(ctx context.Context, tenantID shared.TenantID) ([]*AssessmentCategory, error)

	// UpdateOrder rewrites sort orders so the given IDs come first in the
	// given sequence. IDs not belonging to the school are skipped silently;
	// categories absent from the list keep their relative order after it.
	UpdateOrder(ctx context.Context, tenantID shared.TenantID, orderedIDs []string) error
}

// SubjectRepository stores the subjects taught per class.
type SubjectRepository interface {
	// Create inserts a new subject.
	Create(ctx context.Context, s *Subject) error

	// GetByID returns a subject by ID within a school.
	// Returns shared.ErrNotFound when missing.
	GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*Subject, error)

	// ListByClass returns the subjects of a class, optionally filtered
	// by kind (empty kind means all), ordered by name.
	ListByClass(ctx context.Context, tenantID shared.TenantID, classID string, kind SubjectKind) ([]*Subject, error)
}

// DistributionRepository stores the per-class marks distributions.
type DistributionRepository interface {
	// Upsert inserts or updates the distribution for its
	// (class, category, kind, subject) cell.
	Upsert(ctx context.Context, d *MarksDistribution) error

	// Resolve returns the full marks for a cell. A subject-specific row
	// wins over the kind-wide row. Returns shared.ErrNotConfigured when
	// neither exists.
	Resolve(ctx context.Context, tenantID shared.TenantID, classID, categoryID string, kind SubjectKind, subjectID string) (shared.Marks, error)

	// ListByClass returns all distributions of a class.
	ListByClass(ctx context.Context, tenantID shared.TenantID, classID string) ([]*MarksDistribution, error)

	// ReplaceForClassKind atomically replaces every distribution of a
	// (class, kind) pair with the given rows: deletes the old set and
	// inserts the new one in a single transaction.
	ReplaceForClassKind(ctx context.Context, tenantID shared.TenantID, classID string, kind SubjectKind, rows []*MarksDistribution) error
}

// ConfigCache caches assessment configuration reads. Kept separate from
// the repositories so the implementation can live in Redis or in memory.
type ConfigCache interface {
	// GetCategories returns the cached category list for a school.
	// Returns nil when the cache is empty or expired.
	GetCategories(ctx context.Context, tenantID shared.TenantID) ([]*AssessmentCategory, error)

	// SetCategories stores the category list with a TTL.
	SetCategories(ctx context.Context, tenantID shared.TenantID, categories []*AssessmentCategory, ttl time.Duration) error

	// GetDistributions returns the cached distribution grid for a class.
	// Returns nil when the cache is empty or expired.
	GetDistributions(ctx context.Context, tenantID shared.TenantID, classID string) ([]*MarksDistribution, error)

	// SetDistributions stores a class distribution grid with a TTL.
	SetDistributions(ctx context.Context, tenantID shared.TenantID, classID string, rows []*MarksDistribution, ttl time.Duration) error

	// InvalidateCategories drops the cached category list for a school.
	InvalidateCategories(ctx context.Context, tenantID shared.TenantID) error

	// InvalidateDistributions drops every cached distribution grid of a school.
	InvalidateDistributions(ctx context.Context, tenantID shared.TenantID) error
}
