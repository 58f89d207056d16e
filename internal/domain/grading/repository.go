package grading

import (
	"context"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ResultRepository stores graded results. One record exists per
// (student, subject, session) within each result family.
type ResultRepository interface {
	// UpsertResult inserts or replaces a subject result, recomputed.
	UpsertResult(ctx context.Context, r *ResultRecord) error

	// GetResult returns the result for a (student, subject, session) cell.
	// Returns shared.ErrNotFound when missing.
	GetResult(ctx context.Context, tenantID shared.TenantID, studentID, subjectID, sessionID string) (*ResultRecord, error)

	// ListResultsByStudent returns a student's subject results for a
	// session, ordered by subject name.
	ListResultsByStudent(ctx context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*ResultRecord, error)

	// UpsertCocurricular inserts or replaces a co-curricular result.
	UpsertCocurricular(ctx context.Context, r *CocurricularResult) error

	// ListCocurricularByStudent returns a student's co-curricular results
	// for a session.
	ListCocurricularByStudent(ctx context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*CocurricularResult, error)

	// UpsertOptional inserts or replaces an optional-subject result.
	UpsertOptional(ctx context.Context, r *OptionalResult) error

	// ListOptionalByStudent returns a student's optional-subject results
	// for a session.
	ListOptionalByStudent(ctx context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*OptionalResult, error)
}
