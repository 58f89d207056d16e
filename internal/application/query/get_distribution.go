package query

import (
	"context"
	"sort"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DISTRIBUTION QUERY
// The full-marks grid of one class: for every configured
// (category, kind, subject) cell, the full marks a result line is graded
// against. Subject-specific rows are listed alongside the kind-wide ones;
// resolution order (subject row wins) is the repository's concern.
// ══════════════════════════════════════════════════════════════════════════════

const distributionCacheTTL = 10 * time.Minute

// GetDistributionQuery contains parameters for reading a class grid.
type GetDistributionQuery struct {
	// TenantID - школа.
	TenantID shared.TenantID

	// ClassID - класс, чья сетка запрашивается.
	ClassID string

	// Kind optionally narrows the grid to one subject track.
	Kind assessment.SubjectKind
}

// Validate проверяет корректность параметров запроса.
func (q GetDistributionQuery) Validate() error {
	if !q.TenantID.IsValid() {
		return shared.NewDomainError("query", "GetDistribution", shared.ErrInvalidID, "valid tenant_id is required")
	}
	if q.ClassID == "" {
		return shared.NewDomainError("query", "GetDistribution", shared.ErrEmptyValue, "class_id is required")
	}
	if q.Kind != "" && !q.Kind.IsValid() {
		return shared.NewDomainError("query", "GetDistribution", shared.ErrInvalidInput, "invalid subject kind")
	}
	return nil
}

// DistributionCellDTO is one configured cell of the grid.
type DistributionCellDTO struct {
	// CategoryID identifies the assessment category.
	CategoryID string `json:"category_id"`

	// CategoryCode is the category's display code.
	CategoryCode string `json:"category_code"`

	// Kind is the subject track the cell covers.
	Kind string `json:"kind"`

	// SubjectID is set on subject-specific overrides; empty for the
	// kind-wide row.
	SubjectID string `json:"subject_id,omitempty"`

	// FullMarks the line is graded against.
	FullMarks int `json:"full_marks"`
}

// GetDistributionResult contains the class grid.
type GetDistributionResult struct {
	// ClassID echoes the queried class.
	ClassID string `json:"class_id"`

	// Cells ordered by category sort order, kind-wide rows before
	// subject overrides.
	Cells []DistributionCellDTO `json:"cells"`
}

// GetDistributionHandler handles the GetDistributionQuery.
type GetDistributionHandler struct {
	categoryRepo     assessment.CategoryRepository
	distributionRepo assessment.DistributionRepository
	configCache      assessment.ConfigCache
}

// NewGetDistributionHandler creates a new handler. The cache is optional.
func NewGetDistributionHandler(
	categoryRepo assessment.CategoryRepository,
	distributionRepo assessment.DistributionRepository,
	configCache assessment.ConfigCache,
) *GetDistributionHandler {
	return &GetDistributionHandler{
		categoryRepo:     categoryRepo,
		distributionRepo: distributionRepo,
		configCache:      configCache,
	}
}

// Handle executes the get distribution query.
func (h *GetDistributionHandler) Handle(ctx context.Context, query GetDistributionQuery) (*GetDistributionResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.loadRows(ctx, query.TenantID, query.ClassID)
	if err != nil {
		return nil, shared.WrapError("query", "GetDistribution", shared.ErrNotFound, "failed to load distributions", err)
	}

	categories, err := h.categoryRepo.List(ctx, query.TenantID)
	if err != nil {
		return nil, shared.WrapError("query", "GetDistribution", shared.ErrNotFound, "failed to list categories", err)
	}

	codeByID := make(map[string]string, len(categories))
	orderByID := make(map[string]int, len(categories))
	for i, c := range categories {
		codeByID[c.ID] = c.Code.String()
		orderByID[c.ID] = i
	}

	cells := make([]DistributionCellDTO, 0, len(rows))
	for _, d := range rows {
		if query.Kind != "" && d.Kind != query.Kind {
			continue
		}
		cells = append(cells, DistributionCellDTO{
			CategoryID:   d.CategoryID,
			CategoryCode: codeByID[d.CategoryID],
			Kind:         string(d.Kind),
			SubjectID:    d.SubjectID,
			FullMarks:    d.FullMarks.Int(),
		})
	}

	sort.SliceStable(cells, func(i, j int) bool {
		oi, oj := orderByID[cells[i].CategoryID], orderByID[cells[j].CategoryID]
		if oi != oj {
			return oi < oj
		}
		if cells[i].Kind != cells[j].Kind {
			return cells[i].Kind < cells[j].Kind
		}
		// kind-wide row before subject overrides
		return cells[i].SubjectID < cells[j].SubjectID
	})

	return &GetDistributionResult{ClassID: query.ClassID, Cells: cells}, nil
}

func (h *GetDistributionHandler) loadRows(ctx context.Context, tenantID shared.TenantID, classID string) ([]*assessment.MarksDistribution, error) {
	if h.configCache != nil {
		cached, err := h.configCache.GetDistributions(ctx, tenantID, classID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	rows, err := h.distributionRepo.ListByClass(ctx, tenantID, classID)
	if err != nil {
		return nil, err
	}

	if h.configCache != nil {
		_ = h.configCache.SetDistributions(ctx, tenantID, classID, rows, distributionCacheTTL)
	}
	return rows, nil
}
