// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST CATEGORIES QUERY
// The ordered category registry of a school. Backs every marks-entry and
// marksheet screen, so reads go through the config cache when one is wired.
// ══════════════════════════════════════════════════════════════════════════════

// categoriesCacheTTL bounds staleness between a config change and the
// invalidation event landing.
const categoriesCacheTTL = 10 * time.Minute

// ListCategoriesQuery contains parameters for listing categories.
type ListCategoriesQuery struct {
	// TenantID - школа, чей реестр категорий запрашивается.
	TenantID shared.TenantID
}

// Validate проверяет корректность параметров запроса.
func (q ListCategoriesQuery) Validate() error {
	if !q.TenantID.IsValid() {
		return shared.NewDomainError("query", "ListCategories", shared.ErrInvalidID, "valid tenant_id is required")
	}
	return nil
}

// CategoryDTO is one category of the school registry.
type CategoryDTO struct {
	// ID is the category's internal ID.
	ID string `json:"id"`

	// Code is the unique code, e.g. "FINAL".
	Code string `json:"code"`

	// Name is the display name.
	Name string `json:"name"`

	// Type is the category type: summative, formative, project, practical,
	// other.
	Type string `json:"type"`

	// SortOrder is the position in marksheets.
	SortOrder int `json:"sort_order"`
}

// ListCategoriesResult contains the ordered registry.
type ListCategoriesResult struct {
	// Categories in sort order.
	Categories []CategoryDTO `json:"categories"`

	// FromCache reports whether the read was served by the cache.
	FromCache bool `json:"-"`
}

// ListCategoriesHandler handles the ListCategoriesQuery.
type ListCategoriesHandler struct {
	categoryRepo assessment.CategoryRepository
	configCache  assessment.ConfigCache
}

// NewListCategoriesHandler creates a new handler. The cache is optional;
// a nil cache makes every read hit the repository.
func NewListCategoriesHandler(categoryRepo assessment.CategoryRepository, configCache assessment.ConfigCache) *ListCategoriesHandler {
	return &ListCategoriesHandler{
		categoryRepo: categoryRepo,
		configCache:  configCache,
	}
}

// Handle executes the list categories query.
func (h *ListCategoriesHandler) Handle(ctx context.Context, query ListCategoriesQuery) (*ListCategoriesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if h.configCache != nil {
		cached, err := h.configCache.GetCategories(ctx, query.TenantID)
		if err == nil && cached != nil {
			return &ListCategoriesResult{Categories: toCategoryDTOs(cached), FromCache: true}, nil
		}
	}

	categories, err := h.categoryRepo.List(ctx, query.TenantID)
	if err != nil {
		return nil, shared.WrapError("query", "ListCategories", shared.ErrNotFound, "failed to list categories", err)
	}

	if h.configCache != nil {
		// Best effort: a failed cache write never fails the read.
		_ = h.configCache.SetCategories(ctx, query.TenantID, categories, categoriesCacheTTL)
	}

	return &ListCategoriesResult{Categories: toCategoryDTOs(categories)}, nil
}

func toCategoryDTOs(categories []*assessment.AssessmentCategory) []CategoryDTO {
	out := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		out[i] = CategoryDTO{
			ID:        c.ID,
			Code:      c.Code.String(),
			Name:      c.Name,
			Type:      string(c.Type),
			SortOrder: c.SortOrder,
		}
	}
	return out
}
