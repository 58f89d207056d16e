// Package redis implements Redis caching for the academic core.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY PATTERNS
// ══════════════════════════════════════════════════════════════════════════════

// Key patterns for assessment configuration cache.
const (
	// keyCategories holds a school's category registry.
	keyCategories = "config:categories:"

	// keyDistributions holds one class's distribution grid.
	keyDistributions = "config:distributions:"
)

// CategoriesKey generates the cache key for a school's category registry.
func CategoriesKey(tenantID shared.TenantID) string {
	return keyCategories + tenantID.String()
}

// DistributionsKey generates the cache key for a class distribution grid.
func DistributionsKey(tenantID shared.TenantID, classID string) string {
	return keyDistributions + tenantID.String() + ":" + classID
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHED REPRESENTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// cachedCategory is the JSON form of a category in Redis. Kept separate
// from the domain entity so the wire format survives entity changes.
type cachedCategory struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// cachedDistribution is the JSON form of a distribution row in Redis.
type cachedDistribution struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	ClassID    string    `json:"class_id"`
	CategoryID string    `json:"category_id"`
	Kind       string    `json:"kind"`
	SubjectID  string    `json:"subject_id,omitempty"`
	FullMarks  int       `json:"full_marks"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ConfigCache implements assessment.ConfigCache on top of the general
// Cache. A miss is reported as a nil slice, never as an error, so the
// read side can always fall through to PostgreSQL.
type ConfigCache struct {
	cache *Cache
}

// NewConfigCache creates a new ConfigCache instance.
func NewConfigCache(cache *Cache) *ConfigCache {
	return &ConfigCache{cache: cache}
}

// GetCategories returns the cached category list for a school.
func (c *ConfigCache) GetCategories(ctx context.Context, tenantID shared.TenantID) ([]*assessment.AssessmentCategory, error) {
	var cached []cachedCategory
	err := c.cache.Get(ctx, CategoriesKey(tenantID), &cached)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	categories := make([]*assessment.AssessmentCategory, 0, len(cached))
	for _, cc := range cached {
		categories = append(categories, &assessment.AssessmentCategory{
			ID:        cc.ID,
			TenantID:  shared.TenantID(cc.TenantID),
			Code:      shared.Code(cc.Code),
			Name:      cc.Name,
			Type:      assessment.CategoryType(cc.Type),
			SortOrder: cc.SortOrder,
			IsActive:  cc.IsActive,
			CreatedAt: cc.CreatedAt,
			UpdatedAt: cc.UpdatedAt,
		})
	}

	return categories, nil
}

// SetCategories stores the category list with a TTL.
func (c *ConfigCache) SetCategories(ctx context.Context, tenantID shared.TenantID, categories []*assessment.AssessmentCategory, ttl time.Duration) error {
	cached := make([]cachedCategory, 0, len(categories))
	for _, cat := range categories {
		cached = append(cached, cachedCategory{
			ID:        cat.ID,
			TenantID:  cat.TenantID.String(),
			Code:      cat.Code.String(),
			Name:      cat.Name,
			Type:      string(cat.Type),
			SortOrder: cat.SortOrder,
			IsActive:  cat.IsActive,
			CreatedAt: cat.CreatedAt,
			UpdatedAt: cat.UpdatedAt,
		})
	}

	return c.cache.Set(ctx, CategoriesKey(tenantID), cached, ttl)
}

// GetDistributions returns the cached distribution grid for a class.
func (c *ConfigCache) GetDistributions(ctx context.Context, tenantID shared.TenantID, classID string) ([]*assessment.MarksDistribution, error) {
	var cached []cachedDistribution
	err := c.cache.Get(ctx, DistributionsKey(tenantID, classID), &cached)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	rows := make([]*assessment.MarksDistribution, 0, len(cached))
	for _, cd := range cached {
		rows = append(rows, &assessment.MarksDistribution{
			ID:         cd.ID,
			TenantID:   shared.TenantID(cd.TenantID),
			ClassID:    cd.ClassID,
			CategoryID: cd.CategoryID,
			Kind:       assessment.SubjectKind(cd.Kind),
			SubjectID:  cd.SubjectID,
			FullMarks:  shared.Marks(cd.FullMarks),
			CreatedAt:  cd.CreatedAt,
			UpdatedAt:  cd.UpdatedAt,
		})
	}

	return rows, nil
}

// SetDistributions stores a class distribution grid with a TTL.
func (c *ConfigCache) SetDistributions(ctx context.Context, tenantID shared.TenantID, classID string, rows []*assessment.MarksDistribution, ttl time.Duration) error {
	cached := make([]cachedDistribution, 0, len(rows))
	for _, d := range rows {
		cached = append(cached, cachedDistribution{
			ID:         d.ID,
			TenantID:   d.TenantID.String(),
			ClassID:    d.ClassID,
			CategoryID: d.CategoryID,
			Kind:       string(d.Kind),
			SubjectID:  d.SubjectID,
			FullMarks:  d.FullMarks.Int(),
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.UpdatedAt,
		})
	}

	return c.cache.Set(ctx, DistributionsKey(tenantID, classID), cached, ttl)
}

// InvalidateCategories drops the cached category list for a school.
func (c *ConfigCache) InvalidateCategories(ctx context.Context, tenantID shared.TenantID) error {
	return c.cache.Delete(ctx, CategoriesKey(tenantID))
}

// InvalidateDistributions drops every cached distribution grid of a school.
// Grids are keyed per class, so this scans the school's key range.
func (c *ConfigCache) InvalidateDistributions(ctx context.Context, tenantID shared.TenantID) error {
	return c.cache.DeleteByPattern(ctx, keyDistributions+tenantID.String()+":*")
}
