package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles for the academic core.
// Rollout is per school: a flag at 50% is on for half of the tenants,
// assigned by consistent hashing so a school never flips between runs.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	tenantOverrides map[string]map[string]bool // tenantID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Schools are assigned based on hash of their tenant ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	TenantID string // School identifier
	IsAdmin  bool   // Is platform admin
}

// Predefined feature flag names.
const (
	// === Grading Features ===
	FeatureCategoryScheme = "grading.category_scheme" // Category-driven result lines
	FeatureLegacyScheme   = "grading.legacy_scheme"   // Three-term summative/formative lines

	// === Caching Features ===
	FeatureConfigCache = "cache.assessment_config" // Redis cache for categories and distributions

	// === Enrollment Features ===
	FeatureBulkPromotion = "enrollment.bulk_promotion" // End-of-session rollover worker
	FeatureAuditLog      = "enrollment.audit_log"      // Structured audit of lifecycle changes
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:        make(map[string]*Feature),
		tenantOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureCategoryScheme] = &Feature{
		Name:           FeatureCategoryScheme,
		Description:    "Result lines derived from the school's category registry",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Legacy scheme stays on until every school has a category registry.
	ff.features[FeatureLegacyScheme] = &Feature{
		Name:           FeatureLegacyScheme,
		Description:    "Fixed three-term summative/formative result lines",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureConfigCache] = &Feature{
		Name:           FeatureConfigCache,
		Description:    "Cache assessment configuration in Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureBulkPromotion] = &Feature{
		Name:           FeatureBulkPromotion,
		Description:    "Bulk promotion at end of session",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAuditLog] = &Feature{
		Name:           FeatureAuditLog,
		Description:    "Audit log of enrollment lifecycle changes",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_GRADING_LEGACY_SCHEME=false
// Example: FEATURE_CACHE_ASSESSMENT_CONFIG=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "grading.category_scheme" -> "FEATURE_GRADING_CATEGORY_SCHEME"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check tenant overrides first
	if ctx != nil && ctx.TenantID != "" {
		if overrides, ok := ff.tenantOverrides[ctx.TenantID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Platform admins get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.TenantID != "" {
		return ff.isInRollout(ctx.TenantID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a school is in the rollout percentage.
// Uses consistent hashing so schools stay in their bucket.
func (ff *FeatureFlags) isInRollout(tenantID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(tenantID))
	hash := h.Sum32()

	bucket := int(hash % 100)

	return bucket < percent
}

// SetTenantOverride sets a feature override for a specific school.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetTenantOverride(tenantID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.tenantOverrides[tenantID]; !ok {
		ff.tenantOverrides[tenantID] = make(map[string]bool)
	}
	ff.tenantOverrides[tenantID][featureName] = enabled
}

// ClearTenantOverrides removes all overrides for a school.
func (ff *FeatureFlags) ClearTenantOverrides(tenantID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.tenantOverrides, tenantID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
