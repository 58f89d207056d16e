// Package assessment contains the assessment configuration model: the
// per-school category registry and the per-class marks distributions
// that assign full marks to each (class, category, subject track) cell.
package assessment

import (
	"strings"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// CategoryType classifies an assessment category.
type CategoryType string

const (
	// CategoryTypeSummative - terminal examinations (half-yearly, annual).
	CategoryTypeSummative CategoryType = "summative"
	// CategoryTypeFormative - periodic unit tests and classwork.
	CategoryTypeFormative CategoryType = "formative"
	// CategoryTypeProject - homework and project work.
	CategoryTypeProject CategoryType = "project"
	// CategoryTypePractical - lab and practical work.
	CategoryTypePractical CategoryType = "practical"
	// CategoryTypeOther - anything the school defines itself.
	CategoryTypeOther CategoryType = "other"
)

// IsValid checks that the category type is known.
func (t CategoryType) IsValid() bool {
	switch t {
	case CategoryTypeSummative, CategoryTypeFormative, CategoryTypeProject, CategoryTypePractical, CategoryTypeOther:
		return true
	default:
		return false
	}
}

// SubjectKind identifies the subject track a distribution applies to.
type SubjectKind string

const (
	// SubjectKindCore - compulsory scholastic subjects.
	SubjectKindCore SubjectKind = "core"
	// SubjectKindCocurricular - graded co-curricular activities.
	SubjectKindCocurricular SubjectKind = "cocurricular"
	// SubjectKindOptional - elective subjects.
	SubjectKindOptional SubjectKind = "optional"
)

// IsValid checks that the subject kind is known.
func (k SubjectKind) IsValid() bool {
	switch k {
	case SubjectKindCore, SubjectKindCocurricular, SubjectKindOptional:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENT CATEGORY
// ══════════════════════════════════════════════════════════════════════════════

// AssessmentCategory is one entry of a school's category registry.
// Codes are unique per school; SortOrder drives marksheet column order.
type AssessmentCategory struct {
	// ID is the internal unique identifier (UUID string).
	ID string

	// TenantID is the owning school.
	TenantID shared.TenantID

	// Code is the short unique code ("UT1", "FINAL").
	Code shared.Code

	// Name is the display name ("Unit Test 1").
	Name string

	// Type classifies the category.
	Type CategoryType

	// SortOrder positions the category in listings and marksheets.
	// Lower comes first; ties break by code.
	SortOrder int

	// IsActive permits soft-retiring a category without losing history.
	IsActive bool

	// CreatedAt is the record creation time.
	CreatedAt time.Time

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// NewCategoryParams holds parameters for creating a category.
type NewCategoryParams struct {
	ID        string
	TenantID  shared.TenantID
	Code      shared.Code
	Name      string
	Type      CategoryType
	SortOrder int
}

// NewCategory creates a validated assessment category.
func NewCategory(params NewCategoryParams) (*AssessmentCategory, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("assessment", "NewCategory", shared.ErrInvalidID, "category id is required")
	}

	if !params.TenantID.IsValid() {
		return nil, shared.NewDomainError("assessment", "NewCategory", shared.ErrInvalidID, "invalid tenant id")
	}

	code, err := shared.NewCode(params.Code.String())
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 200 {
		return nil, shared.NewDomainError("assessment", "NewCategory", shared.ErrValidation, "category name must be 1-200 chars")
	}

	if !params.Type.IsValid() {
		return nil, shared.NewDomainError("assessment", "NewCategory", shared.ErrValidation, "invalid category type")
	}

	if params.SortOrder < 0 {
		return nil, shared.NewDomainError("assessment", "NewCategory", shared.ErrNegativeValue, "sort order must be non-negative")
	}

	now := time.Now().UTC()

	return &AssessmentCategory{
		ID:        params.ID,
		TenantID:  params.TenantID,
		Code:      code,
		Name:      name,
		Type:      params.Type,
		SortOrder: params.SortOrder,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Rename updates the display name.
func (c *AssessmentCategory) Rename(name string) error {
	name = strings.TrimSpace(name)
	if len(name) == 0 || len(name) > 200 {
		return shared.NewDomainError("assessment", "Rename", shared.ErrValidation, "category name must be 1-200 chars")
	}

	c.Name = name
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Retire soft-deletes the category. Saved results keep referring to it.
func (c *AssessmentCategory) Retire() {
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT
// ══════════════════════════════════════════════════════════════════════════════

// Subject is a taught subject of a class. Its kind decides which
// distribution track applies to it.
type Subject struct {
	// ID is the internal unique identifier (UUID string).
	ID string

	// TenantID is the owning school.
	TenantID shared.TenantID

	// ClassID is the class the subject is taught in.
	ClassID string

	// Name is the subject name ("Mathematics").
	Name string

	// Kind is the subject track.
	Kind SubjectKind

	// CreatedAt is the record creation time.
	CreatedAt time.Time

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// NewSubject creates a validated subject.
func NewSubject(id string, tenantID shared.TenantID, classID, name string, kind SubjectKind) (*Subject, error) {
	if id == "" {
		return nil, shared.NewDomainError("assessment", "NewSubject", shared.ErrInvalidID, "subject id is required")
	}

	if !tenantID.IsValid() {
		return nil, shared.NewDomainError("assessment", "NewSubject", shared.ErrInvalidID, "invalid tenant id")
	}

	if classID == "" {
		return nil, shared.NewDomainError("assessment", "NewSubject", shared.ErrInvalidID, "class id is required")
	}

	name = strings.TrimSpace(name)
	if len(name) == 0 || len(name) > 200 {
		return nil, shared.NewDomainError("assessment", "NewSubject", shared.ErrValidation, "subject name must be 1-200 chars")
	}

	if !kind.IsValid() {
		return nil, shared.NewDomainError("assessment", "NewSubject", shared.ErrValidation, "invalid subject kind")
	}

	now := time.Now().UTC()

	return &Subject{
		ID:        id,
		TenantID:  tenantID,
		ClassID:   classID,
		Name:      name,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MARKS DISTRIBUTION
// ══════════════════════════════════════════════════════════════════════════════

// MarksDistribution assigns full marks to one (class, category, kind)
// cell. SubjectID narrows the cell to a single subject; when empty the
// row covers every subject of the kind in that class.
type MarksDistribution struct {
	// ID is the internal unique identifier (UUID string).
	ID string

	// TenantID is the owning school.
	TenantID shared.TenantID

	// ClassID is the class the distribution configures.
	ClassID string

	// CategoryID is the assessment category being configured.
	CategoryID string

	// Kind is the subject track.
	Kind SubjectKind

	// SubjectID optionally narrows the row to one subject.
	SubjectID string

	// FullMarks is the maximum obtainable marks for the cell.
	// Zero is allowed: a zero-full cell always grades "D".
	FullMarks shared.Marks

	// CreatedAt is the record creation time.
	CreatedAt time.Time

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// NewDistributionParams holds parameters for creating a distribution.
type NewDistributionParams struct {
	ID         string
	TenantID   shared.TenantID
	ClassID    string
	CategoryID string
	Kind       SubjectKind
	SubjectID  string
	FullMarks  shared.Marks
}

// NewDistribution creates a validated marks distribution.
func NewDistribution(params NewDistributionParams) (*MarksDistribution, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("assessment", "NewDistribution", shared.ErrInvalidID, "distribution id is required")
	}

	if !params.TenantID.IsValid() {
		return nil, shared.NewDomainError("assessment", "NewDistribution", shared.ErrInvalidID, "invalid tenant id")
	}

	if params.ClassID == "" || params.CategoryID == "" {
		return nil, shared.NewDomainError("assessment", "NewDistribution", shared.ErrEmptyValue, "class and category ids are required")
	}

	if !params.Kind.IsValid() {
		return nil, shared.NewDomainError("assessment", "NewDistribution", shared.ErrValidation, "invalid subject kind")
	}

	if !params.FullMarks.IsValid() {
		return nil, shared.NewDomainError("assessment", "NewDistribution", shared.ErrNegativeValue, "full marks cannot be negative")
	}

	now := time.Now().UTC()

	return &MarksDistribution{
		ID:         params.ID,
		TenantID:   params.TenantID,
		ClassID:    params.ClassID,
		CategoryID: params.CategoryID,
		Kind:       params.Kind,
		SubjectID:  params.SubjectID,
		FullMarks:  params.FullMarks,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// SetFullMarks updates the full marks of the cell.
func (d *MarksDistribution) SetFullMarks(marks shared.Marks) error {
	if !marks.IsValid() {
		return shared.NewDomainError("assessment", "SetFullMarks", shared.ErrNegativeValue, "full marks cannot be negative")
	}

	d.FullMarks = marks
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// Matches reports whether the row covers the given cell. A row without
// a subject covers every subject of its kind.
func (d *MarksDistribution) Matches(classID, categoryID string, kind SubjectKind, subjectID string) bool {
	if d.ClassID != classID || d.CategoryID != categoryID || d.Kind != kind {
		return false
	}
	return d.SubjectID == "" || d.SubjectID == subjectID
}
