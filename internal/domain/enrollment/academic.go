package enrollment

import (
	"strings"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC UNITS: CLASS & SECTION
// Класс ("Grade 7") делится на секции ("A", "B"). Секция всегда
// принадлежит ровно одному классу.
// ══════════════════════════════════════════════════════════════════════════════

// Class - учебный класс школы (параллель).
type Class struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// TenantID - школа, которой принадлежит класс.
	TenantID shared.TenantID

	// Name - название класса ("Grade 7").
	Name string

	// Numeric - порядковый номер для сортировки и перевода (7 для "Grade 7").
	Numeric int

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewClass создаёт новый класс с валидацией.
func NewClass(id string, tenantID shared.TenantID, name string, numeric int) (*Class, error) {
	if id == "" {
		return nil, shared.NewDomainError("enrollment", "NewClass", shared.ErrInvalidID, "class id is required")
	}

	if !tenantID.IsValid() {
		return nil, shared.NewDomainError("enrollment", "NewClass", shared.ErrInvalidID, "invalid tenant id")
	}

	name = strings.TrimSpace(name)
	if len(name) == 0 || len(name) > 100 {
		return nil, shared.NewDomainError("enrollment", "NewClass", shared.ErrValidation, "class name must be 1-100 chars")
	}

	if numeric < 0 {
		return nil, shared.NewDomainError("enrollment", "NewClass", shared.ErrNegativeValue, "class numeric must be non-negative")
	}

	now := time.Now().UTC()

	return &Class{
		ID:        id,
		TenantID:  tenantID,
		Name:      name,
		Numeric:   numeric,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Section - секция (литера) внутри класса.
type Section struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// TenantID - школа, которой принадлежит секция.
	TenantID shared.TenantID

	// ClassID - класс, к которому относится секция.
	ClassID string

	// Name - название секции ("A", "B").
	Name string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewSection создаёт новую секцию с валидацией.
func NewSection(id string, tenantID shared.TenantID, classID, name string) (*Section, error) {
	if id == "" {
		return nil, shared.NewDomainError("enrollment", "NewSection", shared.ErrInvalidID, "section id is required")
	}

	if !tenantID.IsValid() {
		return nil, shared.NewDomainError("enrollment", "NewSection", shared.ErrInvalidID, "invalid tenant id")
	}

	if classID == "" {
		return nil, shared.NewDomainError("enrollment", "NewSection", shared.ErrInvalidID, "class id is required")
	}

	name = strings.TrimSpace(name)
	if len(name) == 0 || len(name) > 50 {
		return nil, shared.NewDomainError("enrollment", "NewSection", shared.ErrValidation, "section name must be 1-50 chars")
	}

	now := time.Now().UTC()

	return &Section{
		ID:        id,
		TenantID:  tenantID,
		ClassID:   classID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// BelongsTo проверяет, относится ли секция к указанному классу.
func (s *Section) BelongsTo(classID string) bool {
	return s.ClassID == classID
}
