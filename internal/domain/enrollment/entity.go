// Package enrollment содержит доменную модель зачисления учеников.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
//
// Зачисление (Enrollment) связывает ученика с сессией, классом и секцией.
// На каждую пару (ученик, сессия) существует не более одной записи.
// Переход в следующий класс не изменяет старую запись по существу:
// создаётся новая активная запись, а старая получает терминальный статус
// и ссылку на преемника.
package enrollment

import (
	"fmt"
	"strings"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет статус записи о зачислении.
type Status string

const (
	// StatusActive - ученик учится в этой сессии.
	StatusActive Status = "active"
	// StatusPromoted - переведён в следующий класс (есть преемник).
	StatusPromoted Status = "promoted"
	// StatusRetained - оставлен на повторный год (есть преемник).
	StatusRetained Status = "retained"
	// StatusTransferred - переведён в другую школу.
	StatusTransferred Status = "transferred"
	// StatusGraduated - выпустился.
	StatusGraduated Status = "graduated"
	// StatusDropped - отчислен.
	StatusDropped Status = "dropped"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPromoted, StatusRetained, StatusTransferred, StatusGraduated, StatusDropped:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true, если из статуса нет дальнейших переходов.
func (s Status) IsTerminal() bool {
	return s != StatusActive
}

// HasSuccessor возвращает true, если статус подразумевает запись-преемника.
func (s Status) HasSuccessor() bool {
	return s == StatusPromoted || s == StatusRetained
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ENROLLMENT
// ══════════════════════════════════════════════════════════════════════════════

// Enrollment - запись о зачислении ученика на одну сессию.
type Enrollment struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// TenantID - школа, которой принадлежит запись.
	TenantID shared.TenantID

	// StudentID - ученик.
	StudentID string

	// SessionID - сессия зачисления.
	SessionID string

	// ClassID - класс на эту сессию.
	ClassID string

	// SectionID - секция на эту сессию.
	SectionID string

	// RollNo - номер ученика в классе.
	RollNo shared.RollNo

	// Status - текущий статус записи.
	Status Status

	// PromotedToID - ID записи-преемника (после promote или retain).
	PromotedToID string

	// PromotionDate - дата перевода в следующий класс.
	// Нулевая для retain и для активных записей.
	PromotionDate time.Time

	// Remarks - комментарий (причина перевода/отчисления).
	Remarks string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewEnrollmentParams содержит параметры для создания новой записи.
type NewEnrollmentParams struct {
	ID        string
	TenantID  shared.TenantID
	StudentID string
	SessionID string
	ClassID   string
	SectionID string
	RollNo    shared.RollNo
}

// NewEnrollment создаёт новую активную запись о зачислении.
func NewEnrollment(params NewEnrollmentParams) (*Enrollment, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("enrollment", "NewEnrollment", shared.ErrInvalidID, "enrollment id is required")
	}

	if !params.TenantID.IsValid() {
		return nil, shared.NewDomainError("enrollment", "NewEnrollment", shared.ErrInvalidID, "invalid tenant id")
	}

	if params.StudentID == "" || params.SessionID == "" || params.ClassID == "" || params.SectionID == "" {
		return nil, shared.NewDomainError("enrollment", "NewEnrollment", shared.ErrEmptyValue, "student, session, class and section ids are required")
	}

	if !params.RollNo.IsValid() {
		return nil, shared.NewDomainError("enrollment", "NewEnrollment", shared.ErrInvalidInput, "invalid roll number")
	}

	now := time.Now().UTC()

	return &Enrollment{
		ID:        params.ID,
		TenantID:  params.TenantID,
		StudentID: params.StudentID,
		SessionID: params.SessionID,
		ClassID:   params.ClassID,
		SectionID: params.SectionID,
		RollNo:    params.RollNo,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE TRANSITIONS
// Переходы меняют только старую запись. Создание записи-преемника и
// синхронизацию указателей ученика выполняет слой приложения в одной
// транзакции.
// ══════════════════════════════════════════════════════════════════════════════

// Promote помечает запись как "переведён" и связывает её с преемником.
// Разрешён только из статуса active.
func (e *Enrollment) Promote(successorID string, promotionDate time.Time) error {
	if e.Status != StatusActive {
		return shared.TransitionError("Promote", string(e.Status))
	}

	if successorID == "" {
		return shared.NewDomainError("enrollment", "Promote", shared.ErrEmptyValue, "successor enrollment id is required")
	}

	if successorID == e.ID {
		return shared.NewDomainError("enrollment", "Promote", shared.ErrValidation, "enrollment cannot be its own successor")
	}

	e.Status = StatusPromoted
	e.PromotedToID = successorID
	e.PromotionDate = shared.DateOnly(promotionDate)
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// Retain помечает запись как "оставлен на повторный год" и связывает её
// с преемником. Дата перевода не выставляется. Разрешён только из active.
func (e *Enrollment) Retain(successorID string) error {
	if e.Status != StatusActive {
		return shared.TransitionError("Retain", string(e.Status))
	}

	if successorID == "" {
		return shared.NewDomainError("enrollment", "Retain", shared.ErrEmptyValue, "successor enrollment id is required")
	}

	if successorID == e.ID {
		return shared.NewDomainError("enrollment", "Retain", shared.ErrValidation, "enrollment cannot be its own successor")
	}

	e.Status = StatusRetained
	e.PromotedToID = successorID
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// TransferOut помечает запись как "переведён в другую школу".
// Предусловий на статус нет: перевод фиксируется в любом состоянии записи.
func (e *Enrollment) TransferOut(remarks string) {
	e.Status = StatusTransferred
	e.Remarks = strings.TrimSpace(remarks)
	e.UpdatedAt = time.Now().UTC()
}

// Graduate помечает запись как "выпустился". Разрешён только из active.
func (e *Enrollment) Graduate() error {
	if e.Status != StatusActive {
		return shared.TransitionError("Graduate", string(e.Status))
	}

	e.Status = StatusGraduated
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// Drop помечает запись как "отчислен". Разрешён только из active.
func (e *Enrollment) Drop(remarks string) error {
	if e.Status != StatusActive {
		return shared.TransitionError("Drop", string(e.Status))
	}

	e.Status = StatusDropped
	e.Remarks = strings.TrimSpace(remarks)
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// IsActive возвращает true, если запись активна.
func (e *Enrollment) IsActive() bool {
	return e.Status == StatusActive
}

// String возвращает строковое представление записи для логирования.
func (e *Enrollment) String() string {
	return fmt.Sprintf(
		"Enrollment{ID: %s, Student: %s, Session: %s, Status: %s}",
		e.ID, e.StudentID, e.SessionID, e.Status,
	)
}

// Clone создаёт глубокую копию записи.
func (e *Enrollment) Clone() *Enrollment {
	if e == nil {
		return nil
	}

	clone := *e
	return &clone
}
