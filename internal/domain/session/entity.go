// Package session содержит доменную модель учебного года (академической сессии).
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Name представляет название сессии (например, "2025-2026").
type Name string

// IsValid проверяет корректность названия сессии.
func (n Name) IsValid() bool {
	s := strings.TrimSpace(string(n))
	return len(s) >= 2 && len(s) <= 100
}

// String возвращает строковое представление названия.
func (n Name) String() string {
	return string(n)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: SESSION
// ══════════════════════════════════════════════════════════════════════════════

// Session - учебный год школы. В каждой школе в любой момент времени
// активна не более одной сессии. Заблокированная сессия становится
// архивом: её записи о зачислении больше нельзя изменять.
type Session struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// TenantID - школа, которой принадлежит сессия.
	TenantID shared.TenantID

	// Name - человекочитаемое название ("2025-2026").
	Name Name

	// Period - период сессии (даты начала и конца).
	Period shared.DateRange

	// IsActive - является ли сессия текущей для школы.
	IsActive bool

	// IsLocked - заблокирована ли сессия для изменений.
	IsLocked bool

	// LockedAt - время блокировки (нулевое, если не заблокирована).
	LockedAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewSessionParams содержит параметры для создания новой сессии.
type NewSessionParams struct {
	ID       string
	TenantID shared.TenantID
	Name     Name
	Start    time.Time
	End      time.Time
}

// NewSession создаёт новую сессию с валидацией всех полей.
// Сессия создаётся неактивной и незаблокированной.
func NewSession(params NewSessionParams) (*Session, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("session", "NewSession", shared.ErrInvalidID, "session id is required")
	}

	if !params.TenantID.IsValid() {
		return nil, shared.NewDomainError("session", "NewSession", shared.ErrInvalidID, "invalid tenant id")
	}

	if !params.Name.IsValid() {
		return nil, shared.NewDomainError("session", "NewSession", shared.ErrValidation, "session name must be 2-100 chars")
	}

	period, err := shared.NewDateRange(params.Start, params.End)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Session{
		ID:        params.ID,
		TenantID:  params.TenantID,
		Name:      Name(strings.TrimSpace(params.Name.String())),
		Period:    period,
		IsActive:  false,
		IsLocked:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// IsEditable возвращает true, если записи сессии можно изменять.
func (s *Session) IsEditable() bool {
	return !s.IsLocked
}

// Activate помечает сессию как активную.
// Атомарное снятие флага с предыдущей активной сессии выполняет репозиторий.
func (s *Session) Activate() error {
	if s.IsLocked {
		return shared.LockedError("session", "Activate", s.ID)
	}

	s.IsActive = true
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate снимает с сессии флаг активности.
func (s *Session) Deactivate() {
	s.IsActive = false
	s.UpdatedAt = time.Now().UTC()
}

// Lock блокирует сессию для изменений. Повторная блокировка - ошибка.
// Блокировка не снимается: разблокировка сессии не предусмотрена.
func (s *Session) Lock() error {
	if s.IsLocked {
		return shared.NewDomainError("session", "Lock", shared.ErrIllegalState, "session is already locked")
	}

	now := time.Now().UTC()
	s.IsLocked = true
	s.IsActive = false
	s.LockedAt = now
	s.UpdatedAt = now
	return nil
}

// Contains проверяет, попадает ли дата в период сессии.
func (s *Session) Contains(t time.Time) bool {
	return s.Period.Contains(t)
}

// Year возвращает календарный год начала сессии.
// Используется при генерации номеров зачисления.
func (s *Session) Year() int {
	return s.Period.Year()
}

// String возвращает строковое представление сессии для логирования.
func (s *Session) String() string {
	return fmt.Sprintf(
		"Session{ID: %s, Name: %s, Active: %t, Locked: %t}",
		s.ID, s.Name, s.IsActive, s.IsLocked,
	)
}

// Clone создаёт глубокую копию сессии.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	clone := *s
	return &clone
}
