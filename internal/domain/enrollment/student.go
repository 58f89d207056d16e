package enrollment

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ENTITY
// Ученик принадлежит школе и хранит указатели на текущее зачисление.
// История по сессиям живёт в записях Enrollment.
// ══════════════════════════════════════════════════════════════════════════════

// Gender представляет пол ученика.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// IsValid проверяет корректность значения.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// Student - ученик школы. Указатели Current* всегда отражают последнее
// активное зачисление и синхронизируются при каждом переходе.
type Student struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// TenantID - школа, которой принадлежит ученик.
	TenantID shared.TenantID

	// AdmissionNo - регистрационный номер вида PREFIX_YEAR_XXXXXX.
	AdmissionNo string

	// FirstName, LastName - имя и фамилия.
	FirstName string
	LastName  string

	// DateOfBirth - дата рождения. Используется для пароля по умолчанию.
	DateOfBirth time.Time

	// Gender - пол ученика.
	Gender Gender

	// GuardianName - имя родителя или опекуна.
	GuardianName string

	// Phone - контактный телефон.
	Phone string

	// PasswordHash - bcrypt-хеш пароля для ученического портала.
	PasswordHash string

	// CurrentSessionID - сессия последнего активного зачисления.
	CurrentSessionID string

	// CurrentClassID - класс последнего активного зачисления.
	CurrentClassID string

	// CurrentSectionID - секция последнего активного зачисления.
	CurrentSectionID string

	// IsActive - числится ли ученик в школе.
	IsActive bool

	// AdmittedAt - дата приёма в школу.
	AdmittedAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// PasswordHasher хеширует и проверяет пароли учеников.
// Реализация (bcrypt) находится в infrastructure/security.
type PasswordHasher interface {
	// Hash возвращает хеш пароля.
	Hash(password string) (string, error)

	// Compare проверяет пароль против хеша.
	Compare(hash, password string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMISSION NUMBER GENERATION
// ══════════════════════════════════════════════════════════════════════════════

// GenerateAdmissionNo генерирует регистрационный номер вида PREFIX_YEAR_XXXXXX,
// где XXXXXX - шесть случайных цифр. Уникальность гарантирует хранилище:
// при коллизии вызывающая сторона генерирует номер заново.
func GenerateAdmissionNo(prefix string, year int) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", shared.NewDomainError("enrollment", "GenerateAdmissionNo", shared.ErrEmptyValue, "admission prefix is required")
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", shared.WrapError("enrollment", "GenerateAdmissionNo", shared.ErrValidation, "failed to generate admission number", err)
	}

	return fmt.Sprintf("%s_%d_%06d", prefix, year, n.Int64()), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewStudentParams содержит параметры для создания нового ученика.
type NewStudentParams struct {
	ID           string
	TenantID     shared.TenantID
	AdmissionNo  string
	FirstName    string
	LastName     string
	DateOfBirth  time.Time
	Gender       Gender
	GuardianName string
	Phone        string
}

// NewStudent создаёт нового ученика с валидацией всех полей.
// Пароль выставляется отдельно через SetDefaultPassword или SetPassword.
func NewStudent(params NewStudentParams) (*Student, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("enrollment", "NewStudent", shared.ErrInvalidID, "student id is required")
	}

	if !params.TenantID.IsValid() {
		return nil, shared.NewDomainError("enrollment", "NewStudent", shared.ErrInvalidID, "invalid tenant id")
	}

	if strings.TrimSpace(params.AdmissionNo) == "" {
		return nil, shared.NewDomainError("enrollment", "NewStudent", shared.ErrEmptyValue, "admission number is required")
	}

	firstName := strings.TrimSpace(params.FirstName)
	if len(firstName) == 0 || len(firstName) > 100 {
		return nil, shared.NewDomainError("enrollment", "NewStudent", shared.ErrValidation, "first name must be 1-100 chars")
	}

	lastName := strings.TrimSpace(params.LastName)
	if len(lastName) > 100 {
		return nil, shared.NewDomainError("enrollment", "NewStudent", shared.ErrValidation, "last name must be at most 100 chars")
	}

	if params.DateOfBirth.IsZero() {
		return nil, shared.NewDomainError("enrollment", "NewStudent", shared.ErrEmptyValue, "date of birth is required")
	}

	if params.Gender != "" && !params.Gender.IsValid() {
		return nil, shared.NewDomainError("enrollment", "NewStudent", shared.ErrValidation, "invalid gender value")
	}

	now := time.Now().UTC()

	return &Student{
		ID:           params.ID,
		TenantID:     params.TenantID,
		AdmissionNo:  strings.TrimSpace(params.AdmissionNo),
		FirstName:    firstName,
		LastName:     lastName,
		DateOfBirth:  shared.DateOnly(params.DateOfBirth),
		Gender:       params.Gender,
		GuardianName: strings.TrimSpace(params.GuardianName),
		Phone:        strings.TrimSpace(params.Phone),
		IsActive:     true,
		AdmittedAt:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// FullName возвращает полное имя ученика.
func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// DefaultPassword возвращает пароль по умолчанию: дата рождения в формате
// DDMMYYYY.
func (s *Student) DefaultPassword() string {
	return s.DateOfBirth.Format("02012006")
}

// SetPassword хеширует и сохраняет новый пароль.
func (s *Student) SetPassword(hasher PasswordHasher, password string) error {
	if len(password) < 6 {
		return shared.NewDomainError("enrollment", "SetPassword", shared.ErrValidation, "password must be at least 6 chars")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return shared.WrapError("enrollment", "SetPassword", shared.ErrValidation, "failed to hash password", err)
	}

	s.PasswordHash = hash
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetDefaultPassword выставляет пароль по умолчанию из даты рождения.
func (s *Student) SetDefaultPassword(hasher PasswordHasher) error {
	return s.SetPassword(hasher, s.DefaultPassword())
}

// CheckPassword проверяет пароль ученика.
func (s *Student) CheckPassword(hasher PasswordHasher, password string) error {
	return hasher.Compare(s.PasswordHash, password)
}

// SyncCurrent обновляет указатели на текущее зачисление.
// Вызывается после приёма, перевода в следующий класс или оставления.
func (s *Student) SyncCurrent(sessionID, classID, sectionID string) {
	s.CurrentSessionID = sessionID
	s.CurrentClassID = classID
	s.CurrentSectionID = sectionID
	s.UpdatedAt = time.Now().UTC()
}

// Deactivate помечает ученика как выбывшего из школы.
// Вызывается при отчислении или переводе в другую школу.
func (s *Student) Deactivate() {
	s.IsActive = false
	s.UpdatedAt = time.Now().UTC()
}

// String возвращает строковое представление ученика для логирования.
func (s *Student) String() string {
	return fmt.Sprintf(
		"Student{ID: %s, AdmissionNo: %s, Name: %s, Active: %t}",
		s.ID, s.AdmissionNo, s.FullName(), s.IsActive,
	)
}

// Clone создаёт глубокую копию ученика.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}

	clone := *s
	return &clone
}
