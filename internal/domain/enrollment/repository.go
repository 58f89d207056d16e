package enrollment

import (
	"context"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository определяет операции для работы с учениками.
type StudentRepository interface {
	// Create создаёт нового ученика.
	// Возвращает shared.ErrAlreadyExists при конфликте регистрационного номера.
	Create(ctx context.Context, s *Student) error

	// GetByID возвращает ученика по ID в рамках школы.
	// Возвращает shared.ErrNotFound, если ученик не найден.
	GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*Student, error)

	// GetByAdmissionNo возвращает ученика по регистрационному номеру.
	// Возвращает shared.ErrNotFound, если ученик не найден.
	GetByAdmissionNo(ctx context.Context, tenantID shared.TenantID, admissionNo string) (*Student, error)

	// Update сохраняет изменённого ученика.
	// Возвращает shared.ErrNotFound, если ученик не найден.
	Update(ctx context.Context, s *Student) error

	// ListBySection возвращает учеников, активно зачисленных в секцию
	// в указанной сессии, отсортированных по номеру в классе.
	ListBySection(ctx context.Context, tenantID shared.TenantID, sessionID, sectionID string) ([]*Student, error)

	// ExistsByAdmissionNo проверяет занятость регистрационного номера.
	ExistsByAdmissionNo(ctx context.Context, tenantID shared.TenantID, admissionNo string) (bool, error)
}

// Repository определяет операции для работы с записями о зачислении.
type Repository interface {
	// Create создаёт новую запись.
	// Возвращает shared.ErrAlreadyExists, если у ученика уже есть запись
	// в этой сессии.
	Create(ctx context.Context, e *Enrollment) error

	// GetByID возвращает запись по ID в рамках школы.
	// Возвращает shared.ErrNotFound, если запись не найдена.
	GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*Enrollment, error)

	// GetByStudentAndSession возвращает запись ученика в сессии.
	// Возвращает shared.ErrNotFound, если записи нет.
	GetByStudentAndSession(ctx context.Context, tenantID shared.TenantID, studentID, sessionID string) (*Enrollment, error)

	// Update сохраняет изменённую запись.
	// Возвращает shared.ErrNotFound, если запись не найдена.
	Update(ctx context.Context, e *Enrollment) error

	// HistoryByStudent возвращает все записи ученика, отсортированные по
	// времени создания (старые первыми). Цепочка PromotedToID образует
	// академическую историю.
	HistoryByStudent(ctx context.Context, tenantID shared.TenantID, studentID string) ([]*Enrollment, error)

	// ListActiveBySection возвращает активные записи секции в сессии,
	// отсортированные по номеру в классе.
	ListActiveBySection(ctx context.Context, tenantID shared.TenantID, sessionID, sectionID string) ([]*Enrollment, error)

	// ListActiveBySession возвращает все активные записи сессии.
	// Используется при массовом переводе в конце года.
	ListActiveBySession(ctx context.Context, tenantID shared.TenantID, sessionID string) ([]*Enrollment, error)

	// CountActiveBySection возвращает количество активных записей секции.
	// Используется для номера в классе по умолчанию.
	CountActiveBySection(ctx context.Context, tenantID shared.TenantID, sessionID, sectionID string) (int, error)
}

// ClassRepository определяет операции для работы с классами и секциями.
type ClassRepository interface {
	// CreateClass создаёт новый класс.
	CreateClass(ctx context.Context, c *Class) error

	// GetClass возвращает класс по ID.
	// Возвращает shared.ErrNotFound, если класс не найден.
	GetClass(ctx context.Context, tenantID shared.TenantID, id string) (*Class, error)

	// ListClasses возвращает классы школы по возрастанию номера.
	ListClasses(ctx context.Context, tenantID shared.TenantID) ([]*Class, error)

	// CreateSection создаёт новую секцию.
	CreateSection(ctx context.Context, s *Section) error

	// GetSection возвращает секцию по ID.
	// Возвращает shared.ErrNotFound, если секция не найдена.
	GetSection(ctx context.Context, tenantID shared.TenantID, id string) (*Section, error)

	// ListSections возвращает секции класса по названию.
	ListSections(ctx context.Context, tenantID shared.TenantID, classID string) ([]*Section, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK (для транзакций)
// Переходы жизненного цикла затрагивают две записи о зачислении и
// указатели ученика - всё в одной транзакции.
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork представляет единицу работы с транзакционной семантикой.
type UnitOfWork interface {
	// Students возвращает репозиторий учеников в рамках транзакции.
	Students() StudentRepository

	// Enrollments возвращает репозиторий зачислений в рамках транзакции.
	Enrollments() Repository

	// Commit фиксирует транзакцию.
	Commit(ctx context.Context) error

	// Rollback откатывает транзакцию.
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory создаёт единицы работы.
type UnitOfWorkFactory interface {
	// Begin начинает новую транзакцию.
	Begin(ctx context.Context) (UnitOfWork, error)
}
