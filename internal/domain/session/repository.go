package session

import (
	"context"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции для работы с сессиями.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create создаёт новую сессию.
	// Возвращает shared.ErrAlreadyExists, если сессия с таким названием
	// уже есть у школы.
	Create(ctx context.Context, s *Session) error

	// GetByID возвращает сессию по ID в рамках школы.
	// Возвращает shared.ErrNotFound, если сессия не найдена.
	GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*Session, error)

	// GetActive возвращает активную сессию школы.
	// Возвращает shared.ErrNotFound, если активной сессии нет.
	GetActive(ctx context.Context, tenantID shared.TenantID) (*Session, error)

	// Update сохраняет изменённую сессию (название, период, блокировку).
	// Возвращает shared.ErrNotFound, если сессия не найдена.
	Update(ctx context.Context, s *Session) error

	// ─────────────────────────────────────────────────────────────────────────
	// Activation
	// ─────────────────────────────────────────────────────────────────────────

	// Activate атомарно делает сессию активной: в одной транзакции снимает
	// флаг с текущей активной сессии школы и ставит его на указанную.
	// Возвращает ID предыдущей активной сессии ("" если её не было).
	Activate(ctx context.Context, tenantID shared.TenantID, sessionID string) (previousID string, err error)

	// ─────────────────────────────────────────────────────────────────────────
	// Listing
	// ─────────────────────────────────────────────────────────────────────────

	// List возвращает все сессии школы, отсортированные по дате начала
	// (новые первыми).
	List(ctx context.Context, tenantID shared.TenantID) ([]*Session, error)

	// Exists проверяет существование сессии по ID.
	Exists(ctx context.Context, tenantID shared.TenantID, id string) (bool, error)

	// Count возвращает количество сессий школы.
	Count(ctx context.Context, tenantID shared.TenantID) (int, error)
}
