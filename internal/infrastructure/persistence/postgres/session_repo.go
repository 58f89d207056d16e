package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const sessionColumns = `id, tenant_id, name, start_date, end_date,
	is_active, is_locked, locked_at, created_at, updated_at`

// SessionRepository implements session.Repository for PostgreSQL.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO sessions (
			id, tenant_id, name, start_date, end_date,
			is_active, is_locked, locked_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.TenantID.String(),
		s.Name.String(),
		s.Period.Start,
		s.Period.End,
		s.IsActive,
		s.IsLocked,
		nullableTime(s.LockedAt),
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("session", "Create", shared.ErrAlreadyExists, "session name already exists in school")
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID returns a session by ID within a school.
func (r *SessionRepository) GetByID(ctx context.Context, tenantID shared.TenantID, id string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE tenant_id = $1 AND id = $2`

	row := r.conn.QueryRow(ctx, query, tenantID.String(), id)
	return scanSession(row)
}

// GetActive returns the school's single active session.
func (r *SessionRepository) GetActive(ctx context.Context, tenantID shared.TenantID) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE tenant_id = $1 AND is_active`

	row := r.conn.QueryRow(ctx, query, tenantID.String())
	return scanSession(row)
}

// Update persists a modified session.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	query := `
		UPDATE sessions SET
			name = $1,
			start_date = $2,
			end_date = $3,
			is_active = $4,
			is_locked = $5,
			locked_at = $6,
			updated_at = $7
		WHERE tenant_id = $8 AND id = $9
	`

	result, err := r.conn.Exec(ctx, query,
		s.Name.String(),
		s.Period.Start,
		s.Period.End,
		s.IsActive,
		s.IsLocked,
		nullableTime(s.LockedAt),
		time.Now().UTC(),
		s.TenantID.String(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("session", "Update", shared.ErrNotFound, "session not found")
	}

	return nil
}

// Activate makes the session the school's active one, deactivating the
// previous active session in the same transaction. Returns the previous
// active session's ID, empty when there was none.
func (r *SessionRepository) Activate(ctx context.Context, tenantID shared.TenantID, sessionID string) (string, error) {
	var previousID string

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE sessions SET is_active = FALSE, updated_at = NOW()
			WHERE tenant_id = $1 AND is_active AND id <> $2
			RETURNING id
		`, tenantID.String(), sessionID).Scan(&previousID)
		if err != nil && !IsNoRows(err) {
			return fmt.Errorf("failed to deactivate previous session: %w", err)
		}

		result, err := tx.Exec(ctx, `
			UPDATE sessions SET is_active = TRUE, updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2
		`, tenantID.String(), sessionID)
		if err != nil {
			return fmt.Errorf("failed to activate session: %w", err)
		}
		if result.RowsAffected() == 0 {
			return shared.NewDomainError("session", "Activate", shared.ErrNotFound, "session not found")
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return previousID, nil
}

// List returns the school's sessions, newest first.
func (r *SessionRepository) List(ctx context.Context, tenantID shared.TenantID) ([]*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE tenant_id = $1 ORDER BY start_date DESC`

	rows, err := r.conn.Query(ctx, query, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// Exists reports whether the session exists in the school.
func (r *SessionRepository) Exists(ctx context.Context, tenantID shared.TenantID, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM sessions WHERE tenant_id = $1 AND id = $2)`,
		tenantID.String(), id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return exists, nil
}

// Count returns the number of sessions in the school.
func (r *SessionRepository) Count(ctx context.Context, tenantID shared.TenantID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE tenant_id = $1`,
		tenantID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// scanSession scans a session from a row.
func scanSession(row pgx.Row) (*session.Session, error) {
	var (
		s        session.Session
		tenantID string
		name     string
		lockedAt *time.Time
	)

	err := row.Scan(
		&s.ID,
		&tenantID,
		&name,
		&s.Period.Start,
		&s.Period.End,
		&s.IsActive,
		&s.IsLocked,
		&lockedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("session", "Get", shared.ErrNotFound, "session not found")
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	s.TenantID = shared.TenantID(tenantID)
	s.Name = session.Name(name)
	if lockedAt != nil {
		s.LockedAt = *lockedAt
	}

	return &s, nil
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
