package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

const testTenantID = shared.TenantID("3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c")

func validParams() NewSessionParams {
	return NewSessionParams{
		ID:       "a1b2c3d4-0000-4000-8000-000000000001",
		TenantID: testTenantID,
		Name:     "2025-2026",
		Start:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewSession(t *testing.T) {
	s, err := NewSession(validParams())
	assert.NoError(t, err)
	assert.Equal(t, Name("2025-2026"), s.Name)
	assert.False(t, s.IsActive)
	assert.False(t, s.IsLocked)
	assert.True(t, s.IsEditable())
	assert.Equal(t, 2025, s.Year())
}

func TestNewSession_EndBeforeStart(t *testing.T) {
	params := validParams()
	params.Start, params.End = params.End, params.Start

	_, err := NewSession(params)
	assert.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestNewSession_EqualDates(t *testing.T) {
	params := validParams()
	params.End = params.Start

	_, err := NewSession(params)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestNewSession_InvalidTenant(t *testing.T) {
	params := validParams()
	params.TenantID = "not-a-uuid"

	_, err := NewSession(params)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestSession_Lock(t *testing.T) {
	s, _ := NewSession(validParams())
	assert.NoError(t, s.Activate())

	err := s.Lock()
	assert.NoError(t, err)
	assert.True(t, s.IsLocked)
	// Блокировка снимает флаг активности: заблокированная сессия не должна
	// оставаться текущей сессией школы.
	assert.False(t, s.IsActive)
	assert.False(t, s.IsEditable())
	assert.False(t, s.LockedAt.IsZero())
}

func TestSession_Lock_AlreadyLocked(t *testing.T) {
	s, _ := NewSession(validParams())
	assert.NoError(t, s.Lock())

	// Повторная блокировка должна быть отклонена.
	err := s.Lock()
	assert.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrIllegalState)
}

func TestSession_Activate(t *testing.T) {
	s, _ := NewSession(validParams())

	assert.NoError(t, s.Activate())
	assert.True(t, s.IsActive)

	s.Deactivate()
	assert.False(t, s.IsActive)
}

func TestSession_Activate_Locked(t *testing.T) {
	s, _ := NewSession(validParams())
	assert.NoError(t, s.Lock())

	err := s.Activate()
	assert.ErrorIs(t, err, shared.ErrSessionLocked)
}

func TestSession_Contains(t *testing.T) {
	s, _ := NewSession(validParams())

	assert.True(t, s.Contains(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, s.Contains(s.Period.Start))
	assert.False(t, s.Contains(s.Period.End)) // полуоткрытый интервал
	assert.False(t, s.Contains(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
}
