package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

const testTenantID = shared.TenantID("3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c")

func createSessionCmd(name string, year int, activate bool) CreateSessionCommand {
	return CreateSessionCommand{
		TenantID: testTenantID,
		Name:     name,
		Start:    time.Date(year, 4, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(year+1, 3, 31, 0, 0, 0, 0, time.UTC),
		Activate: activate,
	}
}

func TestCreateSession_ActivateSwapsPrevious(t *testing.T) {
	repo := newMemSessionRepo()
	pub := &memPublisher{}
	handler := NewCreateSessionHandler(repo, pub)
	ctx := context.Background()

	first, err := handler.Handle(ctx, createSessionCmd("2024-2025", 2024, true))
	assert.NoError(t, err)
	assert.Empty(t, first.PreviousActiveID)

	second, err := handler.Handle(ctx, createSessionCmd("2025-2026", 2025, true))
	assert.NoError(t, err)
	assert.Equal(t, first.SessionID, second.PreviousActiveID)

	// only one session holds the active flag
	active, err := repo.GetActive(ctx, testTenantID)
	assert.NoError(t, err)
	assert.Equal(t, second.SessionID, active.ID)

	event := pub.last()
	assert.Equal(t, shared.EventSessionActivated, event.EventType())
}

func TestCreateSession_DuplicateName(t *testing.T) {
	repo := newMemSessionRepo()
	handler := NewCreateSessionHandler(repo, &memPublisher{})
	ctx := context.Background()

	_, err := handler.Handle(ctx, createSessionCmd("2025-2026", 2025, false))
	assert.NoError(t, err)

	_, err = handler.Handle(ctx, createSessionCmd("2025-2026", 2025, false))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestLockSession(t *testing.T) {
	repo := newMemSessionRepo()
	pub := &memPublisher{}
	create := NewCreateSessionHandler(repo, pub)
	lock := NewLockSessionHandler(repo, pub)
	ctx := context.Background()

	created, err := create.Handle(ctx, createSessionCmd("2024-2025", 2024, false))
	assert.NoError(t, err)

	cmd := LockSessionCommand{TenantID: testTenantID, SessionID: created.SessionID}
	assert.NoError(t, lock.Handle(ctx, cmd))

	s, _ := repo.GetByID(ctx, testTenantID, created.SessionID)
	assert.True(t, s.IsLocked)

	// locking is one-way and not repeatable
	err = lock.Handle(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrIllegalState)
}

func TestActivateSession_LockedRejected(t *testing.T) {
	repo := newMemSessionRepo()
	pub := &memPublisher{}
	create := NewCreateSessionHandler(repo, pub)
	lock := NewLockSessionHandler(repo, pub)
	activate := NewActivateSessionHandler(repo, pub)
	ctx := context.Background()

	created, _ := create.Handle(ctx, createSessionCmd("2023-2024", 2023, false))
	assert.NoError(t, lock.Handle(ctx, LockSessionCommand{TenantID: testTenantID, SessionID: created.SessionID}))

	_, err := activate.Handle(ctx, ActivateSessionCommand{TenantID: testTenantID, SessionID: created.SessionID})
	assert.ErrorIs(t, err, shared.ErrSessionLocked)
}

func TestActivateSession_NotFound(t *testing.T) {
	handler := NewActivateSessionHandler(newMemSessionRepo(), &memPublisher{})

	_, err := handler.Handle(context.Background(), ActivateSessionCommand{
		TenantID:  testTenantID,
		SessionID: "missing",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
