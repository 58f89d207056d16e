// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE SESSION COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateSessionCommand contains the data needed to create a session.
type CreateSessionCommand struct {
	// TenantID is the school the session belongs to.
	TenantID shared.TenantID

	// Name is the session name ("2025-2026").
	Name string

	// Start and End bound the session period (half-open).
	Start time.Time
	End   time.Time

	// Activate makes the new session the school's active one immediately.
	Activate bool

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreateSessionCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("create_session: valid tenant_id is required")
	}
	if c.Name == "" {
		return errors.New("create_session: name is required")
	}
	return nil
}

// CreateSessionResult contains the result of session creation.
type CreateSessionResult struct {
	// SessionID is the ID of the created session.
	SessionID string

	// PreviousActiveID is the session that lost the active flag
	// (empty when Activate was false or no session was active).
	PreviousActiveID string
}

// CreateSessionHandler handles the CreateSessionCommand.
type CreateSessionHandler struct {
	sessionRepo    session.Repository
	eventPublisher shared.EventPublisher
}

// NewCreateSessionHandler creates a new CreateSessionHandler.
func NewCreateSessionHandler(sessionRepo session.Repository, eventPublisher shared.EventPublisher) *CreateSessionHandler {
	return &CreateSessionHandler{
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the create session command.
func (h *CreateSessionHandler) Handle(ctx context.Context, cmd CreateSessionCommand) (*CreateSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_session: validation failed: %w", err)
	}

	s, err := session.NewSession(session.NewSessionParams{
		ID:       uuid.NewString(),
		TenantID: cmd.TenantID,
		Name:     session.Name(cmd.Name),
		Start:    cmd.Start,
		End:      cmd.End,
	})
	if err != nil {
		return nil, fmt.Errorf("create_session: %w", err)
	}

	if err := h.sessionRepo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create_session: failed to save session: %w", err)
	}

	result := &CreateSessionResult{SessionID: s.ID}

	if cmd.Activate {
		previousID, err := h.sessionRepo.Activate(ctx, cmd.TenantID, s.ID)
		if err != nil {
			return nil, fmt.Errorf("create_session: failed to activate session: %w", err)
		}
		result.PreviousActiveID = previousID

		event := shared.NewSessionActivatedEvent(cmd.TenantID.String(), s.ID, previousID)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		// Events are best-effort: a failed publish never fails the command.
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVATE SESSION COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ActivateSessionCommand makes a session the school's active one.
type ActivateSessionCommand struct {
	TenantID  shared.TenantID
	SessionID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ActivateSessionCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("activate_session: valid tenant_id is required")
	}
	if c.SessionID == "" {
		return errors.New("activate_session: session_id is required")
	}
	return nil
}

// ActivateSessionResult contains the result of activation.
type ActivateSessionResult struct {
	// PreviousActiveID is the session that lost the active flag.
	PreviousActiveID string
}

// ActivateSessionHandler handles the ActivateSessionCommand.
type ActivateSessionHandler struct {
	sessionRepo    session.Repository
	eventPublisher shared.EventPublisher
}

// NewActivateSessionHandler creates a new ActivateSessionHandler.
func NewActivateSessionHandler(sessionRepo session.Repository, eventPublisher shared.EventPublisher) *ActivateSessionHandler {
	return &ActivateSessionHandler{
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the activate session command.
func (h *ActivateSessionHandler) Handle(ctx context.Context, cmd ActivateSessionCommand) (*ActivateSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("activate_session: validation failed: %w", err)
	}

	s, err := h.sessionRepo.GetByID(ctx, cmd.TenantID, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("activate_session: %w", err)
	}

	// A locked session cannot become the school's current one.
	if s.IsLocked {
		return nil, shared.LockedError("session", "ActivateSession", s.ID)
	}

	previousID, err := h.sessionRepo.Activate(ctx, cmd.TenantID, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("activate_session: %w", err)
	}

	event := shared.NewSessionActivatedEvent(cmd.TenantID.String(), cmd.SessionID, previousID)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &ActivateSessionResult{PreviousActiveID: previousID}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOCK SESSION COMMAND
// Locking is one-way: a locked session is a read-only archive.
// ══════════════════════════════════════════════════════════════════════════════

// LockSessionCommand locks a session against further edits.
type LockSessionCommand struct {
	TenantID  shared.TenantID
	SessionID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c LockSessionCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("lock_session: valid tenant_id is required")
	}
	if c.SessionID == "" {
		return errors.New("lock_session: session_id is required")
	}
	return nil
}

// LockSessionHandler handles the LockSessionCommand.
type LockSessionHandler struct {
	sessionRepo    session.Repository
	eventPublisher shared.EventPublisher
}

// NewLockSessionHandler creates a new LockSessionHandler.
func NewLockSessionHandler(sessionRepo session.Repository, eventPublisher shared.EventPublisher) *LockSessionHandler {
	return &LockSessionHandler{
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the lock session command.
func (h *LockSessionHandler) Handle(ctx context.Context, cmd LockSessionCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("lock_session: validation failed: %w", err)
	}

	s, err := h.sessionRepo.GetByID(ctx, cmd.TenantID, cmd.SessionID)
	if err != nil {
		return fmt.Errorf("lock_session: %w", err)
	}

	if err := s.Lock(); err != nil {
		return err
	}

	if err := h.sessionRepo.Update(ctx, s); err != nil {
		return fmt.Errorf("lock_session: failed to save session: %w", err)
	}

	event := shared.NewSessionLockedEvent(cmd.TenantID.String(), cmd.SessionID)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return nil
}
