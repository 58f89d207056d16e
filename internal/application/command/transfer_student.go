package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSFER STUDENT COMMAND
// Transfer-out closes the enrollment and deactivates the student. Unlike
// graduation and dropping, it carries no status precondition: a transfer
// can be recorded over an already-closed enrollment.
// ══════════════════════════════════════════════════════════════════════════════

// TransferStudentCommand contains the data needed to transfer a student out.
type TransferStudentCommand struct {
	TenantID  shared.TenantID
	StudentID string
	SessionID string

	// Remarks records the transfer reason or destination.
	Remarks string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c TransferStudentCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("transfer_student: valid tenant_id is required")
	}
	if c.StudentID == "" {
		return errors.New("transfer_student: student_id is required")
	}
	if c.SessionID == "" {
		return errors.New("transfer_student: session_id is required")
	}
	return nil
}

// TransferStudentHandler handles the TransferStudentCommand.
type TransferStudentHandler struct {
	sessionRepo    session.Repository
	uowFactory     enrollment.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
}

// NewTransferStudentHandler creates a new TransferStudentHandler.
func NewTransferStudentHandler(
	sessionRepo session.Repository,
	uowFactory enrollment.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
) *TransferStudentHandler {
	return &TransferStudentHandler{
		sessionRepo:    sessionRepo,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the transfer student command.
func (h *TransferStudentHandler) Handle(ctx context.Context, cmd TransferStudentCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("transfer_student: validation failed: %w", err)
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.TenantID, cmd.SessionID)
	if err != nil {
		return fmt.Errorf("transfer_student: %w", err)
	}
	if sess.IsLocked {
		return shared.LockedError("enrollment", "TransferStudent", sess.ID)
	}

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return fmt.Errorf("transfer_student: failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	enr, err := uow.Enrollments().GetByStudentAndSession(ctx, cmd.TenantID, cmd.StudentID, cmd.SessionID)
	if err != nil {
		return fmt.Errorf("transfer_student: %w", err)
	}

	enr.TransferOut(cmd.Remarks)

	stu, err := uow.Students().GetByID(ctx, cmd.TenantID, cmd.StudentID)
	if err != nil {
		return fmt.Errorf("transfer_student: %w", err)
	}
	stu.Deactivate()

	if err := uow.Enrollments().Update(ctx, enr); err != nil {
		return fmt.Errorf("transfer_student: failed to update enrollment: %w", err)
	}
	if err := uow.Students().Update(ctx, stu); err != nil {
		return fmt.Errorf("transfer_student: failed to update student: %w", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("transfer_student: failed to commit: %w", err)
	}

	event := shared.NewEnrollmentChangedEvent(shared.EventStudentTransferred, cmd.TenantID.String(), cmd.StudentID, enr.ID, cmd.SessionID)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CONCLUDE ENROLLMENT COMMAND
// Graduation and dropping both close an active enrollment without a
// successor. Graduation additionally deactivates the student.
// ══════════════════════════════════════════════════════════════════════════════

// Conclusion selects how an enrollment is concluded.
type Conclusion string

const (
	// ConclusionGraduate marks the student as having finished school.
	ConclusionGraduate Conclusion = "graduate"
	// ConclusionDrop marks the student as dropped out.
	ConclusionDrop Conclusion = "drop"
)

// ConcludeEnrollmentCommand contains the data needed to conclude an enrollment.
type ConcludeEnrollmentCommand struct {
	TenantID  shared.TenantID
	StudentID string
	SessionID string

	// Conclusion is graduate or drop.
	Conclusion Conclusion

	// Remarks records the reason (used for drops).
	Remarks string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ConcludeEnrollmentCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("conclude_enrollment: valid tenant_id is required")
	}
	if c.StudentID == "" {
		return errors.New("conclude_enrollment: student_id is required")
	}
	if c.SessionID == "" {
		return errors.New("conclude_enrollment: session_id is required")
	}
	if c.Conclusion != ConclusionGraduate && c.Conclusion != ConclusionDrop {
		return errors.New("conclude_enrollment: conclusion must be graduate or drop")
	}
	return nil
}

// ConcludeEnrollmentHandler handles the ConcludeEnrollmentCommand.
type ConcludeEnrollmentHandler struct {
	sessionRepo    session.Repository
	uowFactory     enrollment.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
}

// NewConcludeEnrollmentHandler creates a new ConcludeEnrollmentHandler.
func NewConcludeEnrollmentHandler(
	sessionRepo session.Repository,
	uowFactory enrollment.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
) *ConcludeEnrollmentHandler {
	return &ConcludeEnrollmentHandler{
		sessionRepo:    sessionRepo,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the conclude enrollment command.
func (h *ConcludeEnrollmentHandler) Handle(ctx context.Context, cmd ConcludeEnrollmentCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("conclude_enrollment: validation failed: %w", err)
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.TenantID, cmd.SessionID)
	if err != nil {
		return fmt.Errorf("conclude_enrollment: %w", err)
	}
	if sess.IsLocked {
		return shared.LockedError("enrollment", "ConcludeEnrollment", sess.ID)
	}

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return fmt.Errorf("conclude_enrollment: failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	enr, err := uow.Enrollments().GetByStudentAndSession(ctx, cmd.TenantID, cmd.StudentID, cmd.SessionID)
	if err != nil {
		return fmt.Errorf("conclude_enrollment: %w", err)
	}

	eventType := shared.EventStudentGraduated
	switch cmd.Conclusion {
	case ConclusionGraduate:
		if err := enr.Graduate(); err != nil {
			return err
		}
	case ConclusionDrop:
		eventType = shared.EventStudentDropped
		if err := enr.Drop(cmd.Remarks); err != nil {
			return err
		}
	}

	stu, err := uow.Students().GetByID(ctx, cmd.TenantID, cmd.StudentID)
	if err != nil {
		return fmt.Errorf("conclude_enrollment: %w", err)
	}
	stu.Deactivate()

	if err := uow.Enrollments().Update(ctx, enr); err != nil {
		return fmt.Errorf("conclude_enrollment: failed to update enrollment: %w", err)
	}
	if err := uow.Students().Update(ctx, stu); err != nil {
		return fmt.Errorf("conclude_enrollment: failed to update student: %w", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("conclude_enrollment: failed to commit: %w", err)
	}

	event := shared.NewEnrollmentChangedEvent(eventType, cmd.TenantID.String(), cmd.StudentID, enr.ID, cmd.SessionID)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return nil
}
