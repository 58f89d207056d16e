package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMOTE STUDENT COMMAND
// Promotion never rewrites history: the source enrollment is closed with
// a pointer to its successor, a fresh active enrollment is created in the
// target session, and the student's current pointers move - all in one
// transaction.
// ══════════════════════════════════════════════════════════════════════════════

// PromoteStudentCommand contains the data needed to promote a student.
type PromoteStudentCommand struct {
	TenantID  shared.TenantID
	StudentID string

	// FromSessionID is the session whose enrollment is being closed.
	FromSessionID string

	// Target placement for the new enrollment.
	ToSessionID string
	ToClassID   string
	ToSectionID string

	// RollNo is optional; when empty the next sequential number in the
	// target section is assigned.
	RollNo string

	// PromotionDate defaults to today.
	PromotionDate time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c PromoteStudentCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("promote_student: valid tenant_id is required")
	}
	if c.StudentID == "" {
		return errors.New("promote_student: student_id is required")
	}
	if c.FromSessionID == "" || c.ToSessionID == "" {
		return errors.New("promote_student: from_session_id and to_session_id are required")
	}
	if c.FromSessionID == c.ToSessionID {
		return errors.New("promote_student: target session must differ from the source session")
	}
	if c.ToClassID == "" || c.ToSectionID == "" {
		return errors.New("promote_student: to_class_id and to_section_id are required")
	}
	return nil
}

// PromoteStudentResult contains the result of promotion.
type PromoteStudentResult struct {
	// OldEnrollmentID is the closed enrollment.
	OldEnrollmentID string

	// NewEnrollmentID is the created successor enrollment.
	NewEnrollmentID string

	// RollNo is the roll number assigned in the target section.
	RollNo string
}

// PromoteStudentHandler handles the PromoteStudentCommand.
type PromoteStudentHandler struct {
	sessionRepo    session.Repository
	classRepo      enrollment.ClassRepository
	uowFactory     enrollment.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
}

// NewPromoteStudentHandler creates a new PromoteStudentHandler.
func NewPromoteStudentHandler(
	sessionRepo session.Repository,
	classRepo enrollment.ClassRepository,
	uowFactory enrollment.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
) *PromoteStudentHandler {
	return &PromoteStudentHandler{
		sessionRepo:    sessionRepo,
		classRepo:      classRepo,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the promote student command.
func (h *PromoteStudentHandler) Handle(ctx context.Context, cmd PromoteStudentCommand) (*PromoteStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("promote_student: validation failed: %w", err)
	}

	// Both sessions must be editable: the source record changes status,
	// the target session gains a record.
	if err := h.checkSessions(ctx, cmd.TenantID, cmd.FromSessionID, cmd.ToSessionID); err != nil {
		return nil, err
	}

	section, err := h.classRepo.GetSection(ctx, cmd.TenantID, cmd.ToSectionID)
	if err != nil {
		return nil, fmt.Errorf("promote_student: %w", err)
	}
	if !section.BelongsTo(cmd.ToClassID) {
		return nil, shared.NewDomainError("enrollment", "PromoteStudent", shared.ErrValidation, "section does not belong to the target class")
	}

	promotionDate := cmd.PromotionDate
	if promotionDate.IsZero() {
		promotionDate = shared.Today()
	}

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("promote_student: failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	old, err := uow.Enrollments().GetByStudentAndSession(ctx, cmd.TenantID, cmd.StudentID, cmd.FromSessionID)
	if err != nil {
		return nil, fmt.Errorf("promote_student: %w", err)
	}

	rollNo := cmd.RollNo
	if rollNo == "" {
		count, err := uow.Enrollments().CountActiveBySection(ctx, cmd.TenantID, cmd.ToSessionID, cmd.ToSectionID)
		if err != nil {
			return nil, fmt.Errorf("promote_student: failed to count section: %w", err)
		}
		rollNo = fmt.Sprintf("%d", count+1)
	}

	successor, err := enrollment.NewEnrollment(enrollment.NewEnrollmentParams{
		ID:        uuid.NewString(),
		TenantID:  cmd.TenantID,
		StudentID: cmd.StudentID,
		SessionID: cmd.ToSessionID,
		ClassID:   cmd.ToClassID,
		SectionID: cmd.ToSectionID,
		RollNo:    shared.RollNo(rollNo),
	})
	if err != nil {
		return nil, fmt.Errorf("promote_student: %w", err)
	}

	if err := old.Promote(successor.ID, promotionDate); err != nil {
		return nil, err
	}

	stu, err := uow.Students().GetByID(ctx, cmd.TenantID, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("promote_student: %w", err)
	}
	stu.SyncCurrent(cmd.ToSessionID, cmd.ToClassID, cmd.ToSectionID)

	if err := uow.Enrollments().Create(ctx, successor); err != nil {
		return nil, fmt.Errorf("promote_student: failed to save successor: %w", err)
	}
	if err := uow.Enrollments().Update(ctx, old); err != nil {
		return nil, fmt.Errorf("promote_student: failed to update enrollment: %w", err)
	}
	if err := uow.Students().Update(ctx, stu); err != nil {
		return nil, fmt.Errorf("promote_student: failed to update student: %w", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("promote_student: failed to commit: %w", err)
	}

	event := shared.NewEnrollmentChangedEvent(shared.EventStudentPromoted, cmd.TenantID.String(), cmd.StudentID, old.ID, cmd.FromSessionID).
		WithSuccessor(successor.ID, cmd.ToSessionID)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &PromoteStudentResult{
		OldEnrollmentID: old.ID,
		NewEnrollmentID: successor.ID,
		RollNo:          rollNo,
	}, nil
}

// checkSessions verifies both sessions exist and neither is locked.
func (h *PromoteStudentHandler) checkSessions(ctx context.Context, tenantID shared.TenantID, fromID, toID string) error {
	from, err := h.sessionRepo.GetByID(ctx, tenantID, fromID)
	if err != nil {
		return fmt.Errorf("promote_student: %w", err)
	}
	if from.IsLocked {
		return shared.LockedError("enrollment", "PromoteStudent", from.ID)
	}

	to, err := h.sessionRepo.GetByID(ctx, tenantID, toID)
	if err != nil {
		return fmt.Errorf("promote_student: %w", err)
	}
	if to.IsLocked {
		return shared.LockedError("enrollment", "PromoteStudent", to.ID)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RETAIN STUDENT COMMAND
// Retention keeps the student in the same class and section for the new
// session. No promotion date is recorded.
// ══════════════════════════════════════════════════════════════════════════════

// RetainStudentCommand contains the data needed to retain a student.
type RetainStudentCommand struct {
	TenantID  shared.TenantID
	StudentID string

	// FromSessionID is the session whose enrollment is being closed.
	FromSessionID string

	// ToSessionID is the session of the repeated year.
	ToSessionID string

	// RollNo is optional; when empty the student keeps the current roll
	// number.
	RollNo string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RetainStudentCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("retain_student: valid tenant_id is required")
	}
	if c.StudentID == "" {
		return errors.New("retain_student: student_id is required")
	}
	if c.FromSessionID == "" || c.ToSessionID == "" {
		return errors.New("retain_student: from_session_id and to_session_id are required")
	}
	if c.FromSessionID == c.ToSessionID {
		return errors.New("retain_student: target session must differ from the source session")
	}
	return nil
}

// RetainStudentResult contains the result of retention.
type RetainStudentResult struct {
	// OldEnrollmentID is the closed enrollment.
	OldEnrollmentID string

	// NewEnrollmentID is the created successor enrollment.
	NewEnrollmentID string

	// RollNo is the roll number assigned in the repeated year.
	RollNo string
}

// RetainStudentHandler handles the RetainStudentCommand.
type RetainStudentHandler struct {
	sessionRepo    session.Repository
	uowFactory     enrollment.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
}

// NewRetainStudentHandler creates a new RetainStudentHandler.
func NewRetainStudentHandler(
	sessionRepo session.Repository,
	uowFactory enrollment.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
) *RetainStudentHandler {
	return &RetainStudentHandler{
		sessionRepo:    sessionRepo,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the retain student command.
func (h *RetainStudentHandler) Handle(ctx context.Context, cmd RetainStudentCommand) (*RetainStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("retain_student: validation failed: %w", err)
	}

	for _, sessionID := range []string{cmd.FromSessionID, cmd.ToSessionID} {
		s, err := h.sessionRepo.GetByID(ctx, cmd.TenantID, sessionID)
		if err != nil {
			return nil, fmt.Errorf("retain_student: %w", err)
		}
		if s.IsLocked {
			return nil, shared.LockedError("enrollment", "RetainStudent", s.ID)
		}
	}

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("retain_student: failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	old, err := uow.Enrollments().GetByStudentAndSession(ctx, cmd.TenantID, cmd.StudentID, cmd.FromSessionID)
	if err != nil {
		return nil, fmt.Errorf("retain_student: %w", err)
	}

	// A retained student keeps the old roll number unless the caller
	// supplies a new one.
	rollNo := cmd.RollNo
	if rollNo == "" {
		rollNo = old.RollNo.String()
	}

	// Same class and section as the closed enrollment.
	successor, err := enrollment.NewEnrollment(enrollment.NewEnrollmentParams{
		ID:        uuid.NewString(),
		TenantID:  cmd.TenantID,
		StudentID: cmd.StudentID,
		SessionID: cmd.ToSessionID,
		ClassID:   old.ClassID,
		SectionID: old.SectionID,
		RollNo:    shared.RollNo(rollNo),
	})
	if err != nil {
		return nil, fmt.Errorf("retain_student: %w", err)
	}

	if err := old.Retain(successor.ID); err != nil {
		return nil, err
	}

	stu, err := uow.Students().GetByID(ctx, cmd.TenantID, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("retain_student: %w", err)
	}
	stu.SyncCurrent(cmd.ToSessionID, old.ClassID, old.SectionID)

	if err := uow.Enrollments().Create(ctx, successor); err != nil {
		return nil, fmt.Errorf("retain_student: failed to save successor: %w", err)
	}
	if err := uow.Enrollments().Update(ctx, old); err != nil {
		return nil, fmt.Errorf("retain_student: failed to update enrollment: %w", err)
	}
	if err := uow.Students().Update(ctx, stu); err != nil {
		return nil, fmt.Errorf("retain_student: failed to update student: %w", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("retain_student: failed to commit: %w", err)
	}

	event := shared.NewEnrollmentChangedEvent(shared.EventStudentRetained, cmd.TenantID.String(), cmd.StudentID, old.ID, cmd.FromSessionID).
		WithSuccessor(successor.ID, cmd.ToSessionID)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RetainStudentResult{
		OldEnrollmentID: old.ID,
		NewEnrollmentID: successor.ID,
		RollNo:          rollNo,
	}, nil
}
