package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIT STUDENT COMMAND
// Creates the student and the first active enrollment in one transaction.
// ══════════════════════════════════════════════════════════════════════════════

// Admission number generation retries on collisions before giving up.
const admissionNoAttempts = 5

// AdmitStudentCommand contains the data needed to admit a student.
type AdmitStudentCommand struct {
	// TenantID is the admitting school.
	TenantID shared.TenantID

	// AdmissionPrefix is the school's admission number prefix ("GHS").
	AdmissionPrefix string

	// Student details.
	FirstName    string
	LastName     string
	DateOfBirth  time.Time
	Gender       enrollment.Gender
	GuardianName string
	Phone        string

	// Placement: session, class and section of the first enrollment.
	SessionID string
	ClassID   string
	SectionID string

	// RollNo is optional; when empty the next sequential number in the
	// section is assigned.
	RollNo string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AdmitStudentCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("admit_student: valid tenant_id is required")
	}
	if c.AdmissionPrefix == "" {
		return errors.New("admit_student: admission_prefix is required")
	}
	if c.FirstName == "" {
		return errors.New("admit_student: first_name is required")
	}
	if c.DateOfBirth.IsZero() {
		return errors.New("admit_student: date_of_birth is required")
	}
	if c.SessionID == "" || c.ClassID == "" || c.SectionID == "" {
		return errors.New("admit_student: session_id, class_id and section_id are required")
	}
	return nil
}

// AdmitStudentResult contains the result of admission.
type AdmitStudentResult struct {
	// StudentID is the ID of the created student.
	StudentID string

	// AdmissionNo is the generated admission number.
	AdmissionNo string

	// EnrollmentID is the ID of the first enrollment.
	EnrollmentID string

	// RollNo is the assigned roll number.
	RollNo string
}

// AdmitStudentHandler handles the AdmitStudentCommand.
type AdmitStudentHandler struct {
	sessionRepo    session.Repository
	classRepo      enrollment.ClassRepository
	uowFactory     enrollment.UnitOfWorkFactory
	hasher         enrollment.PasswordHasher
	eventPublisher shared.EventPublisher
}

// NewAdmitStudentHandler creates a new AdmitStudentHandler.
func NewAdmitStudentHandler(
	sessionRepo session.Repository,
	classRepo enrollment.ClassRepository,
	uowFactory enrollment.UnitOfWorkFactory,
	hasher enrollment.PasswordHasher,
	eventPublisher shared.EventPublisher,
) *AdmitStudentHandler {
	return &AdmitStudentHandler{
		sessionRepo:    sessionRepo,
		classRepo:      classRepo,
		uowFactory:     uowFactory,
		hasher:         hasher,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the admit student command.
func (h *AdmitStudentHandler) Handle(ctx context.Context, cmd AdmitStudentCommand) (*AdmitStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("admit_student: validation failed: %w", err)
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.TenantID, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("admit_student: %w", err)
	}

	if sess.IsLocked {
		return nil, shared.LockedError("enrollment", "AdmitStudent", sess.ID)
	}

	// The section must belong to the chosen class.
	section, err := h.classRepo.GetSection(ctx, cmd.TenantID, cmd.SectionID)
	if err != nil {
		return nil, fmt.Errorf("admit_student: %w", err)
	}
	if !section.BelongsTo(cmd.ClassID) {
		return nil, shared.NewDomainError("enrollment", "AdmitStudent", shared.ErrValidation, "section does not belong to the chosen class")
	}

	uow, err := h.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("admit_student: failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	admissionNo, err := h.uniqueAdmissionNo(ctx, uow.Students(), cmd.TenantID, cmd.AdmissionPrefix, sess.Year())
	if err != nil {
		return nil, err
	}

	stu, err := enrollment.NewStudent(enrollment.NewStudentParams{
		ID:           uuid.NewString(),
		TenantID:     cmd.TenantID,
		AdmissionNo:  admissionNo,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		DateOfBirth:  cmd.DateOfBirth,
		Gender:       cmd.Gender,
		GuardianName: cmd.GuardianName,
		Phone:        cmd.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("admit_student: %w", err)
	}

	if err := stu.SetDefaultPassword(h.hasher); err != nil {
		return nil, fmt.Errorf("admit_student: failed to set default password: %w", err)
	}

	rollNo := cmd.RollNo
	if rollNo == "" {
		count, err := uow.Enrollments().CountActiveBySection(ctx, cmd.TenantID, cmd.SessionID, cmd.SectionID)
		if err != nil {
			return nil, fmt.Errorf("admit_student: failed to count section: %w", err)
		}
		rollNo = strconv.Itoa(count + 1)
	}

	enr, err := enrollment.NewEnrollment(enrollment.NewEnrollmentParams{
		ID:        uuid.NewString(),
		TenantID:  cmd.TenantID,
		StudentID: stu.ID,
		SessionID: cmd.SessionID,
		ClassID:   cmd.ClassID,
		SectionID: cmd.SectionID,
		RollNo:    shared.RollNo(rollNo),
	})
	if err != nil {
		return nil, fmt.Errorf("admit_student: %w", err)
	}

	stu.SyncCurrent(cmd.SessionID, cmd.ClassID, cmd.SectionID)

	if err := uow.Students().Create(ctx, stu); err != nil {
		return nil, fmt.Errorf("admit_student: failed to save student: %w", err)
	}
	if err := uow.Enrollments().Create(ctx, enr); err != nil {
		return nil, fmt.Errorf("admit_student: failed to save enrollment: %w", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("admit_student: failed to commit: %w", err)
	}

	event := shared.NewEnrollmentChangedEvent(shared.EventStudentAdmitted, cmd.TenantID.String(), stu.ID, enr.ID, cmd.SessionID)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &AdmitStudentResult{
		StudentID:    stu.ID,
		AdmissionNo:  admissionNo,
		EnrollmentID: enr.ID,
		RollNo:       rollNo,
	}, nil
}

// uniqueAdmissionNo generates admission numbers until one is free.
func (h *AdmitStudentHandler) uniqueAdmissionNo(
	ctx context.Context,
	students enrollment.StudentRepository,
	tenantID shared.TenantID,
	prefix string,
	year int,
) (string, error) {
	for i := 0; i < admissionNoAttempts; i++ {
		no, err := enrollment.GenerateAdmissionNo(prefix, year)
		if err != nil {
			return "", fmt.Errorf("admit_student: %w", err)
		}

		taken, err := students.ExistsByAdmissionNo(ctx, tenantID, no)
		if err != nil {
			return "", fmt.Errorf("admit_student: failed to check admission number: %w", err)
		}
		if !taken {
			return no, nil
		}
	}

	return "", shared.NewDomainError("enrollment", "AdmitStudent", shared.ErrIllegalState, "could not generate a unique admission number")
}
