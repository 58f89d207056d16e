package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/grading"
	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE RESULT COMMAND
// Marks entry for one (student, subject, session) cell. Totals and the
// grade are always recomputed before the save; a stored result never
// carries a stale grade.
//
// Two schemes exist:
//   - legacy: the fixed six-line three-term scheme, entries keyed by
//     line label;
//   - category: lines derive from the school's category registry and
//     the class marks distribution, entries keyed by category ID.
// ══════════════════════════════════════════════════════════════════════════════

// MarkEntry is one obtained-marks value keyed by line label (legacy
// scheme) or category ID (category scheme).
type MarkEntry struct {
	Key      string
	Obtained int
}

// SaveResultCommand contains the data needed to save a subject result.
type SaveResultCommand struct {
	TenantID  shared.TenantID
	StudentID string
	SubjectID string
	SessionID string

	// Legacy selects the fixed three-term scheme.
	Legacy bool

	// Entries carry the obtained marks.
	Entries []MarkEntry

	// Optional extras.
	Conduct        string
	AttendanceDays int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SaveResultCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("save_result: valid tenant_id is required")
	}
	if c.StudentID == "" || c.SubjectID == "" || c.SessionID == "" {
		return errors.New("save_result: student_id, subject_id and session_id are required")
	}
	if len(c.Entries) == 0 {
		return errors.New("save_result: at least one mark entry is required")
	}
	for _, e := range c.Entries {
		if e.Key == "" {
			return errors.New("save_result: every entry needs a key")
		}
		if e.Obtained < 0 {
			return errors.New("save_result: obtained marks cannot be negative")
		}
	}
	return nil
}

// SaveResultResult contains the recomputed totals.
type SaveResultResult struct {
	ResultID      string
	TotalObtained int
	TotalFull     int
	Grade         grading.Grade
}

// SaveResultHandler handles the SaveResultCommand.
type SaveResultHandler struct {
	sessionRepo      session.Repository
	subjectRepo      assessment.SubjectRepository
	categoryRepo     assessment.CategoryRepository
	distributionRepo assessment.DistributionRepository
	resultRepo       grading.ResultRepository
	eventPublisher   shared.EventPublisher
}

// NewSaveResultHandler creates a new SaveResultHandler.
func NewSaveResultHandler(
	sessionRepo session.Repository,
	subjectRepo assessment.SubjectRepository,
	categoryRepo assessment.CategoryRepository,
	distributionRepo assessment.DistributionRepository,
	resultRepo grading.ResultRepository,
	eventPublisher shared.EventPublisher,
) *SaveResultHandler {
	return &SaveResultHandler{
		sessionRepo:      sessionRepo,
		subjectRepo:      subjectRepo,
		categoryRepo:     categoryRepo,
		distributionRepo: distributionRepo,
		resultRepo:       resultRepo,
		eventPublisher:   eventPublisher,
	}
}

// Handle executes the save result command.
func (h *SaveResultHandler) Handle(ctx context.Context, cmd SaveResultCommand) (*SaveResultResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("save_result: validation failed: %w", err)
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.TenantID, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("save_result: %w", err)
	}
	if sess.IsLocked {
		return nil, shared.LockedError("grading", "SaveResult", sess.ID)
	}

	// Reuse the existing record when one exists so marks entry is
	// incremental across categories.
	rec, err := h.resultRepo.GetResult(ctx, cmd.TenantID, cmd.StudentID, cmd.SubjectID, cmd.SessionID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("save_result: %w", err)
	}

	if cmd.Legacy {
		rec, err = h.applyLegacy(rec, cmd)
	} else {
		rec, err = h.applyCategories(ctx, rec, cmd)
	}
	if err != nil {
		return nil, err
	}

	if cmd.Conduct != "" {
		rec.SetConduct(cmd.Conduct)
	}
	if cmd.AttendanceDays > 0 {
		if err := rec.SetAttendance(cmd.AttendanceDays); err != nil {
			return nil, err
		}
	}

	rec.Recompute()
	if err := h.resultRepo.UpsertResult(ctx, rec); err != nil {
		return nil, fmt.Errorf("save_result: failed to save result: %w", err)
	}

	event := shared.NewResultSavedEvent(cmd.TenantID.String(), cmd.StudentID, rec.ID, rec.TotalObtained.Int(), string(rec.OverallGrade))
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &SaveResultResult{
		ResultID:      rec.ID,
		TotalObtained: rec.TotalObtained.Int(),
		TotalFull:     rec.TotalFull.Int(),
		Grade:         rec.OverallGrade,
	}, nil
}

// applyLegacy fills the fixed six-line scheme.
func (h *SaveResultHandler) applyLegacy(rec *grading.ResultRecord, cmd SaveResultCommand) (*grading.ResultRecord, error) {
	var err error
	if rec == nil {
		rec, err = grading.NewLegacyResult(uuid.NewString(), cmd.TenantID, cmd.StudentID, cmd.SubjectID, cmd.SessionID)
		if err != nil {
			return nil, fmt.Errorf("save_result: %w", err)
		}
	}

	for _, e := range cmd.Entries {
		if err := rec.SetLine(e.Key, shared.Marks(e.Obtained)); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// applyCategories builds or extends a category-scheme record. Full marks
// for each line come from the class marks distribution; an unconfigured
// cell fails the save with shared.ErrNotConfigured.
func (h *SaveResultHandler) applyCategories(ctx context.Context, rec *grading.ResultRecord, cmd SaveResultCommand) (*grading.ResultRecord, error) {
	subj, err := h.subjectRepo.GetByID(ctx, cmd.TenantID, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("save_result: %w", err)
	}

	lines := []grading.LineItem{}
	if rec != nil {
		lines = rec.Lines
	}

	for _, e := range cmd.Entries {
		cat, err := h.categoryRepo.GetByID(ctx, cmd.TenantID, e.Key)
		if err != nil {
			return nil, fmt.Errorf("save_result: %w", err)
		}

		full, err := h.distributionRepo.Resolve(ctx, cmd.TenantID, subj.ClassID, cat.ID, subj.Kind, subj.ID)
		if err != nil {
			return nil, fmt.Errorf("save_result: %w", err)
		}

		lines = setCategoryLine(lines, cat.Code.String(), shared.Marks(e.Obtained), full)
	}

	if rec == nil {
		rec, err = grading.NewResult(grading.NewResultParams{
			ID:        uuid.NewString(),
			TenantID:  cmd.TenantID,
			StudentID: cmd.StudentID,
			SubjectID: cmd.SubjectID,
			SessionID: cmd.SessionID,
			Lines:     lines,
		})
		if err != nil {
			return nil, fmt.Errorf("save_result: %w", err)
		}
		return rec, nil
	}

	rec.Lines = lines
	return rec, nil
}

// setCategoryLine replaces or appends the line for a category code.
func setCategoryLine(lines []grading.LineItem, label string, obtained, full shared.Marks) []grading.LineItem {
	for i := range lines {
		if lines[i].Label == label {
			lines[i].Obtained = obtained
			lines[i].Full = full
			return lines
		}
	}
	return append(lines, grading.LineItem{Label: label, Obtained: obtained, Full: full})
}

// ══════════════════════════════════════════════════════════════════════════════
// SAVE COCURRICULAR RESULT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SaveCocurricularResultCommand records term marks for a co-curricular subject.
type SaveCocurricularResultCommand struct {
	TenantID  shared.TenantID
	StudentID string
	SubjectID string
	SessionID string

	FirstTerm  int
	SecondTerm int
	FinalTerm  int

	// FullMarks is the per-term full marks; zero picks the default of 50.
	FullMarks int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SaveCocurricularResultCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("save_cocurricular: valid tenant_id is required")
	}
	if c.StudentID == "" || c.SubjectID == "" || c.SessionID == "" {
		return errors.New("save_cocurricular: student_id, subject_id and session_id are required")
	}
	if c.FirstTerm < 0 || c.SecondTerm < 0 || c.FinalTerm < 0 || c.FullMarks < 0 {
		return errors.New("save_cocurricular: marks cannot be negative")
	}
	return nil
}

// SaveCocurricularResultHandler handles the SaveCocurricularResultCommand.
type SaveCocurricularResultHandler struct {
	sessionRepo    session.Repository
	resultRepo     grading.ResultRepository
	eventPublisher shared.EventPublisher
}

// NewSaveCocurricularResultHandler creates a new handler.
func NewSaveCocurricularResultHandler(
	sessionRepo session.Repository,
	resultRepo grading.ResultRepository,
	eventPublisher shared.EventPublisher,
) *SaveCocurricularResultHandler {
	return &SaveCocurricularResultHandler{
		sessionRepo:    sessionRepo,
		resultRepo:     resultRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the save co-curricular result command.
func (h *SaveCocurricularResultHandler) Handle(ctx context.Context, cmd SaveCocurricularResultCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("save_cocurricular: validation failed: %w", err)
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.TenantID, cmd.SessionID)
	if err != nil {
		return fmt.Errorf("save_cocurricular: %w", err)
	}
	if sess.IsLocked {
		return shared.LockedError("grading", "SaveCocurricularResult", sess.ID)
	}

	rec, err := grading.NewCocurricularResult(uuid.NewString(), cmd.TenantID, cmd.StudentID, cmd.SubjectID, cmd.SessionID, shared.Marks(cmd.FullMarks))
	if err != nil {
		return fmt.Errorf("save_cocurricular: %w", err)
	}

	if err := rec.SetTermMarks(shared.Marks(cmd.FirstTerm), shared.Marks(cmd.SecondTerm), shared.Marks(cmd.FinalTerm)); err != nil {
		return err
	}

	if err := h.resultRepo.UpsertCocurricular(ctx, rec); err != nil {
		return fmt.Errorf("save_cocurricular: failed to save result: %w", err)
	}

	event := shared.NewResultSavedEvent(cmd.TenantID.String(), cmd.StudentID, rec.ID, rec.TotalMarks().Int(), string(rec.OverallGrade))
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAVE OPTIONAL RESULT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SaveOptionalResultCommand records marks for an elective subject.
type SaveOptionalResultCommand struct {
	TenantID  shared.TenantID
	StudentID string
	SubjectID string
	SessionID string

	Obtained int

	// FullMarks is the full marks; zero picks the default of 50.
	FullMarks int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SaveOptionalResultCommand) Validate() error {
	if !c.TenantID.IsValid() {
		return errors.New("save_optional: valid tenant_id is required")
	}
	if c.StudentID == "" || c.SubjectID == "" || c.SessionID == "" {
		return errors.New("save_optional: student_id, subject_id and session_id are required")
	}
	if c.Obtained < 0 || c.FullMarks < 0 {
		return errors.New("save_optional: marks cannot be negative")
	}
	return nil
}

// SaveOptionalResultHandler handles the SaveOptionalResultCommand.
type SaveOptionalResultHandler struct {
	sessionRepo    session.Repository
	resultRepo     grading.ResultRepository
	eventPublisher shared.EventPublisher
}

// NewSaveOptionalResultHandler creates a new handler.
func NewSaveOptionalResultHandler(
	sessionRepo session.Repository,
	resultRepo grading.ResultRepository,
	eventPublisher shared.EventPublisher,
) *SaveOptionalResultHandler {
	return &SaveOptionalResultHandler{
		sessionRepo:    sessionRepo,
		resultRepo:     resultRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the save optional result command.
func (h *SaveOptionalResultHandler) Handle(ctx context.Context, cmd SaveOptionalResultCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("save_optional: validation failed: %w", err)
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.TenantID, cmd.SessionID)
	if err != nil {
		return fmt.Errorf("save_optional: %w", err)
	}
	if sess.IsLocked {
		return shared.LockedError("grading", "SaveOptionalResult", sess.ID)
	}

	rec, err := grading.NewOptionalResult(uuid.NewString(), cmd.TenantID, cmd.StudentID, cmd.SubjectID, cmd.SessionID, shared.Marks(cmd.FullMarks))
	if err != nil {
		return fmt.Errorf("save_optional: %w", err)
	}

	if err := rec.SetMarks(shared.Marks(cmd.Obtained)); err != nil {
		return err
	}

	if err := h.resultRepo.UpsertOptional(ctx, rec); err != nil {
		return fmt.Errorf("save_optional: failed to save result: %w", err)
	}

	event := shared.NewResultSavedEvent(cmd.TenantID.String(), cmd.StudentID, rec.ID, rec.Obtained.Int(), string(rec.Grade))
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return nil
}
