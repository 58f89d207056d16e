package grading

import (
	"fmt"
	"strings"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// Default full marks for the legacy result scheme.
const (
	LegacySummativeFull shared.Marks = 40
	LegacyFormativeFull shared.Marks = 10

	// DefaultTermFull is the per-term full marks for co-curricular and
	// optional results when the school configures nothing else.
	DefaultTermFull shared.Marks = 50
)

// Legacy line labels, in marksheet order.
const (
	LineFirstSummative  = "first_summative"
	LineFirstFormative  = "first_formative"
	LineSecondSummative = "second_summative"
	LineSecondFormative = "second_formative"
	LineThirdSummative  = "third_summative"
	LineThirdFormative  = "third_formative"
)

// ══════════════════════════════════════════════════════════════════════════════
// LINE ITEMS
// ══════════════════════════════════════════════════════════════════════════════

// LineItem is one graded component of a subject result. Label is either
// a legacy line name or an assessment category code.
type LineItem struct {
	Label    string       `json:"label"`
	Obtained shared.Marks `json:"obtained"`
	Full     shared.Marks `json:"full"`
}

// Grade computes the line's own grade.
func (l LineItem) Grade() Grade {
	return GradeFor(l.Obtained, l.Full)
}

// TotalAndFull sums obtained and full marks over a set of lines.
func TotalAndFull(lines []LineItem) (total, full shared.Marks) {
	for _, l := range lines {
		total = total.Add(l.Obtained)
		full = full.Add(l.Full)
	}
	return total, full
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT RESULT
// ══════════════════════════════════════════════════════════════════════════════

// ResultRecord is a student's result in one subject for one session.
// Totals and the grade are derived fields: every save recomputes them
// from the lines, so a stored record never carries a stale grade.
type ResultRecord struct {
	// ID is the internal unique identifier (UUID string).
	ID string

	// TenantID is the owning school.
	TenantID shared.TenantID

	// StudentID, SubjectID, SessionID identify the result cell. One
	// record exists per (student, subject, session).
	StudentID string
	SubjectID string
	SessionID string

	// Lines are the graded components.
	Lines []LineItem

	// TotalObtained, TotalFull and OverallGrade are recomputed on save.
	TotalObtained shared.Marks
	TotalFull     shared.Marks
	OverallGrade  Grade

	// Conduct is the teacher's conduct remark.
	Conduct string

	// AttendanceDays is the number of days attended in the session.
	AttendanceDays int

	// CreatedAt is the record creation time.
	CreatedAt time.Time

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// NewResultParams holds parameters for creating a result record.
type NewResultParams struct {
	ID        string
	TenantID  shared.TenantID
	StudentID string
	SubjectID string
	SessionID string
	Lines     []LineItem
}

// NewResult creates a result record and computes its totals and grade.
func NewResult(params NewResultParams) (*ResultRecord, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("grading", "NewResult", shared.ErrInvalidID, "result id is required")
	}

	if !params.TenantID.IsValid() {
		return nil, shared.NewDomainError("grading", "NewResult", shared.ErrInvalidID, "invalid tenant id")
	}

	if params.StudentID == "" || params.SubjectID == "" || params.SessionID == "" {
		return nil, shared.NewDomainError("grading", "NewResult", shared.ErrEmptyValue, "student, subject and session ids are required")
	}

	for _, line := range params.Lines {
		if strings.TrimSpace(line.Label) == "" {
			return nil, shared.NewDomainError("grading", "NewResult", shared.ErrEmptyValue, "line label is required")
		}
		if !line.Obtained.IsValid() || !line.Full.IsValid() {
			return nil, shared.NewDomainError("grading", "NewResult", shared.ErrNegativeValue, "line marks cannot be negative")
		}
	}

	now := time.Now().UTC()

	r := &ResultRecord{
		ID:        params.ID,
		TenantID:  params.TenantID,
		StudentID: params.StudentID,
		SubjectID: params.SubjectID,
		SessionID: params.SessionID,
		Lines:     params.Lines,
		Conduct:   "Good",
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Recompute()
	return r, nil
}

// NewLegacyResult creates a result with the six standard lines of the
// three-term scheme: a summative (full 40) and a formative (full 10)
// component per term, all with zero obtained marks.
func NewLegacyResult(id string, tenantID shared.TenantID, studentID, subjectID, sessionID string) (*ResultRecord, error) {
	return NewResult(NewResultParams{
		ID:        id,
		TenantID:  tenantID,
		StudentID: studentID,
		SubjectID: subjectID,
		SessionID: sessionID,
		Lines: []LineItem{
			{Label: LineFirstSummative, Full: LegacySummativeFull},
			{Label: LineFirstFormative, Full: LegacyFormativeFull},
			{Label: LineSecondSummative, Full: LegacySummativeFull},
			{Label: LineSecondFormative, Full: LegacyFormativeFull},
			{Label: LineThirdSummative, Full: LegacySummativeFull},
			{Label: LineThirdFormative, Full: LegacyFormativeFull},
		},
	})
}

// SetLine records marks for a labelled line. An unknown label is an error:
// the line set is fixed by the school's configuration, not by marks entry.
func (r *ResultRecord) SetLine(label string, obtained shared.Marks) error {
	if !obtained.IsValid() {
		return shared.NewDomainError("grading", "SetLine", shared.ErrNegativeValue, "marks cannot be negative")
	}

	for i := range r.Lines {
		if r.Lines[i].Label == label {
			r.Lines[i].Obtained = obtained
			r.Recompute()
			return nil
		}
	}

	return shared.NewDomainError("grading", "SetLine", shared.ErrNotFound, fmt.Sprintf("no result line %q", label))
}

// Recompute recalculates totals and the overall grade from the lines.
// Called on every mutation and before every save.
func (r *ResultRecord) Recompute() {
	r.TotalObtained, r.TotalFull = TotalAndFull(r.Lines)
	r.OverallGrade = GradeFor(r.TotalObtained, r.TotalFull)
	r.UpdatedAt = time.Now().UTC()
}

// SetConduct updates the conduct remark.
func (r *ResultRecord) SetConduct(conduct string) {
	r.Conduct = strings.TrimSpace(conduct)
	r.UpdatedAt = time.Now().UTC()
}

// SetAttendance updates the attended days counter.
func (r *ResultRecord) SetAttendance(days int) error {
	if days < 0 {
		return shared.NewDomainError("grading", "SetAttendance", shared.ErrNegativeValue, "attendance days cannot be negative")
	}

	r.AttendanceDays = days
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a loggable representation.
func (r *ResultRecord) String() string {
	return fmt.Sprintf(
		"Result{Student: %s, Subject: %s, Total: %d/%d, Grade: %s}",
		r.StudentID, r.SubjectID, r.TotalObtained, r.TotalFull, r.OverallGrade,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// COCURRICULAR RESULT
// ══════════════════════════════════════════════════════════════════════════════

// CocurricularResult is a student's result in one co-curricular subject:
// three term marks graded against a common per-term full marks value.
type CocurricularResult struct {
	// ID is the internal unique identifier (UUID string).
	ID string

	// TenantID is the owning school.
	TenantID shared.TenantID

	// StudentID, SubjectID, SessionID identify the result cell.
	StudentID string
	SubjectID string
	SessionID string

	// FirstTerm, SecondTerm, FinalTerm are the per-term obtained marks.
	FirstTerm  shared.Marks
	SecondTerm shared.Marks
	FinalTerm  shared.Marks

	// FullMarks is the per-term full marks.
	FullMarks shared.Marks

	// Per-term and overall grades, recomputed on save.
	FirstTermGrade  Grade
	SecondTermGrade Grade
	FinalTermGrade  Grade
	OverallGrade    Grade

	// CreatedAt is the record creation time.
	CreatedAt time.Time

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// NewCocurricularResult creates a co-curricular result with zero marks.
// A zero fullMarks picks the default of 50 per term.
func NewCocurricularResult(id string, tenantID shared.TenantID, studentID, subjectID, sessionID string, fullMarks shared.Marks) (*CocurricularResult, error) {
	if id == "" {
		return nil, shared.NewDomainError("grading", "NewCocurricularResult", shared.ErrInvalidID, "result id is required")
	}

	if !tenantID.IsValid() {
		return nil, shared.NewDomainError("grading", "NewCocurricularResult", shared.ErrInvalidID, "invalid tenant id")
	}

	if studentID == "" || subjectID == "" || sessionID == "" {
		return nil, shared.NewDomainError("grading", "NewCocurricularResult", shared.ErrEmptyValue, "student, subject and session ids are required")
	}

	if !fullMarks.IsValid() {
		return nil, shared.NewDomainError("grading", "NewCocurricularResult", shared.ErrNegativeValue, "full marks cannot be negative")
	}

	if fullMarks == 0 {
		fullMarks = DefaultTermFull
	}

	now := time.Now().UTC()

	r := &CocurricularResult{
		ID:        id,
		TenantID:  tenantID,
		StudentID: studentID,
		SubjectID: subjectID,
		SessionID: sessionID,
		FullMarks: fullMarks,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Recompute()
	return r, nil
}

// TotalMarks sums the three term marks.
func (r *CocurricularResult) TotalMarks() shared.Marks {
	return r.FirstTerm + r.SecondTerm + r.FinalTerm
}

// SetTermMarks records the three term marks and recomputes grades.
func (r *CocurricularResult) SetTermMarks(first, second, final shared.Marks) error {
	if !first.IsValid() || !second.IsValid() || !final.IsValid() {
		return shared.NewDomainError("grading", "SetTermMarks", shared.ErrNegativeValue, "term marks cannot be negative")
	}

	r.FirstTerm = first
	r.SecondTerm = second
	r.FinalTerm = final
	r.Recompute()
	return nil
}

// Recompute recalculates the per-term grades against the per-term full
// marks and the overall grade against three terms' worth of full marks.
func (r *CocurricularResult) Recompute() {
	r.FirstTermGrade = GradeFor(r.FirstTerm, r.FullMarks)
	r.SecondTermGrade = GradeFor(r.SecondTerm, r.FullMarks)
	r.FinalTermGrade = GradeFor(r.FinalTerm, r.FullMarks)
	r.OverallGrade = GradeFor(r.TotalMarks(), r.FullMarks*3)
	r.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// OPTIONAL RESULT
// ══════════════════════════════════════════════════════════════════════════════

// OptionalResult is a student's result in one elective subject: a single
// marks pair with its derived grade.
type OptionalResult struct {
	// ID is the internal unique identifier (UUID string).
	ID string

	// TenantID is the owning school.
	TenantID shared.TenantID

	// StudentID, SubjectID, SessionID identify the result cell.
	StudentID string
	SubjectID string
	SessionID string

	// Obtained and Full are the marks pair.
	Obtained shared.Marks
	Full     shared.Marks

	// Grade is recomputed on save.
	Grade Grade

	// CreatedAt is the record creation time.
	CreatedAt time.Time

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// NewOptionalResult creates an optional-subject result. A zero full
// marks picks the default of 50.
func NewOptionalResult(id string, tenantID shared.TenantID, studentID, subjectID, sessionID string, full shared.Marks) (*OptionalResult, error) {
	if id == "" {
		return nil, shared.NewDomainError("grading", "NewOptionalResult", shared.ErrInvalidID, "result id is required")
	}

	if !tenantID.IsValid() {
		return nil, shared.NewDomainError("grading", "NewOptionalResult", shared.ErrInvalidID, "invalid tenant id")
	}

	if studentID == "" || subjectID == "" || sessionID == "" {
		return nil, shared.NewDomainError("grading", "NewOptionalResult", shared.ErrEmptyValue, "student, subject and session ids are required")
	}

	if !full.IsValid() {
		return nil, shared.NewDomainError("grading", "NewOptionalResult", shared.ErrNegativeValue, "full marks cannot be negative")
	}

	if full == 0 {
		full = DefaultTermFull
	}

	now := time.Now().UTC()

	r := &OptionalResult{
		ID:        id,
		TenantID:  tenantID,
		StudentID: studentID,
		SubjectID: subjectID,
		SessionID: sessionID,
		Full:      full,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Recompute()
	return r, nil
}

// SetMarks records the obtained marks and recomputes the grade.
func (r *OptionalResult) SetMarks(obtained shared.Marks) error {
	if !obtained.IsValid() {
		return shared.NewDomainError("grading", "SetMarks", shared.ErrNegativeValue, "marks cannot be negative")
	}

	r.Obtained = obtained
	r.Recompute()
	return nil
}

// Recompute recalculates the grade from the marks pair.
func (r *OptionalResult) Recompute() {
	r.Grade = GradeFor(r.Obtained, r.Full)
	r.UpdatedAt = time.Now().UTC()
}
