package query

import (
	"context"
	"sort"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/grading"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MARKSHEET QUERY
// Собирает полный табель ученика за сессию: результаты по основным
// предметам (построчно), кружковые и факультативные результаты, сводные
// итоги. Это главный отчётный запрос системы.
// ══════════════════════════════════════════════════════════════════════════════

// GetMarksheetQuery contains parameters for building a marksheet.
type GetMarksheetQuery struct {
	// TenantID - школа.
	TenantID shared.TenantID

	// StudentID - ученик.
	StudentID string

	// SessionID - сессия; пустая означает текущую сессию ученика.
	SessionID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetMarksheetQuery) Validate() error {
	if !q.TenantID.IsValid() {
		return shared.NewDomainError("query", "GetMarksheet", shared.ErrInvalidID, "valid tenant_id is required")
	}
	if q.StudentID == "" {
		return shared.NewDomainError("query", "GetMarksheet", shared.ErrEmptyValue, "student_id is required")
	}
	return nil
}

// MarkLineDTO is one graded line of a subject result.
type MarkLineDTO struct {
	// Label is the line label: a category code or a legacy term label.
	Label string `json:"label"`

	// Obtained and Full are the marks pair.
	Obtained int `json:"obtained"`
	Full     int `json:"full"`

	// Grade is the per-line grade.
	Grade string `json:"grade"`
}

// SubjectResultDTO is one core subject's row of the marksheet.
type SubjectResultDTO struct {
	// SubjectID and SubjectName identify the subject.
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`

	// Lines ordered by the category registry; legacy lines keep their
	// stored term order.
	Lines []MarkLineDTO `json:"lines"`

	// TotalObtained, TotalFull and Grade are the subject totals.
	TotalObtained int    `json:"total_obtained"`
	TotalFull     int    `json:"total_full"`
	Grade         string `json:"grade"`
}

// CocurricularResultDTO is one co-curricular subject's row.
type CocurricularResultDTO struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`

	// Per-term marks against the per-term full marks.
	FirstTerm  int `json:"first_term"`
	SecondTerm int `json:"second_term"`
	FinalTerm  int `json:"final_term"`
	TermFull   int `json:"term_full"`

	// Per-term and overall grades.
	FirstTermGrade  string `json:"first_term_grade"`
	SecondTermGrade string `json:"second_term_grade"`
	FinalTermGrade  string `json:"final_term_grade"`
	OverallGrade    string `json:"overall_grade"`
}

// OptionalResultDTO is one elective subject's row.
type OptionalResultDTO struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`

	Obtained int    `json:"obtained"`
	Full     int    `json:"full"`
	Grade    string `json:"grade"`
}

// MarksheetDTO is the assembled report card.
type MarksheetDTO struct {
	// ─────────────────────────────────────────────────────────────────────────
	// Ученик
	// ─────────────────────────────────────────────────────────────────────────

	// StudentID - внутренний ID ученика.
	StudentID string `json:"student_id"`

	// AdmissionNo - номер зачисления.
	AdmissionNo string `json:"admission_no"`

	// StudentName - полное имя.
	StudentName string `json:"student_name"`

	// ─────────────────────────────────────────────────────────────────────────
	// Контекст сессии
	// ─────────────────────────────────────────────────────────────────────────

	// SessionID - сессия табеля.
	SessionID string `json:"session_id"`

	// ClassID, SectionID, RollNo - место ученика в сессии.
	ClassID   string `json:"class_id"`
	SectionID string `json:"section_id"`
	RollNo    string `json:"roll_no"`

	// ─────────────────────────────────────────────────────────────────────────
	// Результаты
	// ─────────────────────────────────────────────────────────────────────────

	// Subjects - основные предметы.
	Subjects []SubjectResultDTO `json:"subjects"`

	// Cocurricular - кружковые предметы.
	Cocurricular []CocurricularResultDTO `json:"cocurricular,omitempty"`

	// Optional - факультативные предметы.
	Optional []OptionalResultDTO `json:"optional,omitempty"`

	// ─────────────────────────────────────────────────────────────────────────
	// Сводка
	// ─────────────────────────────────────────────────────────────────────────

	// GrandObtained и GrandFull - суммы по основным предметам.
	GrandObtained int `json:"grand_obtained"`
	GrandFull     int `json:"grand_full"`

	// OverallGrade - оценка по суммарным баллам основных предметов.
	OverallGrade string `json:"overall_grade"`

	// Conduct - отметка о поведении (из первой записи, где она есть).
	Conduct string `json:"conduct,omitempty"`

	// AttendanceDays - посещаемость за сессию.
	AttendanceDays int `json:"attendance_days,omitempty"`
}

// GetMarksheetResult contains the assembled marksheet.
type GetMarksheetResult struct {
	// Marksheet - табель.
	Marksheet MarksheetDTO `json:"marksheet"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetMarksheetHandler handles the GetMarksheetQuery.
type GetMarksheetHandler struct {
	studentRepo    enrollment.StudentRepository
	enrollmentRepo enrollment.Repository
	subjectRepo    assessment.SubjectRepository
	categoryRepo   assessment.CategoryRepository
	resultRepo     grading.ResultRepository
}

// NewGetMarksheetHandler создаёт новый обработчик.
func NewGetMarksheetHandler(
	studentRepo enrollment.StudentRepository,
	enrollmentRepo enrollment.Repository,
	subjectRepo assessment.SubjectRepository,
	categoryRepo assessment.CategoryRepository,
	resultRepo grading.ResultRepository,
) *GetMarksheetHandler {
	return &GetMarksheetHandler{
		studentRepo:    studentRepo,
		enrollmentRepo: enrollmentRepo,
		subjectRepo:    subjectRepo,
		categoryRepo:   categoryRepo,
		resultRepo:     resultRepo,
	}
}

// Handle выполняет запрос на сборку табеля.
func (h *GetMarksheetHandler) Handle(ctx context.Context, query GetMarksheetQuery) (*GetMarksheetResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stu, err := h.studentRepo.GetByID(ctx, query.TenantID, query.StudentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetMarksheet", shared.ErrNotFound, "student not found", err)
	}

	sessionID := query.SessionID
	if sessionID == "" {
		sessionID = stu.CurrentSessionID
	}
	if sessionID == "" {
		return nil, shared.NewDomainError("query", "GetMarksheet", shared.ErrEmptyValue, "student has no current session")
	}

	enr, err := h.enrollmentRepo.GetByStudentAndSession(ctx, query.TenantID, stu.ID, sessionID)
	if err != nil {
		return nil, shared.WrapError("query", "GetMarksheet", shared.ErrNotFound, "enrollment not found", err)
	}

	sheet := MarksheetDTO{
		StudentID:   stu.ID,
		AdmissionNo: stu.AdmissionNo,
		StudentName: stu.FullName(),
		SessionID:   sessionID,
		ClassID:     enr.ClassID,
		SectionID:   enr.SectionID,
		RollNo:      enr.RollNo.String(),
	}

	lineOrder, err := h.lineOrder(ctx, query.TenantID)
	if err != nil {
		return nil, err
	}

	records, err := h.resultRepo.ListResultsByStudent(ctx, query.TenantID, stu.ID, sessionID)
	if err != nil {
		return nil, shared.WrapError("query", "GetMarksheet", shared.ErrNotFound, "failed to list results", err)
	}

	for _, rec := range records {
		row := SubjectResultDTO{
			SubjectID:     rec.SubjectID,
			SubjectName:   h.subjectName(ctx, query.TenantID, rec.SubjectID),
			Lines:         toLineDTOs(rec.Lines, lineOrder),
			TotalObtained: rec.TotalObtained.Int(),
			TotalFull:     rec.TotalFull.Int(),
			Grade:         string(rec.OverallGrade),
		}
		sheet.Subjects = append(sheet.Subjects, row)
		sheet.GrandObtained += row.TotalObtained
		sheet.GrandFull += row.TotalFull

		if sheet.Conduct == "" && rec.Conduct != "" {
			sheet.Conduct = rec.Conduct
		}
		if sheet.AttendanceDays == 0 && rec.AttendanceDays > 0 {
			sheet.AttendanceDays = rec.AttendanceDays
		}
	}

	sheet.OverallGrade = string(grading.GradeFor(shared.Marks(sheet.GrandObtained), shared.Marks(sheet.GrandFull)))

	cocurricular, err := h.resultRepo.ListCocurricularByStudent(ctx, query.TenantID, stu.ID, sessionID)
	if err != nil {
		return nil, shared.WrapError("query", "GetMarksheet", shared.ErrNotFound, "failed to list cocurricular results", err)
	}
	for _, rec := range cocurricular {
		sheet.Cocurricular = append(sheet.Cocurricular, CocurricularResultDTO{
			SubjectID:       rec.SubjectID,
			SubjectName:     h.subjectName(ctx, query.TenantID, rec.SubjectID),
			FirstTerm:       rec.FirstTerm.Int(),
			SecondTerm:      rec.SecondTerm.Int(),
			FinalTerm:       rec.FinalTerm.Int(),
			TermFull:        rec.FullMarks.Int(),
			FirstTermGrade:  string(rec.FirstTermGrade),
			SecondTermGrade: string(rec.SecondTermGrade),
			FinalTermGrade:  string(rec.FinalTermGrade),
			OverallGrade:    string(rec.OverallGrade),
		})
	}

	optional, err := h.resultRepo.ListOptionalByStudent(ctx, query.TenantID, stu.ID, sessionID)
	if err != nil {
		return nil, shared.WrapError("query", "GetMarksheet", shared.ErrNotFound, "failed to list optional results", err)
	}
	for _, rec := range optional {
		sheet.Optional = append(sheet.Optional, OptionalResultDTO{
			SubjectID:   rec.SubjectID,
			SubjectName: h.subjectName(ctx, query.TenantID, rec.SubjectID),
			Obtained:    rec.Obtained.Int(),
			Full:        rec.Full.Int(),
			Grade:       string(rec.Grade),
		})
	}

	return &GetMarksheetResult{
		Marksheet:   sheet,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// lineOrder maps category codes to their registry position.
func (h *GetMarksheetHandler) lineOrder(ctx context.Context, tenantID shared.TenantID) (map[string]int, error) {
	categories, err := h.categoryRepo.List(ctx, tenantID)
	if err != nil {
		return nil, shared.WrapError("query", "GetMarksheet", shared.ErrNotFound, "failed to list categories", err)
	}
	order := make(map[string]int, len(categories))
	for i, c := range categories {
		order[c.Code.String()] = i
	}
	return order, nil
}

// subjectName resolves a subject's display name; the raw ID stands in
// when the subject was deleted after results were saved.
func (h *GetMarksheetHandler) subjectName(ctx context.Context, tenantID shared.TenantID, subjectID string) string {
	subj, err := h.subjectRepo.GetByID(ctx, tenantID, subjectID)
	if err != nil {
		return subjectID
	}
	return subj.Name
}

// toLineDTOs orders result lines by the category registry. Labels absent
// from the registry (the legacy term labels) keep their stored order and
// sort after registry lines.
func toLineDTOs(lines []grading.LineItem, order map[string]int) []MarkLineDTO {
	out := make([]MarkLineDTO, len(lines))
	for i, l := range lines {
		out[i] = MarkLineDTO{
			Label:    l.Label,
			Obtained: l.Obtained.Int(),
			Full:     l.Full.Int(),
			Grade:    string(l.Grade()),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		oi, iok := order[out[i].Label]
		oj, jok := order[out[j].Label]
		if iok && jok {
			return oi < oj
		}
		return iok && !jok
	})
	return out
}
