package query

import (
	"context"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ENROLLMENT HISTORY QUERY
// Академическая история ученика: все его зачисления от поступления до
// текущего (или терминального) статуса. Записи никогда не переписываются,
// поэтому история - это просто цепочка enrollment-ов по ссылкам на
// преемников.
// ══════════════════════════════════════════════════════════════════════════════

// GetEnrollmentHistoryQuery contains parameters for the history read.
type GetEnrollmentHistoryQuery struct {
	// TenantID - школа.
	TenantID shared.TenantID

	// StudentID - ученик.
	StudentID string
}

// Validate проверяет корректность параметров запроса.
func (q GetEnrollmentHistoryQuery) Validate() error {
	if !q.TenantID.IsValid() {
		return shared.NewDomainError("query", "GetEnrollmentHistory", shared.ErrInvalidID, "valid tenant_id is required")
	}
	if q.StudentID == "" {
		return shared.NewDomainError("query", "GetEnrollmentHistory", shared.ErrEmptyValue, "student_id is required")
	}
	return nil
}

// EnrollmentDTO is one step of the student's academic history.
type EnrollmentDTO struct {
	// EnrollmentID - ID записи о зачислении.
	EnrollmentID string `json:"enrollment_id"`

	// SessionID и SessionName - сессия зачисления.
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name,omitempty"`

	// ClassID, SectionID, RollNo - место ученика в сессии.
	ClassID   string `json:"class_id"`
	SectionID string `json:"section_id"`
	RollNo    string `json:"roll_no"`

	// Status - статус записи: active, promoted, retained, transferred,
	// graduated, dropped.
	Status string `json:"status"`

	// PromotedToID - ID записи-преемника (для promoted/retained).
	PromotedToID string `json:"promoted_to_id,omitempty"`

	// PromotionDate - дата перевода (только для promoted).
	PromotionDate *time.Time `json:"promotion_date,omitempty"`

	// Remarks - примечания (причина перевода/отчисления).
	Remarks string `json:"remarks,omitempty"`
}

// GetEnrollmentHistoryResult contains the ordered history.
type GetEnrollmentHistoryResult struct {
	// StudentID - ученик.
	StudentID string `json:"student_id"`

	// History - записи в хронологическом порядке, от первого зачисления.
	History []EnrollmentDTO `json:"history"`

	// Current - активная запись, если она есть.
	Current *EnrollmentDTO `json:"current,omitempty"`
}

// GetEnrollmentHistoryHandler handles the GetEnrollmentHistoryQuery.
type GetEnrollmentHistoryHandler struct {
	enrollmentRepo enrollment.Repository
	sessionRepo    session.Repository
}

// NewGetEnrollmentHistoryHandler создаёт новый обработчик.
func NewGetEnrollmentHistoryHandler(enrollmentRepo enrollment.Repository, sessionRepo session.Repository) *GetEnrollmentHistoryHandler {
	return &GetEnrollmentHistoryHandler{
		enrollmentRepo: enrollmentRepo,
		sessionRepo:    sessionRepo,
	}
}

// Handle выполняет запрос академической истории.
func (h *GetEnrollmentHistoryHandler) Handle(ctx context.Context, query GetEnrollmentHistoryQuery) (*GetEnrollmentHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	records, err := h.enrollmentRepo.HistoryByStudent(ctx, query.TenantID, query.StudentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetEnrollmentHistory", shared.ErrNotFound, "failed to load history", err)
	}
	if len(records) == 0 {
		return nil, shared.NewDomainError("query", "GetEnrollmentHistory", shared.ErrNotFound, "student has no enrollments")
	}

	result := &GetEnrollmentHistoryResult{StudentID: query.StudentID}

	// Имена сессий подтягиваем по одному разу.
	sessionNames := make(map[string]string)

	for _, e := range orderBySuccessorChain(records) {
		dto := EnrollmentDTO{
			EnrollmentID: e.ID,
			SessionID:    e.SessionID,
			SessionName:  h.sessionName(ctx, query.TenantID, e.SessionID, sessionNames),
			ClassID:      e.ClassID,
			SectionID:    e.SectionID,
			RollNo:       e.RollNo.String(),
			Status:       string(e.Status),
			PromotedToID: e.PromotedToID,
			Remarks:      e.Remarks,
		}
		if !e.PromotionDate.IsZero() {
			d := e.PromotionDate
			dto.PromotionDate = &d
		}
		result.History = append(result.History, dto)
		if e.IsActive() {
			current := dto
			result.Current = &current
		}
	}

	return result, nil
}

// orderBySuccessorChain orders enrollments by following successor links
// from the chain head (the record no other record points to). Records
// outside the chain (a re-admission after a drop) follow in creation
// order.
func orderBySuccessorChain(records []*enrollment.Enrollment) []*enrollment.Enrollment {
	byID := make(map[string]*enrollment.Enrollment, len(records))
	isSuccessor := make(map[string]bool, len(records))
	for _, e := range records {
		byID[e.ID] = e
		if e.PromotedToID != "" {
			isSuccessor[e.PromotedToID] = true
		}
	}

	ordered := make([]*enrollment.Enrollment, 0, len(records))
	seen := make(map[string]bool, len(records))

	// records arrive in creation order, so chain heads are visited
	// oldest-first
	for _, e := range records {
		if isSuccessor[e.ID] {
			continue
		}
		for cur := e; cur != nil && !seen[cur.ID]; cur = byID[cur.PromotedToID] {
			ordered = append(ordered, cur)
			seen[cur.ID] = true
		}
	}

	// anything a broken link left unvisited
	for _, e := range records {
		if !seen[e.ID] {
			ordered = append(ordered, e)
		}
	}
	return ordered
}

func (h *GetEnrollmentHistoryHandler) sessionName(ctx context.Context, tenantID shared.TenantID, sessionID string, cache map[string]string) string {
	if name, ok := cache[sessionID]; ok {
		return name
	}
	name := ""
	if s, err := h.sessionRepo.GetByID(ctx, tenantID, sessionID); err == nil {
		name = s.Name.String()
	}
	cache[sessionID] = name
	return name
}
