package query

import (
	"context"
	"sort"
	"time"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/grading"
	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// In-memory doubles shared by the query tests.

type stubCategoryRepo struct {
	categories []*assessment.AssessmentCategory
	listCalls  int
}

func (r *stubCategoryRepo) Create(_ context.Context, c *assessment.AssessmentCategory) error {
	r.categories = append(r.categories, c)
	return nil
}

func (r *stubCategoryRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*assessment.AssessmentCategory, error) {
	for _, c := range r.categories {
		if c.TenantID == tenantID && c.ID == id {
			return c, nil
		}
	}
	return nil, shared.NewDomainError("assessment", "GetByID", shared.ErrNotFound, "category not found")
}

func (r *stubCategoryRepo) GetByCode(_ context.Context, tenantID shared.TenantID, code shared.Code) (*assessment.AssessmentCategory, error) {
	for _, c := range r.categories {
		if c.TenantID == tenantID && c.Code == code {
			return c, nil
		}
	}
	return nil, shared.NewDomainError("assessment", "GetByCode", shared.ErrNotFound, "category not found")
}

func (r *stubCategoryRepo) Update(_ context.Context, _ *assessment.AssessmentCategory) error {
	return nil
}

func (r *stubCategoryRepo) List(_ context.Context, tenantID shared.TenantID) ([]*assessment.AssessmentCategory, error) {
	r.listCalls++
	var out []*assessment.AssessmentCategory
	for _, c := range r.categories {
		if c.TenantID == tenantID && c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *stubCategoryRepo) UpdateOrder(_ context.Context, _ shared.TenantID, _ []string) error {
	return nil
}

// stubConfigCache remembers the last written category list.
type stubConfigCache struct {
	categories map[shared.TenantID][]*assessment.AssessmentCategory
	setCalls   int
}

func newStubConfigCache() *stubConfigCache {
	return &stubConfigCache{categories: make(map[shared.TenantID][]*assessment.AssessmentCategory)}
}

func (c *stubConfigCache) GetCategories(_ context.Context, tenantID shared.TenantID) ([]*assessment.AssessmentCategory, error) {
	return c.categories[tenantID], nil
}

func (c *stubConfigCache) SetCategories(_ context.Context, tenantID shared.TenantID, categories []*assessment.AssessmentCategory, _ time.Duration) error {
	c.categories[tenantID] = categories
	c.setCalls++
	return nil
}

func (c *stubConfigCache) GetDistributions(_ context.Context, _ shared.TenantID, _ string) ([]*assessment.MarksDistribution, error) {
	return nil, nil
}

func (c *stubConfigCache) SetDistributions(_ context.Context, _ shared.TenantID, _ string, _ []*assessment.MarksDistribution, _ time.Duration) error {
	return nil
}

func (c *stubConfigCache) InvalidateCategories(_ context.Context, tenantID shared.TenantID) error {
	delete(c.categories, tenantID)
	return nil
}

func (c *stubConfigCache) InvalidateDistributions(_ context.Context, _ shared.TenantID) error {
	return nil
}

type stubStudentRepo struct {
	students map[string]*enrollment.Student
}

func (r *stubStudentRepo) Create(_ context.Context, s *enrollment.Student) error {
	r.students[s.ID] = s
	return nil
}

func (r *stubStudentRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*enrollment.Student, error) {
	s, ok := r.students[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.NewDomainError("enrollment", "GetByID", shared.ErrNotFound, "student not found")
	}
	return s, nil
}

func (r *stubStudentRepo) GetByAdmissionNo(_ context.Context, tenantID shared.TenantID, admissionNo string) (*enrollment.Student, error) {
	for _, s := range r.students {
		if s.TenantID == tenantID && s.AdmissionNo == admissionNo {
			return s, nil
		}
	}
	return nil, shared.NewDomainError("enrollment", "GetByAdmissionNo", shared.ErrNotFound, "student not found")
}

func (r *stubStudentRepo) Update(_ context.Context, s *enrollment.Student) error {
	r.students[s.ID] = s
	return nil
}

func (r *stubStudentRepo) ListBySection(_ context.Context, _ shared.TenantID, _, _ string) ([]*enrollment.Student, error) {
	return nil, nil
}

func (r *stubStudentRepo) ExistsByAdmissionNo(_ context.Context, _ shared.TenantID, _ string) (bool, error) {
	return false, nil
}

type stubEnrollmentRepo struct {
	enrollments []*enrollment.Enrollment
}

func (r *stubEnrollmentRepo) Create(_ context.Context, e *enrollment.Enrollment) error {
	r.enrollments = append(r.enrollments, e)
	return nil
}

func (r *stubEnrollmentRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*enrollment.Enrollment, error) {
	for _, e := range r.enrollments {
		if e.TenantID == tenantID && e.ID == id {
			return e, nil
		}
	}
	return nil, shared.NewDomainError("enrollment", "GetByID", shared.ErrNotFound, "enrollment not found")
}

func (r *stubEnrollmentRepo) GetByStudentAndSession(_ context.Context, tenantID shared.TenantID, studentID, sessionID string) (*enrollment.Enrollment, error) {
	for _, e := range r.enrollments {
		if e.TenantID == tenantID && e.StudentID == studentID && e.SessionID == sessionID {
			return e, nil
		}
	}
	return nil, shared.NewDomainError("enrollment", "GetByStudentAndSession", shared.ErrNotFound, "enrollment not found")
}

func (r *stubEnrollmentRepo) Update(_ context.Context, _ *enrollment.Enrollment) error {
	return nil
}

func (r *stubEnrollmentRepo) HistoryByStudent(_ context.Context, tenantID shared.TenantID, studentID string) ([]*enrollment.Enrollment, error) {
	var out []*enrollment.Enrollment
	for _, e := range r.enrollments {
		if e.TenantID == tenantID && e.StudentID == studentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubEnrollmentRepo) ListActiveBySection(_ context.Context, _ shared.TenantID, _, _ string) ([]*enrollment.Enrollment, error) {
	return nil, nil
}

func (r *stubEnrollmentRepo) ListActiveBySession(_ context.Context, _ shared.TenantID, _ string) ([]*enrollment.Enrollment, error) {
	return nil, nil
}

func (r *stubEnrollmentRepo) CountActiveBySection(_ context.Context, _ shared.TenantID, _, _ string) (int, error) {
	return 0, nil
}

type stubSessionRepo struct {
	sessions map[string]*session.Session
}

func (r *stubSessionRepo) Create(_ context.Context, s *session.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*session.Session, error) {
	s, ok := r.sessions[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.NewDomainError("session", "GetByID", shared.ErrNotFound, "session not found")
	}
	return s, nil
}

func (r *stubSessionRepo) GetActive(_ context.Context, _ shared.TenantID) (*session.Session, error) {
	return nil, shared.NewDomainError("session", "GetActive", shared.ErrNotFound, "no active session")
}

func (r *stubSessionRepo) Update(_ context.Context, _ *session.Session) error { return nil }

func (r *stubSessionRepo) Activate(_ context.Context, _ shared.TenantID, _ string) (string, error) {
	return "", nil
}

func (r *stubSessionRepo) List(_ context.Context, _ shared.TenantID) ([]*session.Session, error) {
	return nil, nil
}

func (r *stubSessionRepo) Exists(_ context.Context, _ shared.TenantID, _ string) (bool, error) {
	return false, nil
}

func (r *stubSessionRepo) Count(_ context.Context, _ shared.TenantID) (int, error) { return 0, nil }

type stubSubjectRepo struct {
	subjects map[string]*assessment.Subject
}

func (r *stubSubjectRepo) Create(_ context.Context, s *assessment.Subject) error {
	r.subjects[s.ID] = s
	return nil
}

func (r *stubSubjectRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*assessment.Subject, error) {
	s, ok := r.subjects[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.NewDomainError("assessment", "GetByID", shared.ErrNotFound, "subject not found")
	}
	return s, nil
}

func (r *stubSubjectRepo) ListByClass(_ context.Context, _ shared.TenantID, _ string, _ assessment.SubjectKind) ([]*assessment.Subject, error) {
	return nil, nil
}

type stubResultRepo struct {
	results      []*grading.ResultRecord
	cocurricular []*grading.CocurricularResult
	optional     []*grading.OptionalResult
}

func (r *stubResultRepo) UpsertResult(_ context.Context, rec *grading.ResultRecord) error {
	r.results = append(r.results, rec)
	return nil
}

func (r *stubResultRepo) GetResult(_ context.Context, _ shared.TenantID, _, _, _ string) (*grading.ResultRecord, error) {
	return nil, shared.NewDomainError("grading", "GetResult", shared.ErrNotFound, "result not found")
}

func (r *stubResultRepo) ListResultsByStudent(_ context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*grading.ResultRecord, error) {
	var out []*grading.ResultRecord
	for _, rec := range r.results {
		if rec.TenantID == tenantID && rec.StudentID == studentID && rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out, nil
}

func (r *stubResultRepo) UpsertCocurricular(_ context.Context, rec *grading.CocurricularResult) error {
	r.cocurricular = append(r.cocurricular, rec)
	return nil
}

func (r *stubResultRepo) ListCocurricularByStudent(_ context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*grading.CocurricularResult, error) {
	var out []*grading.CocurricularResult
	for _, rec := range r.cocurricular {
		if rec.TenantID == tenantID && rec.StudentID == studentID && rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubResultRepo) UpsertOptional(_ context.Context, rec *grading.OptionalResult) error {
	r.optional = append(r.optional, rec)
	return nil
}

func (r *stubResultRepo) ListOptionalByStudent(_ context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*grading.OptionalResult, error) {
	var out []*grading.OptionalResult
	for _, rec := range r.optional {
		if rec.TenantID == tenantID && rec.StudentID == studentID && rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}
