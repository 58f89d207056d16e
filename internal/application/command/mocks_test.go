package command

import (
	"context"
	"sort"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/grading"
	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// In-memory repository doubles shared by the command tests.

// ─────────────────────────────────────────────────────────────────────────
// Event publisher
// ─────────────────────────────────────────────────────────────────────────

type memPublisher struct {
	events []shared.Event
}

func (p *memPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *memPublisher) last() shared.Event {
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// ─────────────────────────────────────────────────────────────────────────
// Session repository
// ─────────────────────────────────────────────────────────────────────────

type memSessionRepo struct {
	sessions map[string]*session.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*session.Session)}
}

func (r *memSessionRepo) Create(_ context.Context, s *session.Session) error {
	for _, existing := range r.sessions {
		if existing.TenantID == s.TenantID && existing.Name == s.Name {
			return shared.NewDomainError("session", "Create", shared.ErrAlreadyExists, "session name taken")
		}
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*session.Session, error) {
	s, ok := r.sessions[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.NewDomainError("session", "GetByID", shared.ErrNotFound, "session not found")
	}
	return s.Clone(), nil
}

func (r *memSessionRepo) GetActive(_ context.Context, tenantID shared.TenantID) (*session.Session, error) {
	for _, s := range r.sessions {
		if s.TenantID == tenantID && s.IsActive {
			return s.Clone(), nil
		}
	}
	return nil, shared.NewDomainError("session", "GetActive", shared.ErrNotFound, "no active session")
}

func (r *memSessionRepo) Update(_ context.Context, s *session.Session) error {
	if _, ok := r.sessions[s.ID]; !ok {
		return shared.NewDomainError("session", "Update", shared.ErrNotFound, "session not found")
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *memSessionRepo) Activate(_ context.Context, tenantID shared.TenantID, sessionID string) (string, error) {
	target, ok := r.sessions[sessionID]
	if !ok || target.TenantID != tenantID {
		return "", shared.NewDomainError("session", "Activate", shared.ErrNotFound, "session not found")
	}

	previousID := ""
	for _, s := range r.sessions {
		if s.TenantID == tenantID && s.IsActive && s.ID != sessionID {
			previousID = s.ID
			s.Deactivate()
		}
	}
	target.IsActive = true
	return previousID, nil
}

func (r *memSessionRepo) List(_ context.Context, tenantID shared.TenantID) ([]*session.Session, error) {
	var out []*session.Session
	for _, s := range r.sessions {
		if s.TenantID == tenantID {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Start.After(out[j].Period.Start) })
	return out, nil
}

func (r *memSessionRepo) Exists(_ context.Context, tenantID shared.TenantID, id string) (bool, error) {
	s, ok := r.sessions[id]
	return ok && s.TenantID == tenantID, nil
}

func (r *memSessionRepo) Count(_ context.Context, tenantID shared.TenantID) (int, error) {
	n := 0
	for _, s := range r.sessions {
		if s.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────
// Student repository
// ─────────────────────────────────────────────────────────────────────────

type memStudentRepo struct {
	students map[string]*enrollment.Student
}

func newMemStudentRepo() *memStudentRepo {
	return &memStudentRepo{students: make(map[string]*enrollment.Student)}
}

func (r *memStudentRepo) Create(_ context.Context, s *enrollment.Student) error {
	for _, existing := range r.students {
		if existing.TenantID == s.TenantID && existing.AdmissionNo == s.AdmissionNo {
			return shared.NewDomainError("enrollment", "Create", shared.ErrAlreadyExists, "admission number taken")
		}
	}
	r.students[s.ID] = s.Clone()
	return nil
}

func (r *memStudentRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*enrollment.Student, error) {
	s, ok := r.students[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.NewDomainError("enrollment", "GetByID", shared.ErrNotFound, "student not found")
	}
	return s.Clone(), nil
}

func (r *memStudentRepo) GetByAdmissionNo(_ context.Context, tenantID shared.TenantID, admissionNo string) (*enrollment.Student, error) {
	for _, s := range r.students {
		if s.TenantID == tenantID && s.AdmissionNo == admissionNo {
			return s.Clone(), nil
		}
	}
	return nil, shared.NewDomainError("enrollment", "GetByAdmissionNo", shared.ErrNotFound, "student not found")
}

func (r *memStudentRepo) Update(_ context.Context, s *enrollment.Student) error {
	if _, ok := r.students[s.ID]; !ok {
		return shared.NewDomainError("enrollment", "Update", shared.ErrNotFound, "student not found")
	}
	r.students[s.ID] = s.Clone()
	return nil
}

func (r *memStudentRepo) ListBySection(_ context.Context, tenantID shared.TenantID, sessionID, sectionID string) ([]*enrollment.Student, error) {
	var out []*enrollment.Student
	for _, s := range r.students {
		if s.TenantID == tenantID && s.CurrentSessionID == sessionID && s.CurrentSectionID == sectionID {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (r *memStudentRepo) ExistsByAdmissionNo(_ context.Context, tenantID shared.TenantID, admissionNo string) (bool, error) {
	for _, s := range r.students {
		if s.TenantID == tenantID && s.AdmissionNo == admissionNo {
			return true, nil
		}
	}
	return false, nil
}

// ─────────────────────────────────────────────────────────────────────────
// Enrollment repository
// ─────────────────────────────────────────────────────────────────────────

type memEnrollmentRepo struct {
	enrollments map[string]*enrollment.Enrollment
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{enrollments: make(map[string]*enrollment.Enrollment)}
}

func (r *memEnrollmentRepo) Create(_ context.Context, e *enrollment.Enrollment) error {
	for _, existing := range r.enrollments {
		if existing.TenantID == e.TenantID && existing.StudentID == e.StudentID && existing.SessionID == e.SessionID {
			return shared.NewDomainError("enrollment", "Create", shared.ErrAlreadyExists, "student already enrolled in session")
		}
	}
	r.enrollments[e.ID] = e.Clone()
	return nil
}

func (r *memEnrollmentRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*enrollment.Enrollment, error) {
	e, ok := r.enrollments[id]
	if !ok || e.TenantID != tenantID {
		return nil, shared.NewDomainError("enrollment", "GetByID", shared.ErrNotFound, "enrollment not found")
	}
	return e.Clone(), nil
}

func (r *memEnrollmentRepo) GetByStudentAndSession(_ context.Context, tenantID shared.TenantID, studentID, sessionID string) (*enrollment.Enrollment, error) {
	for _, e := range r.enrollments {
		if e.TenantID == tenantID && e.StudentID == studentID && e.SessionID == sessionID {
			return e.Clone(), nil
		}
	}
	return nil, shared.NewDomainError("enrollment", "GetByStudentAndSession", shared.ErrNotFound, "enrollment not found")
}

func (r *memEnrollmentRepo) Update(_ context.Context, e *enrollment.Enrollment) error {
	if _, ok := r.enrollments[e.ID]; !ok {
		return shared.NewDomainError("enrollment", "Update", shared.ErrNotFound, "enrollment not found")
	}
	r.enrollments[e.ID] = e.Clone()
	return nil
}

func (r *memEnrollmentRepo) HistoryByStudent(_ context.Context, tenantID shared.TenantID, studentID string) ([]*enrollment.Enrollment, error) {
	var out []*enrollment.Enrollment
	for _, e := range r.enrollments {
		if e.TenantID == tenantID && e.StudentID == studentID {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memEnrollmentRepo) ListActiveBySection(_ context.Context, tenantID shared.TenantID, sessionID, sectionID string) ([]*enrollment.Enrollment, error) {
	var out []*enrollment.Enrollment
	for _, e := range r.enrollments {
		if e.TenantID == tenantID && e.SessionID == sessionID && e.SectionID == sectionID && e.IsActive() {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (r *memEnrollmentRepo) ListActiveBySession(_ context.Context, tenantID shared.TenantID, sessionID string) ([]*enrollment.Enrollment, error) {
	var out []*enrollment.Enrollment
	for _, e := range r.enrollments {
		if e.TenantID == tenantID && e.SessionID == sessionID && e.IsActive() {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (r *memEnrollmentRepo) CountActiveBySection(ctx context.Context, tenantID shared.TenantID, sessionID, sectionID string) (int, error) {
	list, err := r.ListActiveBySection(ctx, tenantID, sessionID, sectionID)
	return len(list), err
}

// ─────────────────────────────────────────────────────────────────────────
// Class repository
// ─────────────────────────────────────────────────────────────────────────

type memClassRepo struct {
	classes  map[string]*enrollment.Class
	sections map[string]*enrollment.Section
}

func newMemClassRepo() *memClassRepo {
	return &memClassRepo{
		classes:  make(map[string]*enrollment.Class),
		sections: make(map[string]*enrollment.Section),
	}
}

func (r *memClassRepo) CreateClass(_ context.Context, c *enrollment.Class) error {
	r.classes[c.ID] = c
	return nil
}

func (r *memClassRepo) GetClass(_ context.Context, tenantID shared.TenantID, id string) (*enrollment.Class, error) {
	c, ok := r.classes[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.NewDomainError("enrollment", "GetClass", shared.ErrNotFound, "class not found")
	}
	return c, nil
}

func (r *memClassRepo) ListClasses(_ context.Context, tenantID shared.TenantID) ([]*enrollment.Class, error) {
	var out []*enrollment.Class
	for _, c := range r.classes {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numeric < out[j].Numeric })
	return out, nil
}

func (r *memClassRepo) CreateSection(_ context.Context, s *enrollment.Section) error {
	r.sections[s.ID] = s
	return nil
}

func (r *memClassRepo) GetSection(_ context.Context, tenantID shared.TenantID, id string) (*enrollment.Section, error) {
	s, ok := r.sections[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.NewDomainError("enrollment", "GetSection", shared.ErrNotFound, "section not found")
	}
	return s, nil
}

func (r *memClassRepo) ListSections(_ context.Context, tenantID shared.TenantID, classID string) ([]*enrollment.Section, error) {
	var out []*enrollment.Section
	for _, s := range r.sections {
		if s.TenantID == tenantID && s.ClassID == classID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────
// Unit of work
// ─────────────────────────────────────────────────────────────────────────

type memUnitOfWork struct {
	students    *memStudentRepo
	enrollments *memEnrollmentRepo
	committed   bool
}

func (u *memUnitOfWork) Students() enrollment.StudentRepository { return u.students }
func (u *memUnitOfWork) Enrollments() enrollment.Repository     { return u.enrollments }
func (u *memUnitOfWork) Commit(context.Context) error {
	u.committed = true
	return nil
}
func (u *memUnitOfWork) Rollback(context.Context) error { return nil }

type memUowFactory struct {
	uow *memUnitOfWork
}

func newMemUowFactory() *memUowFactory {
	return &memUowFactory{uow: &memUnitOfWork{
		students:    newMemStudentRepo(),
		enrollments: newMemEnrollmentRepo(),
	}}
}

func (f *memUowFactory) Begin(context.Context) (enrollment.UnitOfWork, error) {
	return f.uow, nil
}

// ─────────────────────────────────────────────────────────────────────────
// Assessment repositories
// ─────────────────────────────────────────────────────────────────────────

type memCategoryRepo struct {
	categories map[string]*assessment.AssessmentCategory
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{categories: make(map[string]*assessment.AssessmentCategory)}
}

func (r *memCategoryRepo) Create(_ context.Context, c *assessment.AssessmentCategory) error {
	for _, existing := range r.categories {
		if existing.TenantID == c.TenantID && existing.Code == c.Code {
			return shared.NewDomainError("assessment", "Create", shared.ErrAlreadyExists, "category code taken")
		}
	}
	r.categories[c.ID] = c
	return nil
}

func (r *memCategoryRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*assessment.AssessmentCategory, error) {
	c, ok := r.categories[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.NewDomainError("assessment", "GetByID", shared.ErrNotFound, "category not found")
	}
	return c, nil
}

func (r *memCategoryRepo) GetByCode(_ context.Context, tenantID shared.TenantID, code shared.Code) (*assessment.AssessmentCategory, error) {
	for _, c := range r.categories {
		if c.TenantID == tenantID && c.Code == code {
			return c, nil
		}
	}
	return nil, shared.NewDomainError("assessment", "GetByCode", shared.ErrNotFound, "category not found")
}

func (r *memCategoryRepo) Update(_ context.Context, c *assessment.AssessmentCategory) error {
	r.categories[c.ID] = c
	return nil
}

func (r *memCategoryRepo) List(_ context.Context, tenantID shared.TenantID) ([]*assessment.AssessmentCategory, error) {
	var out []*assessment.AssessmentCategory
	for _, c := range r.categories {
		if c.TenantID == tenantID && c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r *memCategoryRepo) UpdateOrder(_ context.Context, tenantID shared.TenantID, orderedIDs []string) error {
	order := 0
	for _, id := range orderedIDs {
		c, ok := r.categories[id]
		if !ok || c.TenantID != tenantID {
			continue // unknown ids are skipped
		}
		c.SortOrder = order
		order++
	}
	return nil
}

type memSubjectRepo struct {
	subjects map[string]*assessment.Subject
}

func newMemSubjectRepo() *memSubjectRepo {
	return &memSubjectRepo{subjects: make(map[string]*assessment.Subject)}
}

func (r *memSubjectRepo) Create(_ context.Context, s *assessment.Subject) error {
	r.subjects[s.ID] = s
	return nil
}

func (r *memSubjectRepo) GetByID(_ context.Context, tenantID shared.TenantID, id string) (*assessment.Subject, error) {
	s, ok := r.subjects[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.NewDomainError("assessment", "GetByID", shared.ErrNotFound, "subject not found")
	}
	return s, nil
}

func (r *memSubjectRepo) ListByClass(_ context.Context, tenantID shared.TenantID, classID string, kind assessment.SubjectKind) ([]*assessment.Subject, error) {
	var out []*assessment.Subject
	for _, s := range r.subjects {
		if s.TenantID == tenantID && s.ClassID == classID && (kind == "" || s.Kind == kind) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memDistributionRepo struct {
	distributions map[string]*assessment.MarksDistribution
}

func newMemDistributionRepo() *memDistributionRepo {
	return &memDistributionRepo{distributions: make(map[string]*assessment.MarksDistribution)}
}

func (r *memDistributionRepo) Upsert(_ context.Context, d *assessment.MarksDistribution) error {
	for id, existing := range r.distributions {
		if existing.TenantID == d.TenantID && existing.ClassID == d.ClassID &&
			existing.CategoryID == d.CategoryID && existing.Kind == d.Kind && existing.SubjectID == d.SubjectID {
			delete(r.distributions, id)
		}
	}
	r.distributions[d.ID] = d
	return nil
}

func (r *memDistributionRepo) Resolve(_ context.Context, tenantID shared.TenantID, classID, categoryID string, kind assessment.SubjectKind, subjectID string) (shared.Marks, error) {
	var kindWide *assessment.MarksDistribution
	for _, d := range r.distributions {
		if d.TenantID != tenantID || !d.Matches(classID, categoryID, kind, subjectID) {
			continue
		}
		if d.SubjectID == subjectID && subjectID != "" {
			return d.FullMarks, nil // subject-specific row wins
		}
		if d.SubjectID == "" {
			kindWide = d
		}
	}
	if kindWide != nil {
		return kindWide.FullMarks, nil
	}
	return 0, shared.NewDomainError("assessment", "Resolve", shared.ErrNotConfigured, "no marks distribution for cell")
}

func (r *memDistributionRepo) ListByClass(_ context.Context, tenantID shared.TenantID, classID string) ([]*assessment.MarksDistribution, error) {
	var out []*assessment.MarksDistribution
	for _, d := range r.distributions {
		if d.TenantID == tenantID && d.ClassID == classID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDistributionRepo) ReplaceForClassKind(_ context.Context, tenantID shared.TenantID, classID string, kind assessment.SubjectKind, rows []*assessment.MarksDistribution) error {
	for id, d := range r.distributions {
		if d.TenantID == tenantID && d.ClassID == classID && d.Kind == kind {
			delete(r.distributions, id)
		}
	}
	for _, d := range rows {
		r.distributions[d.ID] = d
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────
// Result repository
// ─────────────────────────────────────────────────────────────────────────

type memResultRepo struct {
	results      map[string]*grading.ResultRecord
	cocurricular map[string]*grading.CocurricularResult
	optional     map[string]*grading.OptionalResult
}

func newMemResultRepo() *memResultRepo {
	return &memResultRepo{
		results:      make(map[string]*grading.ResultRecord),
		cocurricular: make(map[string]*grading.CocurricularResult),
		optional:     make(map[string]*grading.OptionalResult),
	}
}

func resultKey(tenantID shared.TenantID, studentID, subjectID, sessionID string) string {
	return tenantID.String() + "/" + studentID + "/" + subjectID + "/" + sessionID
}

func (r *memResultRepo) UpsertResult(_ context.Context, rec *grading.ResultRecord) error {
	r.results[resultKey(rec.TenantID, rec.StudentID, rec.SubjectID, rec.SessionID)] = rec
	return nil
}

func (r *memResultRepo) GetResult(_ context.Context, tenantID shared.TenantID, studentID, subjectID, sessionID string) (*grading.ResultRecord, error) {
	rec, ok := r.results[resultKey(tenantID, studentID, subjectID, sessionID)]
	if !ok {
		return nil, shared.NewDomainError("grading", "GetResult", shared.ErrNotFound, "result not found")
	}
	return rec, nil
}

func (r *memResultRepo) ListResultsByStudent(_ context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*grading.ResultRecord, error) {
	var out []*grading.ResultRecord
	for _, rec := range r.results {
		if rec.TenantID == tenantID && rec.StudentID == studentID && rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out, nil
}

func (r *memResultRepo) UpsertCocurricular(_ context.Context, rec *grading.CocurricularResult) error {
	r.cocurricular[resultKey(rec.TenantID, rec.StudentID, rec.SubjectID, rec.SessionID)] = rec
	return nil
}

func (r *memResultRepo) ListCocurricularByStudent(_ context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*grading.CocurricularResult, error) {
	var out []*grading.CocurricularResult
	for _, rec := range r.cocurricular {
		if rec.TenantID == tenantID && rec.StudentID == studentID && rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memResultRepo) UpsertOptional(_ context.Context, rec *grading.OptionalResult) error {
	r.optional[resultKey(rec.TenantID, rec.StudentID, rec.SubjectID, rec.SessionID)] = rec
	return nil
}

func (r *memResultRepo) ListOptionalByStudent(_ context.Context, tenantID shared.TenantID, studentID, sessionID string) ([]*grading.OptionalResult, error) {
	var out []*grading.OptionalResult
	for _, rec := range r.optional {
		if rec.TenantID == tenantID && rec.StudentID == studentID && rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────
// Password hasher
// ─────────────────────────────────────────────────────────────────────────

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "h:" + password, nil }
func (plainHasher) Compare(hash, password string) error {
	if hash != "h:"+password {
		return shared.NewDomainError("enrollment", "Compare", shared.ErrValidation, "password mismatch")
	}
	return nil
}
