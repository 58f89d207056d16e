package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/grading"
	"github.com/mektep-io/academic-core/internal/domain/session"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

const testTenantID = shared.TenantID("3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c")

func mustCategory(t *testing.T, id, code string, order int) *assessment.AssessmentCategory {
	t.Helper()
	c, err := assessment.NewCategory(assessment.NewCategoryParams{
		ID:        id,
		TenantID:  testTenantID,
		Code:      shared.Code(code),
		Name:      code,
		Type:      assessment.CategoryTypeSummative,
		SortOrder: order,
	})
	require.NoError(t, err)
	return c
}

func TestListCategories_CacheReadThrough(t *testing.T) {
	repo := &stubCategoryRepo{}
	cache := newStubConfigCache()
	handler := NewListCategoriesHandler(repo, cache)
	ctx := context.Background()

	repo.categories = []*assessment.AssessmentCategory{
		mustCategory(t, "cat-2", "FINAL", 1),
		mustCategory(t, "cat-1", "UT1", 0),
	}

	first, err := handler.Handle(ctx, ListCategoriesQuery{TenantID: testTenantID})
	assert.NoError(t, err)
	assert.False(t, first.FromCache)
	require.Len(t, first.Categories, 2)
	assert.Equal(t, "UT1", first.Categories[0].Code)
	assert.Equal(t, "FINAL", first.Categories[1].Code)
	assert.Equal(t, 1, cache.setCalls)

	// second read is served by the cache
	second, err := handler.Handle(ctx, ListCategoriesQuery{TenantID: testTenantID})
	assert.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, repo.listCalls)
}

func TestListCategories_NilCache(t *testing.T) {
	repo := &stubCategoryRepo{}
	repo.categories = []*assessment.AssessmentCategory{mustCategory(t, "cat-1", "FINAL", 0)}
	handler := NewListCategoriesHandler(repo, nil)

	res, err := handler.Handle(context.Background(), ListCategoriesQuery{TenantID: testTenantID})
	assert.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Len(t, res.Categories, 1)
}

func TestGetDistribution_OrderedCells(t *testing.T) {
	catRepo := &stubCategoryRepo{categories: []*assessment.AssessmentCategory{
		mustCategory(t, "cat-ut", "UT1", 0),
		mustCategory(t, "cat-final", "FINAL", 1),
	}}

	distRepo := &memDistributions{}
	for _, row := range []struct {
		id, catID, subjID string
		full              int
	}{
		{"d1", "cat-final", "", 80},
		{"d2", "cat-final", "subj-math", 100},
		{"d3", "cat-ut", "", 20},
	} {
		d, err := assessment.NewDistribution(assessment.NewDistributionParams{
			ID:         row.id,
			TenantID:   testTenantID,
			ClassID:    "class-7",
			CategoryID: row.catID,
			Kind:       assessment.SubjectKindCore,
			SubjectID:  row.subjID,
			FullMarks:  shared.Marks(row.full),
		})
		require.NoError(t, err)
		distRepo.rows = append(distRepo.rows, d)
	}

	handler := NewGetDistributionHandler(catRepo, distRepo, nil)
	res, err := handler.Handle(context.Background(), GetDistributionQuery{
		TenantID: testTenantID, ClassID: "class-7",
	})
	assert.NoError(t, err)
	require.Len(t, res.Cells, 3)

	// registry order first, kind-wide row before the subject override
	assert.Equal(t, "UT1", res.Cells[0].CategoryCode)
	assert.Equal(t, "FINAL", res.Cells[1].CategoryCode)
	assert.Empty(t, res.Cells[1].SubjectID)
	assert.Equal(t, "subj-math", res.Cells[2].SubjectID)
	assert.Equal(t, 100, res.Cells[2].FullMarks)
}

func TestGetMarksheet(t *testing.T) {
	ctx := context.Background()

	stu, err := enrollment.NewStudent(enrollment.NewStudentParams{
		ID:          "stu-1",
		TenantID:    testTenantID,
		AdmissionNo: "GHS_2025_000001",
		FirstName:   "Aizhan",
		LastName:    "Serikova",
		DateOfBirth: time.Date(2012, 5, 9, 0, 0, 0, 0, time.UTC),
		Gender:      enrollment.GenderFemale,
	})
	require.NoError(t, err)
	stu.SyncCurrent("sess-1", "class-7", "sec-a")

	enr, err := enrollment.NewEnrollment(enrollment.NewEnrollmentParams{
		ID:        "enr-1",
		TenantID:  testTenantID,
		StudentID: stu.ID,
		SessionID: "sess-1",
		ClassID:   "class-7",
		SectionID: "sec-a",
		RollNo:    "7",
	})
	require.NoError(t, err)

	subj, err := assessment.NewSubject("subj-math", testTenantID, "class-7", "Mathematics", assessment.SubjectKindCore)
	require.NoError(t, err)

	rec, err := grading.NewLegacyResult("res-1", testTenantID, stu.ID, subj.ID, "sess-1")
	require.NoError(t, err)
	require.NoError(t, rec.SetLine(grading.LineFirstSummative, 36))
	require.NoError(t, rec.SetLine(grading.LineFirstFormative, 9))
	rec.SetConduct("Good")
	rec.Recompute()

	cocur, err := grading.NewCocurricularResult("res-2", testTenantID, stu.ID, "subj-music", "sess-1", 0)
	require.NoError(t, err)
	require.NoError(t, cocur.SetTermMarks(46, 40, 30))

	opt, err := grading.NewOptionalResult("res-3", testTenantID, stu.ID, "subj-cs", "sess-1", 0)
	require.NoError(t, err)
	require.NoError(t, opt.SetMarks(30))

	handler := NewGetMarksheetHandler(
		&stubStudentRepo{students: map[string]*enrollment.Student{stu.ID: stu}},
		&stubEnrollmentRepo{enrollments: []*enrollment.Enrollment{enr}},
		&stubSubjectRepo{subjects: map[string]*assessment.Subject{subj.ID: subj}},
		&stubCategoryRepo{},
		&stubResultRepo{
			results:      []*grading.ResultRecord{rec},
			cocurricular: []*grading.CocurricularResult{cocur},
			optional:     []*grading.OptionalResult{opt},
		},
	)

	// empty session id falls back to the student's current session
	res, err := handler.Handle(ctx, GetMarksheetQuery{TenantID: testTenantID, StudentID: stu.ID})
	assert.NoError(t, err)

	sheet := res.Marksheet
	assert.Equal(t, "Aizhan Serikova", sheet.StudentName)
	assert.Equal(t, "sess-1", sheet.SessionID)
	assert.Equal(t, "7", sheet.RollNo)

	require.Len(t, sheet.Subjects, 1)
	assert.Equal(t, "Mathematics", sheet.Subjects[0].SubjectName)
	assert.Len(t, sheet.Subjects[0].Lines, 6)
	assert.Equal(t, 45, sheet.Subjects[0].TotalObtained)
	assert.Equal(t, 150, sheet.Subjects[0].TotalFull)

	assert.Equal(t, 45, sheet.GrandObtained)
	assert.Equal(t, 150, sheet.GrandFull)
	assert.Equal(t, "C", sheet.OverallGrade) // 30%
	assert.Equal(t, "Good", sheet.Conduct)

	require.Len(t, sheet.Cocurricular, 1)
	assert.Equal(t, "subj-music", sheet.Cocurricular[0].SubjectName) // name falls back to the id
	assert.Equal(t, "AA", sheet.Cocurricular[0].FirstTermGrade)

	require.Len(t, sheet.Optional, 1)
	assert.Equal(t, "A", sheet.Optional[0].Grade)
}

func TestGetMarksheet_StudentNotFound(t *testing.T) {
	handler := NewGetMarksheetHandler(
		&stubStudentRepo{students: map[string]*enrollment.Student{}},
		&stubEnrollmentRepo{},
		&stubSubjectRepo{},
		&stubCategoryRepo{},
		&stubResultRepo{},
	)

	_, err := handler.Handle(context.Background(), GetMarksheetQuery{TenantID: testTenantID, StudentID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetEnrollmentHistory_ChainOrder(t *testing.T) {
	ctx := context.Background()

	mkEnrollment := func(id, sessionID string, createdAt time.Time) *enrollment.Enrollment {
		e, err := enrollment.NewEnrollment(enrollment.NewEnrollmentParams{
			ID:        id,
			TenantID:  testTenantID,
			StudentID: "stu-1",
			SessionID: sessionID,
			ClassID:   "class-7",
			SectionID: "sec-a",
			RollNo:    "1",
		})
		require.NoError(t, err)
		e.CreatedAt = createdAt
		return e
	}

	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	e1 := mkEnrollment("enr-1", "sess-2024", base)
	e2 := mkEnrollment("enr-2", "sess-2025", base.AddDate(1, 0, 0))
	e3 := mkEnrollment("enr-3", "sess-2026", base.AddDate(2, 0, 0))

	require.NoError(t, e1.Promote("enr-2", base.AddDate(1, 0, 0)))
	require.NoError(t, e2.Promote("enr-3", base.AddDate(2, 0, 0)))

	sess, err := session.NewSession(session.NewSessionParams{
		ID:       "sess-2024",
		TenantID: testTenantID,
		Name:     "2024-2025",
		Start:    base,
		End:      base.AddDate(1, 0, 0),
	})
	require.NoError(t, err)

	handler := NewGetEnrollmentHistoryHandler(
		&stubEnrollmentRepo{enrollments: []*enrollment.Enrollment{e3, e1, e2}},
		&stubSessionRepo{sessions: map[string]*session.Session{sess.ID: sess}},
	)

	res, err := handler.Handle(ctx, GetEnrollmentHistoryQuery{TenantID: testTenantID, StudentID: "stu-1"})
	assert.NoError(t, err)
	require.Len(t, res.History, 3)

	assert.Equal(t, "enr-1", res.History[0].EnrollmentID)
	assert.Equal(t, "enr-2", res.History[1].EnrollmentID)
	assert.Equal(t, "enr-3", res.History[2].EnrollmentID)

	assert.Equal(t, "promoted", res.History[0].Status)
	assert.NotNil(t, res.History[0].PromotionDate)
	assert.Equal(t, "2024-2025", res.History[0].SessionName)

	require.NotNil(t, res.Current)
	assert.Equal(t, "enr-3", res.Current.EnrollmentID)
}

func TestGetEnrollmentHistory_Empty(t *testing.T) {
	handler := NewGetEnrollmentHistoryHandler(&stubEnrollmentRepo{}, &stubSessionRepo{})

	_, err := handler.Handle(context.Background(), GetEnrollmentHistoryQuery{TenantID: testTenantID, StudentID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// memDistributions is a minimal DistributionRepository over a slice.
type memDistributions struct {
	rows []*assessment.MarksDistribution
}

func (r *memDistributions) Upsert(_ context.Context, d *assessment.MarksDistribution) error {
	r.rows = append(r.rows, d)
	return nil
}

func (r *memDistributions) Resolve(_ context.Context, _ shared.TenantID, _, _ string, _ assessment.SubjectKind, _ string) (shared.Marks, error) {
	return 0, shared.NewDomainError("assessment", "Resolve", shared.ErrNotConfigured, "not configured")
}

func (r *memDistributions) ListByClass(_ context.Context, tenantID shared.TenantID, classID string) ([]*assessment.MarksDistribution, error) {
	var out []*assessment.MarksDistribution
	for _, d := range r.rows {
		if d.TenantID == tenantID && d.ClassID == classID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDistributions) ReplaceForClassKind(_ context.Context, _ shared.TenantID, _ string, _ assessment.SubjectKind, _ []*assessment.MarksDistribution) error {
	return nil
}
