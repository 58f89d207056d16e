package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/grading"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// resultFixture wires the save-result handler against in-memory storage
// with one session, one core subject and a configured distribution.
type resultFixture struct {
	sessions      *memSessionRepo
	subjects      *memSubjectRepo
	categories    *memCategoryRepo
	distributions *memDistributionRepo
	results       *memResultRepo
	pub           *memPublisher
	handler       *SaveResultHandler

	sessionID  string
	subjectID  string
	categoryID string
}

func newResultFixture(t *testing.T) *resultFixture {
	t.Helper()
	ctx := context.Background()

	f := &resultFixture{
		sessions:      newMemSessionRepo(),
		subjects:      newMemSubjectRepo(),
		categories:    newMemCategoryRepo(),
		distributions: newMemDistributionRepo(),
		results:       newMemResultRepo(),
		pub:           &memPublisher{},
	}
	f.handler = NewSaveResultHandler(f.sessions, f.subjects, f.categories, f.distributions, f.results, f.pub)

	created, err := NewCreateSessionHandler(f.sessions, f.pub).Handle(ctx, createSessionCmd("2025-2026", 2025, true))
	require.NoError(t, err)
	f.sessionID = created.SessionID

	subj, err := assessment.NewSubject("subj-math-0000-4000-8000-000000000001", testTenantID, "class-7", "Mathematics", assessment.SubjectKindCore)
	require.NoError(t, err)
	require.NoError(t, f.subjects.Create(ctx, subj))
	f.subjectID = subj.ID

	cat, err := NewCreateCategoryHandler(f.categories, f.pub).Handle(ctx, CreateCategoryCommand{
		TenantID: testTenantID, Code: "FINAL", Name: "Final Exam", Type: assessment.CategoryTypeSummative,
	})
	require.NoError(t, err)
	f.categoryID = cat.CategoryID

	require.NoError(t, NewSetFullMarksHandler(f.categories, f.distributions, f.pub).Handle(ctx, SetFullMarksCommand{
		TenantID: testTenantID, ClassID: "class-7", CategoryID: f.categoryID,
		Kind: assessment.SubjectKindCore, FullMarks: 80,
	}))

	return f
}

func (f *resultFixture) saveCmd(entries ...MarkEntry) SaveResultCommand {
	return SaveResultCommand{
		TenantID:  testTenantID,
		StudentID: "stu-1",
		SubjectID: f.subjectID,
		SessionID: f.sessionID,
		Entries:   entries,
	}
}

func TestSaveResult_CategoryScheme(t *testing.T) {
	f := newResultFixture(t)

	res, err := f.handler.Handle(context.Background(), f.saveCmd(MarkEntry{Key: f.categoryID, Obtained: 72}))
	assert.NoError(t, err)
	assert.Equal(t, 72, res.TotalObtained)
	assert.Equal(t, 80, res.TotalFull)
	assert.Equal(t, grading.GradeAA, res.Grade) // 90%

	assert.Equal(t, shared.EventResultSaved, f.pub.last().EventType())
}

func TestSaveResult_Incremental(t *testing.T) {
	f := newResultFixture(t)
	ctx := context.Background()

	// a second category with its own distribution cell
	ut1, err := NewCreateCategoryHandler(f.categories, f.pub).Handle(ctx, CreateCategoryCommand{
		TenantID: testTenantID, Code: "UT1", Name: "Unit Test 1", Type: assessment.CategoryTypeFormative,
	})
	require.NoError(t, err)
	require.NoError(t, NewSetFullMarksHandler(f.categories, f.distributions, f.pub).Handle(ctx, SetFullMarksCommand{
		TenantID: testTenantID, ClassID: "class-7", CategoryID: ut1.CategoryID,
		Kind: assessment.SubjectKindCore, FullMarks: 20,
	}))

	_, err = f.handler.Handle(ctx, f.saveCmd(MarkEntry{Key: f.categoryID, Obtained: 60}))
	require.NoError(t, err)

	// the second save extends the same record instead of replacing it
	res, err := f.handler.Handle(ctx, f.saveCmd(MarkEntry{Key: ut1.CategoryID, Obtained: 15}))
	assert.NoError(t, err)
	assert.Equal(t, 75, res.TotalObtained)
	assert.Equal(t, 100, res.TotalFull)
	assert.Equal(t, grading.GradeAPlus, res.Grade)
}

func TestSaveResult_UnconfiguredCell(t *testing.T) {
	f := newResultFixture(t)
	ctx := context.Background()

	// category exists but no distribution covers it
	orphan, err := NewCreateCategoryHandler(f.categories, f.pub).Handle(ctx, CreateCategoryCommand{
		TenantID: testTenantID, Code: "UT9", Name: "Unit Test 9", Type: assessment.CategoryTypeFormative,
	})
	require.NoError(t, err)

	_, err = f.handler.Handle(ctx, f.saveCmd(MarkEntry{Key: orphan.CategoryID, Obtained: 5}))
	assert.ErrorIs(t, err, shared.ErrNotConfigured)
}

func TestSaveResult_LockedSession(t *testing.T) {
	f := newResultFixture(t)
	ctx := context.Background()

	require.NoError(t, NewLockSessionHandler(f.sessions, f.pub).Handle(ctx, LockSessionCommand{
		TenantID: testTenantID, SessionID: f.sessionID,
	}))

	_, err := f.handler.Handle(ctx, f.saveCmd(MarkEntry{Key: f.categoryID, Obtained: 10}))
	assert.ErrorIs(t, err, shared.ErrSessionLocked)
}

func TestSaveResult_LegacyScheme(t *testing.T) {
	f := newResultFixture(t)

	cmd := f.saveCmd(
		MarkEntry{Key: grading.LineFirstSummative, Obtained: 36},
		MarkEntry{Key: grading.LineFirstFormative, Obtained: 9},
		MarkEntry{Key: grading.LineSecondSummative, Obtained: 38},
		MarkEntry{Key: grading.LineSecondFormative, Obtained: 10},
		MarkEntry{Key: grading.LineThirdSummative, Obtained: 35},
		MarkEntry{Key: grading.LineThirdFormative, Obtained: 8},
	)
	cmd.Legacy = true
	cmd.Conduct = "Excellent"
	cmd.AttendanceDays = 210

	res, err := f.handler.Handle(context.Background(), cmd)
	assert.NoError(t, err)
	assert.Equal(t, 136, res.TotalObtained)
	assert.Equal(t, 150, res.TotalFull)
	assert.Equal(t, grading.GradeAA, res.Grade)

	rec, err := f.results.GetResult(context.Background(), testTenantID, "stu-1", f.subjectID, f.sessionID)
	assert.NoError(t, err)
	assert.Equal(t, "Excellent", rec.Conduct)
	assert.Equal(t, 210, rec.AttendanceDays)
}

func TestSaveResult_LegacyUnknownLine(t *testing.T) {
	f := newResultFixture(t)

	cmd := f.saveCmd(MarkEntry{Key: "midterm", Obtained: 10})
	cmd.Legacy = true

	_, err := f.handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSaveCocurricularResult(t *testing.T) {
	f := newResultFixture(t)
	handler := NewSaveCocurricularResultHandler(f.sessions, f.results, f.pub)
	ctx := context.Background()

	err := handler.Handle(ctx, SaveCocurricularResultCommand{
		TenantID:   testTenantID,
		StudentID:  "stu-1",
		SubjectID:  "subj-music",
		SessionID:  f.sessionID,
		FirstTerm:  46,
		SecondTerm: 40,
		FinalTerm:  30,
	})
	assert.NoError(t, err)

	list, err := f.results.ListCocurricularByStudent(ctx, testTenantID, "stu-1", f.sessionID)
	assert.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, grading.GradeAA, list[0].FirstTermGrade)
	assert.Equal(t, grading.GradeAPlus, list[0].OverallGrade)
}

func TestSaveOptionalResult(t *testing.T) {
	f := newResultFixture(t)
	handler := NewSaveOptionalResultHandler(f.sessions, f.results, f.pub)
	ctx := context.Background()

	err := handler.Handle(ctx, SaveOptionalResultCommand{
		TenantID:  testTenantID,
		StudentID: "stu-1",
		SubjectID: "subj-cs",
		SessionID: f.sessionID,
		Obtained:  30,
		FullMarks: 50,
	})
	assert.NoError(t, err)

	list, err := f.results.ListOptionalByStudent(ctx, testTenantID, "stu-1", f.sessionID)
	assert.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, grading.GradeA, list[0].Grade)
}
