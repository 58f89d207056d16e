package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

const testTenantID = shared.TenantID("3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c")

func TestNewCategory(t *testing.T) {
	c, err := NewCategory(NewCategoryParams{
		ID:        "cat-0000-0000-4000-8000-000000000001",
		TenantID:  testTenantID,
		Code:      "ut1",
		Name:      "Unit Test 1",
		Type:      CategoryTypeFormative,
		SortOrder: 10,
	})
	assert.NoError(t, err)
	// codes are normalized to uppercase
	assert.Equal(t, shared.Code("UT1"), c.Code)
	assert.True(t, c.IsActive)
}

func TestNewCategory_BadCode(t *testing.T) {
	_, err := NewCategory(NewCategoryParams{
		ID:       "cat-1",
		TenantID: testTenantID,
		Code:     "has spaces",
		Name:     "Bad",
		Type:     CategoryTypeFormative,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCategoryType_IsValid(t *testing.T) {
	for _, ct := range []CategoryType{
		CategoryTypeSummative,
		CategoryTypeFormative,
		CategoryTypeProject,
		CategoryTypePractical,
		CategoryTypeOther,
	} {
		assert.True(t, ct.IsValid(), string(ct))
	}
	assert.False(t, CategoryType("exam").IsValid())
	assert.False(t, CategoryType("test").IsValid())
}

func TestNewCategory_BadType(t *testing.T) {
	_, err := NewCategory(NewCategoryParams{
		ID:       "cat-1",
		TenantID: testTenantID,
		Code:     "UT1",
		Name:     "Unit Test 1",
		Type:     CategoryType("quiz"),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCategory_Retire(t *testing.T) {
	c, _ := NewCategory(NewCategoryParams{
		ID:       "cat-1",
		TenantID: testTenantID,
		Code:     "UT1",
		Name:     "Unit Test 1",
		Type:     CategoryTypeFormative,
	})

	c.Retire()
	assert.False(t, c.IsActive)
}

func TestNewDistribution_ZeroFullMarks(t *testing.T) {
	// zero full marks is a valid configuration
	d, err := NewDistribution(NewDistributionParams{
		ID:         "dist-1",
		TenantID:   testTenantID,
		ClassID:    "class-7",
		CategoryID: "cat-1",
		Kind:       SubjectKindCore,
		FullMarks:  0,
	})
	assert.NoError(t, err)
	assert.Equal(t, shared.Marks(0), d.FullMarks)
}

func TestDistribution_SetFullMarks(t *testing.T) {
	d, _ := NewDistribution(NewDistributionParams{
		ID:         "dist-1",
		TenantID:   testTenantID,
		ClassID:    "class-7",
		CategoryID: "cat-1",
		Kind:       SubjectKindCore,
		FullMarks:  50,
	})

	assert.NoError(t, d.SetFullMarks(100))
	assert.Equal(t, shared.Marks(100), d.FullMarks)

	assert.ErrorIs(t, d.SetFullMarks(-5), shared.ErrNegativeValue)
}

func TestDistribution_Matches(t *testing.T) {
	kindWide, _ := NewDistribution(NewDistributionParams{
		ID:         "dist-1",
		TenantID:   testTenantID,
		ClassID:    "class-7",
		CategoryID: "cat-1",
		Kind:       SubjectKindCore,
		FullMarks:  80,
	})
	subjectSpecific, _ := NewDistribution(NewDistributionParams{
		ID:         "dist-2",
		TenantID:   testTenantID,
		ClassID:    "class-7",
		CategoryID: "cat-1",
		Kind:       SubjectKindCore,
		SubjectID:  "subj-math",
		FullMarks:  100,
	})

	assert.True(t, kindWide.Matches("class-7", "cat-1", SubjectKindCore, "subj-math"))
	assert.True(t, kindWide.Matches("class-7", "cat-1", SubjectKindCore, "subj-physics"))
	assert.True(t, subjectSpecific.Matches("class-7", "cat-1", SubjectKindCore, "subj-math"))
	assert.False(t, subjectSpecific.Matches("class-7", "cat-1", SubjectKindCore, "subj-physics"))
	assert.False(t, kindWide.Matches("class-7", "cat-1", SubjectKindOptional, "subj-math"))
	assert.False(t, kindWide.Matches("class-8", "cat-1", SubjectKindCore, "subj-math"))
}
