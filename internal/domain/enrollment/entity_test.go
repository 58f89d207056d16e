package enrollment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

const testTenantID = shared.TenantID("3f2b8c1a-9d4e-4f6a-8b2c-1d5e7f9a0b3c")

func validEnrollmentParams() NewEnrollmentParams {
	return NewEnrollmentParams{
		ID:        "e0000000-0000-4000-8000-000000000001",
		TenantID:  testTenantID,
		StudentID: "s0000000-0000-4000-8000-000000000001",
		SessionID: "a0000000-0000-4000-8000-000000000001",
		ClassID:   "c0000000-0000-4000-8000-000000000001",
		SectionID: "b0000000-0000-4000-8000-000000000001",
		RollNo:    "07",
	}
}

func TestNewEnrollment(t *testing.T) {
	e, err := NewEnrollment(validEnrollmentParams())
	assert.NoError(t, err)
	assert.Equal(t, StatusActive, e.Status)
	assert.True(t, e.IsActive())
	assert.Empty(t, e.PromotedToID)
	assert.True(t, e.PromotionDate.IsZero())
}

func TestNewEnrollment_MissingIDs(t *testing.T) {
	params := validEnrollmentParams()
	params.SectionID = ""

	_, err := NewEnrollment(params)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestEnrollment_Promote(t *testing.T) {
	e, _ := NewEnrollment(validEnrollmentParams())
	date := time.Date(2026, 4, 1, 15, 30, 0, 0, time.UTC)

	err := e.Promote("e0000000-0000-4000-8000-000000000002", date)
	assert.NoError(t, err)
	assert.Equal(t, StatusPromoted, e.Status)
	assert.Equal(t, "e0000000-0000-4000-8000-000000000002", e.PromotedToID)
	// дата перевода хранится без времени суток
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), e.PromotionDate)
}

func TestEnrollment_Promote_NotActive(t *testing.T) {
	e, _ := NewEnrollment(validEnrollmentParams())
	assert.NoError(t, e.Graduate())

	err := e.Promote("e0000000-0000-4000-8000-000000000002", time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestEnrollment_Promote_SelfSuccessor(t *testing.T) {
	e, _ := NewEnrollment(validEnrollmentParams())

	err := e.Promote(e.ID, time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, StatusActive, e.Status)
}

func TestEnrollment_Retain(t *testing.T) {
	e, _ := NewEnrollment(validEnrollmentParams())

	err := e.Retain("e0000000-0000-4000-8000-000000000002")
	assert.NoError(t, err)
	assert.Equal(t, StatusRetained, e.Status)
	assert.Equal(t, "e0000000-0000-4000-8000-000000000002", e.PromotedToID)
	// в отличие от Promote дата перевода не выставляется
	assert.True(t, e.PromotionDate.IsZero())
}

func TestEnrollment_Retain_NotActive(t *testing.T) {
	e, _ := NewEnrollment(validEnrollmentParams())
	assert.NoError(t, e.Drop("left the country"))

	err := e.Retain("e0000000-0000-4000-8000-000000000002")
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestEnrollment_TransferOut(t *testing.T) {
	e, _ := NewEnrollment(validEnrollmentParams())

	e.TransferOut("moved to another city")
	assert.Equal(t, StatusTransferred, e.Status)
	assert.Equal(t, "moved to another city", e.Remarks)
}

func TestEnrollment_TransferOut_NoPrecondition(t *testing.T) {
	// Перевод фиксируется и по уже закрытой записи.
	e, _ := NewEnrollment(validEnrollmentParams())
	assert.NoError(t, e.Graduate())

	e.TransferOut("records correction")
	assert.Equal(t, StatusTransferred, e.Status)
}

func TestEnrollment_Graduate(t *testing.T) {
	e, _ := NewEnrollment(validEnrollmentParams())

	assert.NoError(t, e.Graduate())
	assert.Equal(t, StatusGraduated, e.Status)
	assert.True(t, e.Status.IsTerminal())

	// повторный выпуск невозможен
	assert.ErrorIs(t, e.Graduate(), shared.ErrInvalidTransition)
}

func TestEnrollment_Drop(t *testing.T) {
	e, _ := NewEnrollment(validEnrollmentParams())

	assert.NoError(t, e.Drop("fees unpaid"))
	assert.Equal(t, StatusDropped, e.Status)
	assert.Equal(t, "fees unpaid", e.Remarks)
}

func TestStatus_HasSuccessor(t *testing.T) {
	assert.True(t, StatusPromoted.HasSuccessor())
	assert.True(t, StatusRetained.HasSuccessor())
	assert.False(t, StatusActive.HasSuccessor())
	assert.False(t, StatusGraduated.HasSuccessor())
	assert.False(t, StatusTransferred.HasSuccessor())
	assert.False(t, StatusDropped.HasSuccessor())
}
