package enrollment

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// fakeHasher - простая реализация PasswordHasher для тестов.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func validStudentParams() NewStudentParams {
	return NewStudentParams{
		ID:          "s0000000-0000-4000-8000-000000000001",
		TenantID:    testTenantID,
		AdmissionNo: "GHS_2025_042137",
		FirstName:   "Aruzhan",
		LastName:    "Bekova",
		DateOfBirth: time.Date(2012, 5, 9, 0, 0, 0, 0, time.UTC),
		Gender:      GenderFemale,
	}
}

func TestNewStudent(t *testing.T) {
	s, err := NewStudent(validStudentParams())
	assert.NoError(t, err)
	assert.True(t, s.IsActive)
	assert.Equal(t, "Aruzhan Bekova", s.FullName())
	assert.Empty(t, s.CurrentSessionID)
}

func TestNewStudent_MissingDOB(t *testing.T) {
	params := validStudentParams()
	params.DateOfBirth = time.Time{}

	_, err := NewStudent(params)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestGenerateAdmissionNo(t *testing.T) {
	no, err := GenerateAdmissionNo("ghs", 2025)
	assert.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^GHS_2025_\d{6}$`), no)
}

func TestGenerateAdmissionNo_EmptyPrefix(t *testing.T) {
	_, err := GenerateAdmissionNo("  ", 2025)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestStudent_DefaultPassword(t *testing.T) {
	s, _ := NewStudent(validStudentParams())

	// дата рождения в формате DDMMYYYY
	assert.Equal(t, "09052012", s.DefaultPassword())

	err := s.SetDefaultPassword(fakeHasher{})
	assert.NoError(t, err)
	assert.NoError(t, s.CheckPassword(fakeHasher{}, "09052012"))
	assert.Error(t, s.CheckPassword(fakeHasher{}, "wrong"))
}

func TestStudent_SetPassword_TooShort(t *testing.T) {
	s, _ := NewStudent(validStudentParams())

	err := s.SetPassword(fakeHasher{}, "12345")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

// failingHasher всегда возвращает ошибку хеширования.
type failingHasher struct{}

func (failingHasher) Hash(string) (string, error)  { return "", errors.New("hash backend down") }
func (failingHasher) Compare(string, string) error { return errors.New("hash backend down") }

func TestStudent_SetPassword_HasherError(t *testing.T) {
	s, _ := NewStudent(validStudentParams())

	err := s.SetPassword(failingHasher{}, "123456")
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.ErrorContains(t, err, "hash backend down")
	// Ошибка хеширования не должна затирать сохранённый хеш.
	assert.Empty(t, s.PasswordHash)
}

func TestStudent_SyncCurrent(t *testing.T) {
	s, _ := NewStudent(validStudentParams())

	s.SyncCurrent("sess-1", "class-7", "sec-a")
	assert.Equal(t, "sess-1", s.CurrentSessionID)
	assert.Equal(t, "class-7", s.CurrentClassID)
	assert.Equal(t, "sec-a", s.CurrentSectionID)
}

func TestStudent_Deactivate(t *testing.T) {
	s, _ := NewStudent(validStudentParams())

	s.Deactivate()
	assert.False(t, s.IsActive)
}
