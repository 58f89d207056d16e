// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// TenantID identifies a school — the isolation boundary of the system.
// Every operation receives it explicitly from the caller; the core never
// infers tenancy from ambient state.
type TenantID string

// IsValid checks if the tenant ID is a valid UUID.
func (t TenantID) IsValid() bool {
	return uuidRegex.MatchString(string(t))
}

// String returns the string representation.
func (t TenantID) String() string {
	return string(t)
}

// IsEmpty checks if the ID is empty.
func (t TenantID) IsEmpty() bool {
	return t == ""
}

// NewTenantID creates a new TenantID with validation.
func NewTenantID(id string) (TenantID, error) {
	tid := TenantID(strings.ToLower(strings.TrimSpace(id)))
	if !tid.IsValid() {
		return "", NewDomainError("shared", "NewTenantID", ErrInvalidID, "invalid tenant ID format")
	}
	return tid, nil
}

// IsUUID reports whether s looks like a UUID. Used by entities that hold
// foreign references as plain strings.
func IsUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// ═══════════════════════════════════════════════════════════════════════════
// Code Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Short codes ("UT1", "FINAL", "CS-A") are unique per tenant.
var codeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,49}$`)

// Code is a short human-facing identifier, unique within a tenant.
type Code string

// IsValid checks the code format.
func (c Code) IsValid() bool {
	return codeRegex.MatchString(string(c))
}

// String returns the string representation.
func (c Code) String() string {
	return string(c)
}

// Normalize returns the canonical (uppercase, trimmed) form.
func (c Code) Normalize() Code {
	return Code(strings.ToUpper(strings.TrimSpace(string(c))))
}

// NewCode creates a validated, normalized Code.
func NewCode(s string) (Code, error) {
	c := Code(strings.TrimSpace(s))
	if !c.IsValid() {
		return "", NewDomainError("shared", "NewCode", ErrInvalidInput, "code must be 1-50 chars of letters, digits, '-' or '_'")
	}
	return c.Normalize(), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Marks Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Marks represents an integer marks value (obtained or full).
type Marks int

// IsValid checks that marks are non-negative.
func (m Marks) IsValid() bool {
	return m >= 0
}

// Int returns the underlying int value.
func (m Marks) Int() int {
	return int(m)
}

// Add sums two marks values.
func (m Marks) Add(other Marks) Marks {
	return m + other
}

// NewMarks creates validated Marks.
func NewMarks(v int) (Marks, error) {
	m := Marks(v)
	if !m.IsValid() {
		return 0, NewDomainError("shared", "NewMarks", ErrNegativeValue, "marks cannot be negative")
	}
	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// DateRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DateRange is a half-open academic period [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsValid checks that the end strictly follows the start.
func (r DateRange) IsValid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.End.After(r.Start)
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Year returns the calendar year the range starts in. Used for
// admission-number generation.
func (r DateRange) Year() int {
	return r.Start.Year()
}

// NewDateRange creates a validated DateRange.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if !r.IsValid() {
		return DateRange{}, NewDomainError("shared", "NewDateRange", ErrInvalidRange, "end date must be after start date")
	}
	return r, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// RollNo Value Object
// ═══════════════════════════════════════════════════════════════════════════

// RollNo is a student's roll number within a class/section for one session.
// Kept as a string: schools use forms like "07", "12-A".
type RollNo string

// IsValid checks that the roll number is non-empty and short.
func (r RollNo) IsValid() bool {
	s := strings.TrimSpace(string(r))
	return len(s) >= 1 && len(s) <= 50
}

// String returns the string representation.
func (r RollNo) String() string {
	return string(r)
}

// NewRollNo creates a validated RollNo.
func NewRollNo(s string) (RollNo, error) {
	r := RollNo(strings.TrimSpace(s))
	if !r.IsValid() {
		return "", NewDomainError("shared", "NewRollNo", ErrInvalidInput, "roll number must be 1-50 chars")
	}
	return r, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Date helpers
// ═══════════════════════════════════════════════════════════════════════════

// DateOnly truncates t to midnight UTC. Academic dates (promotion date,
// session boundaries) carry no time-of-day component.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current date truncated to midnight UTC.
func Today() time.Time {
	return DateOnly(time.Now())
}
