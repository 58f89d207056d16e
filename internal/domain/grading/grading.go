// Package grading implements grade computation: the fixed grade ladder
// and the result records that aggregate marks per student.
package grading

import (
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// Grade is a letter grade from the fixed ladder.
type Grade string

const (
	GradeAA    Grade = "AA"
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
)

// IsValid checks that the grade belongs to the ladder.
func (g Grade) IsValid() bool {
	switch g {
	case GradeAA, GradeAPlus, GradeA, GradeBPlus, GradeB, GradeC, GradeD:
		return true
	default:
		return false
	}
}

// IsPassing reports whether the grade is above the failing band.
func (g Grade) IsPassing() bool {
	return g.IsValid() && g != GradeD
}

// Percentage computes obtained/full as a percentage. A zero full marks
// yields zero.
func Percentage(obtained, full shared.Marks) float64 {
	if full == 0 {
		return 0
	}
	return float64(obtained) / float64(full) * 100
}

// GradeFor maps a marks pair onto the ladder:
//
//	>= 90%  AA
//	>= 75%  A+
//	>= 60%  A
//	>= 45%  B+
//	>= 34%  B
//	>= 25%  C
//	else    D
//
// A zero full marks always grades D, regardless of obtained marks.
func GradeFor(obtained, full shared.Marks) Grade {
	if full == 0 {
		return GradeD
	}

	pct := Percentage(obtained, full)

	switch {
	case pct >= 90:
		return GradeAA
	case pct >= 75:
		return GradeAPlus
	case pct >= 60:
		return GradeA
	case pct >= 45:
		return GradeBPlus
	case pct >= 34:
		return GradeB
	case pct >= 25:
		return GradeC
	default:
		return GradeD
	}
}
