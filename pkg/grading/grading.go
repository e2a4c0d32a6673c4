// Package grading holds the pure grade arithmetic used by the ledger: letter
// breakpoints, grade points, weighted GPA, academic standing and graduation rules.
package grading

import "math"

// Letter grades recognised by the grade engine.
const (
	LetterA      = "A"
	LetterAMinus = "A-"
	LetterBPlus  = "B+"
	LetterB      = "B"
	LetterBMinus = "B-"
	LetterCPlus  = "C+"
	LetterC      = "C"
	LetterCMinus = "C-"
	LetterF      = "F"
)

// Standing is the categorical academic status derived from GPA thresholds.
type Standing string

// Academic standings.
const (
	StandingGood      Standing = "GOOD_STANDING"
	StandingWarning   Standing = "ACADEMIC_WARNING"
	StandingProbation Standing = "ACADEMIC_PROBATION"
)

// StandingThreshold is the GPA below which a student leaves good standing.
const StandingThreshold = 3.0

type breakpoint struct {
	min    float64
	letter string
}

// inclusive lower bounds, highest first
var breakpoints = []breakpoint{
	{93, LetterA},
	{90, LetterAMinus},
	{87, LetterBPlus},
	{83, LetterB},
	{80, LetterBMinus},
	{77, LetterCPlus},
	{73, LetterC},
	{70, LetterCMinus},
}

var points = map[string]float64{
	LetterA:      4.0,
	LetterAMinus: 3.7,
	LetterBPlus:  3.3,
	LetterB:      3.0,
	LetterBMinus: 2.7,
	LetterCPlus:  2.3,
	LetterC:      2.0,
	LetterCMinus: 1.7,
	LetterF:      0.0,
}

// Letters returns every letter grade from best to worst.
func Letters() []string {
	out := make([]string, 0, len(breakpoints)+1)
	for _, bp := range breakpoints {
		out = append(out, bp.letter)
	}
	return append(out, LetterF)
}

// LetterForPercentage maps a course percentage to its letter grade.
func LetterForPercentage(pct float64) string {
	for _, bp := range breakpoints {
		if pct >= bp.min {
			return bp.letter
		}
	}
	return LetterF
}

// PointsForLetter returns the grade points for a letter; unknown letters score 0.
func PointsForLetter(letter string) float64 {
	return points[letter]
}

// IsKnownLetter reports whether letter is part of the grade table.
func IsKnownLetter(letter string) bool {
	_, ok := points[letter]
	return ok
}

// Passing reports whether a letter earns credit.
func Passing(letter string) bool {
	return IsKnownLetter(letter) && letter != LetterF
}

// Percentage returns awarded/max*100, or 0 when nothing is gradable.
func Percentage(awarded, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return awarded / max * 100
}

// ClampScore bounds a score to [0, max].
func ClampScore(score, max float64) float64 {
	return math.Max(0, math.Min(score, max))
}

// Attempt is one graded course used in GPA weighting.
type Attempt struct {
	Letter      string
	CreditHours int
}

// QualityPoints returns gradePoints x creditHours.
func (a Attempt) QualityPoints() float64 {
	return PointsForLetter(a.Letter) * float64(a.CreditHours)
}

// GPA is the credit-weighted mean of grade points; 0 when there are no credits.
func GPA(attempts []Attempt) float64 {
	var quality float64
	var credits int
	for _, a := range attempts {
		if a.CreditHours <= 0 {
			continue
		}
		quality += a.QualityPoints()
		credits += a.CreditHours
	}
	if credits == 0 {
		return 0
	}
	return quality / float64(credits)
}

// Credits sums the credit hours of the attempts.
func Credits(attempts []Attempt) int {
	total := 0
	for _, a := range attempts {
		if a.CreditHours > 0 {
			total += a.CreditHours
		}
	}
	return total
}

// StandingFor applies the probation/warning rules. Probation wins over warning.
func StandingFor(termGPA, overallGPA float64) Standing {
	switch {
	case overallGPA < StandingThreshold:
		return StandingProbation
	case termGPA < StandingThreshold:
		return StandingWarning
	default:
		return StandingGood
	}
}

// Eligible reports graduation eligibility: enough credits and a passed core course.
func Eligible(creditsCompleted, requiredCredits int, corePassed bool) bool {
	return creditsCompleted >= requiredCredits && corePassed
}

// Round2 rounds to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
