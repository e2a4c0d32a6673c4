package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/pkg/config"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/grading"
)

func TestGPAIsCreditWeighted(t *testing.T) {
	f := newLedgerFixture(t)
	alice := f.student(t, "Alice Smith")
	f.complete(t, alice.ID, f.offering(t, "INFO 5100", 4, 10).ID, 95)
	f.complete(t, alice.ID, f.offering(t, "INFO 6105", 2, 10).ID, 75)

	term, err := f.grades.TermGPA(f.ctx, alice.ID, f.semester.ID)
	require.NoError(t, err)
	assert.InDelta(t, 20.0/6.0, term, 1e-9)

	overall, err := f.grades.OverallGPA(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.InDelta(t, term, overall, 1e-9)

	_, err = f.grades.TermGPA(f.ctx, alice.ID, "WINTER-1999")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = f.grades.OverallGPA(f.ctx, f.faculty.ID)
	assert.True(t, appErrors.IsValidation(err))
}

func TestStandingRules(t *testing.T) {
	f := newLedgerFixture(t)
	spring := f.newSemester(t, models.TermSpring, 2025, false)

	t.Run("term below threshold is a warning", func(t *testing.T) {
		alice := f.student(t, "Alice Smith")
		f.complete(t, alice.ID, f.offeringIn(t, spring.ID, "INFO 6105", 4, 10).ID, 96)
		f.complete(t, alice.ID, f.offeringIn(t, spring.ID, "INFO 6150", 4, 10).ID, 96)
		f.complete(t, alice.ID, f.offering(t, "INFO 6205", 2, 10).ID, 75)

		student := f.reload(t, alice.ID)
		assert.InDelta(t, 3.6, student.Student.OverallGPA, 1e-9)
		assert.Equal(t, grading.StandingWarning, student.Student.Standing)
		assert.Equal(t, 10, student.Student.CreditsCompleted)
	})

	t.Run("overall below threshold is probation", func(t *testing.T) {
		bob := f.student(t, "Bob Jones")
		f.complete(t, bob.ID, f.offering(t, "INFO 6105", 4, 10).ID, 75)
		assert.Equal(t, grading.StandingProbation, f.reload(t, bob.ID).Student.Standing)
	})

	t.Run("no graded credits keeps good standing", func(t *testing.T) {
		carol := f.student(t, "Carol White")
		record, err := f.grades.RefreshAcademicRecord(f.ctx, carol.ID, "")
		require.NoError(t, err)
		assert.Equal(t, grading.StandingGood, record.Standing)
		assert.Zero(t, record.OverallGPA)
		assert.Equal(t, f.semester.ID, record.SemesterID)
	})

	t.Run("term without graded credits counts as zero term gpa", func(t *testing.T) {
		dan := f.student(t, "Dan Brown")
		f.complete(t, dan.ID, f.offeringIn(t, spring.ID, "INFO 5100", 4, 10).ID, 99)
		record, err := f.grades.RefreshAcademicRecord(f.ctx, dan.ID, f.semester.ID)
		require.NoError(t, err)
		assert.Zero(t, record.TermGPA)
		assert.Equal(t, 4.0, record.OverallGPA)
		assert.Equal(t, grading.StandingWarning, record.Standing)
		assert.Equal(t, grading.StandingFor(record.TermGPA, record.OverallGPA), record.Standing)
	})
}

func TestRefreshAcademicRecordIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	alice := f.student(t, "Alice Smith")
	f.complete(t, alice.ID, f.offering(t, "INFO 5100", 4, 10).ID, 88)
	before := f.reload(t, alice.ID)

	first, err := f.grades.RefreshAcademicRecord(f.ctx, alice.ID, "")
	require.NoError(t, err)
	second, err := f.grades.RefreshAcademicRecord(f.ctx, alice.ID, "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, f.reload(t, alice.ID))

	_, err = f.grades.RefreshAcademicRecord(f.ctx, alice.ID, "NOPE-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestGraduationStatus(t *testing.T) {
	f := newLedgerFixture(t)
	spring := f.newSemester(t, models.TermSpring, 2025, false)
	rules := config.DefaultLedger()
	rules.GraduationCredits = 8
	grades := NewGradeService(f.dir, rules, nil)

	alice := f.student(t, "Alice Smith")
	f.complete(t, alice.ID, f.offeringIn(t, spring.ID, "INFO 6105", 4, 10).ID, 95)
	f.complete(t, alice.ID, f.offeringIn(t, spring.ID, "INFO 6150", 4, 10).ID, 95)

	status, err := grades.GraduationStatus(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, status.CreditsCompleted)
	assert.False(t, status.CoreCoursePassed)
	assert.False(t, status.Eligible)
	assert.Equal(t, 0, status.CreditsRemaining)

	f.complete(t, alice.ID, f.offering(t, "INFO 5100", 4, 10).ID, 40)
	status, err = grades.GraduationStatus(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, status.CoreCoursePassed, "an F does not satisfy the core requirement")
	assert.False(t, status.Eligible)

	bob := f.student(t, "Bob Jones")
	f.complete(t, bob.ID, f.offeringIn(t, spring.ID, "INFO 5100", 4, 10).ID, 85)
	f.complete(t, bob.ID, f.offeringIn(t, spring.ID, "INFO 6105", 4, 10).ID, 85)
	status, err = grades.GraduationStatus(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, status.Eligible)

	status, err = f.grades.GraduationStatus(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, status.Eligible)
	assert.Equal(t, 32, status.CreditsRequired)
	assert.Equal(t, 24, status.CreditsRemaining)
}

func TestTranscriptGroupsTermsChronologically(t *testing.T) {
	f := newLedgerFixture(t)
	spring := f.newSemester(t, models.TermSpring, 2025, false)
	alice := f.student(t, "Alice Smith")

	f.complete(t, alice.ID, f.offering(t, "INFO 5100", 4, 10).ID, 91)
	f.complete(t, alice.ID, f.offeringIn(t, spring.ID, "INFO 6105", 2, 10).ID, 84)
	dropped := f.enroll(t, alice.ID, f.offering(t, "INFO 6150", 2, 10).ID)
	_, err := f.ledger.Drop(f.ctx, dropped.ID)
	require.NoError(t, err)
	f.enroll(t, alice.ID, f.offering(t, "INFO 6205", 2, 10).ID)

	transcript, err := f.grades.Transcript(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", transcript.StudentName)
	require.Len(t, transcript.Terms, 2)

	assert.Equal(t, "Spring 2025", transcript.Terms[0].Label)
	assert.Equal(t, 3.0, transcript.Terms[0].TermGPA)

	fall := transcript.Terms[1]
	assert.Equal(t, "Fall 2025", fall.Label)
	require.Len(t, fall.Lines, 2)
	assert.Equal(t, grading.LetterAMinus, fall.Lines[0].Grade)
	assert.Equal(t, "Course INFO 5100", fall.Lines[0].CourseTitle)
	assert.Equal(t, models.EnrollmentStatusActive, fall.Lines[1].Status)
	assert.Empty(t, fall.Lines[1].Grade)
	assert.Equal(t, 3.7, fall.TermGPA)

	assert.Equal(t, grading.Round2((3.7*4+3.0*2)/6), transcript.OverallGPA)
	assert.Equal(t, 6, transcript.CreditsCompleted)
}

func TestCoursePercentageAndAverage(t *testing.T) {
	f := newLedgerFixture(t)
	alice := f.student(t, "Alice Smith")
	bob := f.student(t, "Bob Jones")
	off := f.offering(t, "INFO 5100", 4, 10)
	f.enroll(t, alice.ID, off.ID)
	f.enroll(t, bob.ID, off.ID)

	quiz := f.assignment(t, off.ID, "Quiz", 100)
	f.assignment(t, off.ID, "Essay", 100)
	_, err := f.assignments.Grade(f.ctx, f.instructor(), quiz.ID, GradeSubmissionRequest{StudentID: alice.ID, Score: 80})
	require.NoError(t, err)
	_, err = f.assignments.Grade(f.ctx, f.instructor(), quiz.ID, GradeSubmissionRequest{StudentID: bob.ID, Score: 100})
	require.NoError(t, err)

	pct, err := f.grades.CoursePercentage(f.ctx, alice.ID, off.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, pct)

	avg, err := f.grades.CourseAverage(f.ctx, off.ID)
	require.NoError(t, err)
	assert.Equal(t, 45.0, avg)

	_, err = f.grades.CourseAverage(f.ctx, "OFF-404")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
