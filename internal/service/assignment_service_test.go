package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
)

func TestCreateAssignmentAuthorization(t *testing.T) {
	f := newLedgerFixture(t)
	off := f.offering(t, "INFO 5100", 4, 10)
	other := f.person(t, models.RoleFaculty, "Alan Turing")
	student := f.student(t, "Alice Smith")
	req := CreateAssignmentRequest{OfferingID: off.ID, Title: "Lab 1", MaxPoints: 20}

	_, err := f.assignments.Create(f.ctx, Actor{ID: other.ID, Role: models.RoleFaculty}, req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = f.assignments.Create(f.ctx, Actor{ID: student.ID, Role: models.RoleStudent}, req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	created, err := f.assignments.Create(f.ctx, f.instructor(), req)
	require.NoError(t, err)
	assert.Equal(t, "ASG-000001", created.ID)
	assert.Empty(t, created.Submissions)

	_, err = f.assignments.Create(f.ctx, Actor{ID: "U-x", Role: models.RoleRegistrar}, req)
	assert.NoError(t, err)

	_, err = f.assignments.Create(f.ctx, f.instructor(), CreateAssignmentRequest{OfferingID: off.ID, Title: "Zero", MaxPoints: 0})
	assert.True(t, appErrors.IsValidation(err))

	_, err = f.assignments.Create(f.ctx, f.instructor(), CreateAssignmentRequest{OfferingID: "OFF-404", Title: "Lost", MaxPoints: 10})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	rows, err := f.assignments.List(f.ctx, f.instructor(), off.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSubmitAndGradeLifecycle(t *testing.T) {
	f := newLedgerFixture(t)
	off := f.offering(t, "INFO 5100", 4, 10)
	alice := f.student(t, "Alice Smith")
	bob := f.student(t, "Bob Jones")
	f.enroll(t, alice.ID, off.ID)
	lab := f.assignment(t, off.ID, "Lab 1", 20)

	_, err := f.assignments.Submit(f.ctx, lab.ID, bob.ID)
	assert.EqualError(t, err, "Student is not enrolled in this course")

	sub, err := f.assignments.Submit(f.ctx, lab.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, sub.State)
	assert.Nil(t, sub.Score)
	assert.Zero(t, sub.Awarded())

	_, err = f.assignments.Grade(f.ctx, f.instructor(), lab.ID, GradeSubmissionRequest{StudentID: alice.ID, Score: 21})
	assert.EqualError(t, err, "Score must be between 0 and 20")
	_, err = f.assignments.Grade(f.ctx, f.instructor(), lab.ID, GradeSubmissionRequest{StudentID: alice.ID, Score: -1})
	assert.True(t, appErrors.IsValidation(err))
	_, err = f.assignments.Grade(f.ctx, f.instructor(), lab.ID, GradeSubmissionRequest{StudentID: alice.ID, Score: math.NaN()})
	assert.True(t, appErrors.IsValidation(err))

	graded, err := f.assignments.Grade(f.ctx, f.instructor(), lab.ID, GradeSubmissionRequest{StudentID: alice.ID, Score: 17})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, graded.State)
	assert.Equal(t, 17.0, graded.Awarded())
	assert.NotNil(t, graded.SubmittedAt)
	assert.NotNil(t, graded.GradedAt)

	_, err = f.assignments.Submit(f.ctx, lab.ID, alice.ID)
	assert.EqualError(t, err, "Assignment has already been graded")

	stored, err := f.assignments.Get(f.ctx, f.instructor(), lab.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, stored.SubmissionFor(alice.ID).State)
	assert.Equal(t, models.SubmissionNotSubmitted, stored.SubmissionFor(bob.ID).State)
}

func TestAssignmentSubmissionsAreScopedToTheCaller(t *testing.T) {
	f := newLedgerFixture(t)
	off := f.offering(t, "INFO 5100", 4, 10)
	alice := f.student(t, "Alice Smith")
	bob := f.student(t, "Bob Jones")
	carol := f.student(t, "Carol White")
	f.enroll(t, alice.ID, off.ID)
	f.enroll(t, bob.ID, off.ID)
	lab := f.assignment(t, off.ID, "Lab 1", 50)
	_, err := f.assignments.Grade(f.ctx, f.instructor(), lab.ID, GradeSubmissionRequest{StudentID: alice.ID, Score: 42})
	require.NoError(t, err)
	_, err = f.assignments.Grade(f.ctx, f.instructor(), lab.ID, GradeSubmissionRequest{StudentID: bob.ID, Score: 30})
	require.NoError(t, err)

	own, err := f.assignments.Get(f.ctx, Actor{ID: bob.ID, Role: models.RoleStudent}, lab.ID)
	require.NoError(t, err)
	assert.Len(t, own.Submissions, 1)
	assert.Equal(t, 30.0, own.SubmissionFor(bob.ID).Awarded())
	assert.Equal(t, models.SubmissionNotSubmitted, own.SubmissionFor(alice.ID).State)

	outsider, err := f.assignments.List(f.ctx, Actor{ID: carol.ID, Role: models.RoleStudent}, off.ID)
	require.NoError(t, err)
	require.Len(t, outsider, 1)
	assert.Empty(t, outsider[0].Submissions)

	other := f.person(t, models.RoleFaculty, "Alan Turing")
	foreign, err := f.assignments.Get(f.ctx, Actor{ID: other.ID, Role: models.RoleFaculty}, lab.ID)
	require.NoError(t, err)
	assert.Empty(t, foreign.Submissions)

	full, err := f.assignments.Get(f.ctx, Actor{ID: "U-x", Role: models.RoleRegistrar}, lab.ID)
	require.NoError(t, err)
	assert.Len(t, full.Submissions, 2)

	// the stored assignment keeps every submission
	stored, err := f.assignments.Get(f.ctx, f.instructor(), lab.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, stored.SubmissionFor(alice.ID).Awarded())
}

func TestWithScoreLeavesInputUntouched(t *testing.T) {
	at := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	input := map[string]models.Submission{"U-1": {StudentID: "U-1", State: models.SubmissionSubmitted}}

	out := WithScore(input, "U-1", 150, 100, at)
	assert.Equal(t, models.SubmissionSubmitted, input["U-1"].State)
	assert.Nil(t, input["U-1"].Score)
	require.NotNil(t, out["U-1"].Score)
	assert.Equal(t, 100.0, *out["U-1"].Score)

	out = WithScore(out, "U-2", -5, 100, at)
	assert.Equal(t, 0.0, out["U-2"].Awarded())
	assert.Equal(t, models.SubmissionGraded, out["U-2"].State)
	assert.Len(t, input, 1)
}
