package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
)

func TestActivateSemesterKeepsExactlyOneActive(t *testing.T) {
	f := newLedgerFixture(t)
	spring := f.newSemester(t, models.TermSpring, 2026, false)

	_, err := f.catalog.ActivateSemester(f.ctx, spring.ID)
	require.NoError(t, err)

	active := 0
	for _, sem := range f.catalog.ListSemesters(f.ctx) {
		if sem.Active {
			active++
			assert.Equal(t, "SPRING-2026", sem.ID)
		}
	}
	assert.Equal(t, 1, active)

	_, err = f.catalog.ActivateSemester(f.ctx, "WINTER-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.catalog.CreateSemester(f.ctx, CreateSemesterRequest{Term: models.TermSpring, Year: 2026})
	assert.EqualError(t, err, "semester Spring 2026 already exists")
}

func TestCourseAndDepartmentUniqueness(t *testing.T) {
	f := newLedgerFixture(t)
	f.course(t, "INFO 5100", 4)

	_, err := f.catalog.CreateCourse(f.ctx, CreateCourseRequest{ID: "INFO 5100", Title: "Again", CreditHours: 4})
	assert.EqualError(t, err, "course INFO 5100 already exists")

	_, err = f.catalog.CreateCourse(f.ctx, CreateCourseRequest{ID: "INFO 0", Title: "Zero", CreditHours: 0})
	assert.True(t, appErrors.IsValidation(err))

	_, err = f.catalog.CreateDepartment(f.ctx, CreateDepartmentRequest{Name: "information systems"})
	assert.True(t, appErrors.IsValidation(err))

	members, err := f.catalog.DepartmentMembers(f.ctx, f.dept.ID)
	require.NoError(t, err)
	assert.Len(t, members.Faculty, 1)
	assert.Empty(t, members.Students)
}

func TestUpdateCapacity(t *testing.T) {
	f := newLedgerFixture(t)
	off := f.offering(t, "INFO 5100", 4, 5)
	f.enroll(t, f.student(t, "Alice Smith").ID, off.ID)
	f.enroll(t, f.student(t, "Bob Jones").ID, off.ID)

	_, err := f.catalog.UpdateCapacity(f.ctx, off.ID, 1)
	assert.EqualError(t, err, "Capacity 1 is below the 2 students already enrolled")

	detail, err := f.catalog.UpdateCapacity(f.ctx, off.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.Capacity)
	assert.True(t, detail.IsFull())

	_, err = f.catalog.UpdateCapacity(f.ctx, off.ID, 0)
	assert.True(t, appErrors.IsValidation(err))
}

func TestOfferingManagement(t *testing.T) {
	f := newLedgerFixture(t)
	open := f.offering(t, "INFO 5100", 4, 5)
	closed := f.offering(t, "INFO 6150", 4, 5)
	assert.Equal(t, "Fall 2025", open.SemesterLabel)
	assert.Equal(t, "Grace Hopper", open.InstructorName)
	assert.True(t, open.EnrollmentOpen)

	_, err := f.catalog.SetEnrollmentOpen(f.ctx, closed.ID, false)
	require.NoError(t, err)

	listed := f.catalog.ListOfferings(f.ctx, models.OfferingFilter{SemesterID: f.semester.ID, OpenOnly: true})
	require.Len(t, listed, 1)
	assert.Equal(t, open.ID, listed[0].ID)

	student := f.student(t, "Alice Smith")
	_, err = f.catalog.AssignInstructor(f.ctx, open.ID, student.ID)
	assert.EqualError(t, err, student.ID+" is not a faculty member")

	turing := f.person(t, models.RoleFaculty, "Alan Turing")
	moved, err := f.catalog.AssignInstructor(f.ctx, open.ID, turing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alan Turing", moved.InstructorName)
	assert.Len(t, f.catalog.ListOfferings(f.ctx, models.OfferingFilter{InstructorID: f.faculty.ID}), 1)
	assert.Len(t, f.catalog.ListOfferings(f.ctx, models.OfferingFilter{InstructorID: turing.ID}), 1)

	f.enroll(t, student.ID, open.ID)
	roster, err := f.catalog.Roster(f.ctx, open.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, student.ID, roster[0].ID)

	_, err = f.catalog.CreateOffering(f.ctx, CreateOfferingRequest{CourseID: "NOPE", SemesterID: f.semester.ID, Capacity: 1})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
