package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	"github.com/noah-isme/campus-ledger-api/pkg/config"
)

type ledgerFixture struct {
	ctx         context.Context
	dir         *repository.Directory
	rules       config.LedgerConfig
	metrics     *MetricsService
	accounts    *AccountService
	catalog     *CatalogService
	ledger      *EnrollmentService
	grades      *GradeService
	assignments *AssignmentService
	reports     *ReportService
	dept        models.Department
	faculty     models.Person
	semester    models.Semester
	clock       time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{ctx: context.Background(), rules: config.DefaultLedger(), clock: time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)}
	f.dir = repository.NewDirectory(repository.WithClock(func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}))
	f.metrics = NewMetricsService()
	f.accounts = NewAccountService(f.dir, nil, nil).WithHashCost(bcrypt.MinCost).WithMetrics(f.metrics)
	f.catalog = NewCatalogService(f.dir, nil, nil)
	f.ledger = NewEnrollmentService(f.dir, f.rules, f.metrics, nil, nil)
	f.grades = NewGradeService(f.dir, f.rules, nil)
	f.assignments = NewAssignmentService(f.dir, nil, nil)
	f.reports = NewReportService(f.dir, nil)

	dept, err := f.catalog.CreateDepartment(f.ctx, CreateDepartmentRequest{Name: "Information Systems"})
	require.NoError(t, err)
	f.dept = *dept
	f.faculty = f.person(t, models.RoleFaculty, "Grace Hopper")
	f.semester = f.newSemester(t, models.TermFall, 2025, true)
	return f
}

func (f *ledgerFixture) person(t *testing.T, role models.UserRole, name string) models.Person {
	t.Helper()
	p, err := f.accounts.Register(f.ctx, RegisterRequest{
		Role:         role,
		Name:         name,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@campus.test",
		Password:     "secret123",
		DepartmentID: f.dept.ID,
		Program:      "MSIS",
	})
	require.NoError(t, err)
	return *p
}

func (f *ledgerFixture) student(t *testing.T, name string) models.Person {
	return f.person(t, models.RoleStudent, name)
}

func (f *ledgerFixture) newSemester(t *testing.T, term models.Term, year int, active bool) models.Semester {
	t.Helper()
	start := time.Date(year, 9, 1, 0, 0, 0, 0, time.UTC)
	if term == models.TermSpring {
		start = time.Date(year, 1, 10, 0, 0, 0, 0, time.UTC)
	}
	sem, err := f.catalog.CreateSemester(f.ctx, CreateSemesterRequest{
		Term: term, Year: year, StartDate: start, EndDate: start.AddDate(0, 4, 0), Active: active,
	})
	require.NoError(t, err)
	return *sem
}

func (f *ledgerFixture) course(t *testing.T, id string, credits int) models.Course {
	t.Helper()
	c, err := f.catalog.CreateCourse(f.ctx, CreateCourseRequest{ID: id, Title: "Course " + id, CreditHours: credits, DepartmentID: f.dept.ID})
	require.NoError(t, err)
	return *c
}

// offering creates a course with the given credits and schedules it in the fixture semester.
func (f *ledgerFixture) offering(t *testing.T, courseID string, credits, capacity int) models.OfferingDetail {
	t.Helper()
	return f.offeringIn(t, f.semester.ID, courseID, credits, capacity)
}

func (f *ledgerFixture) offeringIn(t *testing.T, semesterID, courseID string, credits, capacity int) models.OfferingDetail {
	t.Helper()
	if _, err := f.catalog.GetCourse(f.ctx, courseID); err != nil {
		f.course(t, courseID, credits)
	}
	o, err := f.catalog.CreateOffering(f.ctx, CreateOfferingRequest{
		CourseID: courseID, SemesterID: semesterID, InstructorID: f.faculty.ID, Capacity: capacity,
	})
	require.NoError(t, err)
	return *o
}

func (f *ledgerFixture) enroll(t *testing.T, studentID, offeringID string) models.Enrollment {
	t.Helper()
	e, err := f.ledger.Enroll(f.ctx, EnrollRequest{StudentID: studentID, OfferingID: offeringID})
	require.NoError(t, err)
	return *e
}

func (f *ledgerFixture) instructor() Actor {
	return Actor{ID: f.faculty.ID, Role: models.RoleFaculty}
}

// complete enrolls the student, records a single graded assignment worth pct
// percent and finalizes the grade.
func (f *ledgerFixture) complete(t *testing.T, studentID, offeringID string, pct float64) models.Enrollment {
	t.Helper()
	if _, err := f.ledger.Enroll(f.ctx, EnrollRequest{StudentID: studentID, OfferingID: offeringID}); err != nil {
		require.Contains(t, err.Error(), "Already enrolled")
	}
	a := f.assignment(t, offeringID, fmt.Sprintf("Final %s", studentID), 100)
	_, err := f.assignments.Grade(f.ctx, f.instructor(), a.ID, GradeSubmissionRequest{StudentID: studentID, Score: pct})
	require.NoError(t, err)
	e, err := f.ledger.AssignFinalGrade(f.ctx, FinalGradeRequest{StudentID: studentID, OfferingID: offeringID})
	require.NoError(t, err)
	return *e
}

func (f *ledgerFixture) assignment(t *testing.T, offeringID, title string, max float64) models.Assignment {
	t.Helper()
	a, err := f.assignments.Create(f.ctx, f.instructor(), CreateAssignmentRequest{OfferingID: offeringID, Title: title, MaxPoints: max})
	require.NoError(t, err)
	return *a
}

func (f *ledgerFixture) reload(t *testing.T, id string) models.Person {
	t.Helper()
	p, err := f.accounts.Get(f.ctx, id)
	require.NoError(t, err)
	return *p
}

func (f *ledgerFixture) balance(t *testing.T, id string) float64 {
	t.Helper()
	return f.reload(t, id).Student.AccountBalance
}

func (f *ledgerFixture) seats(t *testing.T, offeringID string) int {
	t.Helper()
	o, err := f.catalog.GetOffering(f.ctx, offeringID)
	require.NoError(t, err)
	return o.CurrentEnrollment
}
