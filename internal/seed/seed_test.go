package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	"github.com/noah-isme/campus-ledger-api/pkg/config"
)

const fixtureYAML = `
departments:
  - name: Information Systems
people:
  - role: REGISTRAR
    name: Rita Registrar
    email: rita@campus.test
    password: secret123
  - role: FACULTY
    name: Grace Hopper
    email: grace@campus.test
    password: secret123
    department: Information Systems
  - role: STUDENT
    name: Alice Liddell
    email: alice@campus.test
    password: secret123
    department: Information Systems
    program: MSIS
courses:
  - id: INFO 5100
    title: Application Engineering
    credit_hours: 4
    department: Information Systems
    core_required: true
semesters:
  - term: Fall
    year: 2025
    start: 2025-09-01T00:00:00Z
    end: 2025-12-20T00:00:00Z
    active: true
offerings:
  - key: info5100-fall
    course: INFO 5100
    semester: FALL-2025
    instructor: grace@campus.test
    capacity: 30
enrollments:
  - student: alice@campus.test
    offering: info5100-fall
    paid: true
`

func newLoader() (*Loader, *repository.Directory) {
	dir := repository.NewDirectory()
	accounts := service.NewAccountService(dir, nil, nil).WithHashCost(bcrypt.MinCost)
	catalog := service.NewCatalogService(dir, nil, nil)
	ledger := service.NewEnrollmentService(dir, config.DefaultLedger(), nil, nil, nil)
	return NewLoader(accounts, catalog, ledger, nil), dir
}

func TestApplyFixture(t *testing.T) {
	fx, err := Parse(strings.NewReader(fixtureYAML))
	require.NoError(t, err)

	loader, dir := newLoader()
	sum, err := loader.Apply(context.Background(), fx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Departments: 1, People: 3, Courses: 1, Semesters: 1, Offerings: 1, Enrollments: 1, Payments: 1}, *sum)

	counts := dir.Snapshot()
	assert.Equal(t, 3, counts.People)
	assert.Equal(t, 1, counts.Enrollments)
	assert.Equal(t, 1, counts.Payments)

	dir.View(func(r repository.Reader) {
		students := r.ListPeople(models.RoleStudent)
		require.Len(t, students, 1)
		assert.Equal(t, 0.0, students[0].Student.AccountBalance)
	})
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("departments:\n  - title: Oops\n"))
	require.Error(t, err)
}

func TestApplyReportsUnknownReferences(t *testing.T) {
	fx := &Fixture{
		Offerings: []Offering{{Key: "x", Course: "INFO 5100", Semester: "FALL-2025", Instructor: "nobody@campus.test", Capacity: 10}},
	}
	loader, _ := newLoader()
	_, err := loader.Apply(context.Background(), fx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown instructor "nobody@campus.test"`)
}

func TestApplyStopsOnLedgerRejection(t *testing.T) {
	fx, err := Parse(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	fx.Enrollments = append(fx.Enrollments, Enrollment{Student: "alice@campus.test", Offering: "info5100-fall"})

	loader, _ := newLoader()
	_, err = loader.Apply(context.Background(), fx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Already enrolled in this course")
}
