// Package seed loads a YAML fixture into an empty directory through the public
// services, so seeded data passes the same validation as API traffic.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/service"
)

// Fixture is the YAML document. People, offerings and enrollments refer to
// each other by email, department name and offering key because ids are
// generated on insert.
type Fixture struct {
	Departments []Department `yaml:"departments"`
	People      []Person     `yaml:"people"`
	Courses     []Course     `yaml:"courses"`
	Semesters   []Semester   `yaml:"semesters"`
	Offerings   []Offering   `yaml:"offerings"`
	Enrollments []Enrollment `yaml:"enrollments"`
}

type Department struct {
	Name string `yaml:"name"`
}

type Person struct {
	Role        models.UserRole `yaml:"role"`
	Name        string          `yaml:"name"`
	Email       string          `yaml:"email"`
	Password    string          `yaml:"password"`
	Phone       string          `yaml:"phone"`
	Address     string          `yaml:"address"`
	Office      string          `yaml:"office"`
	Department  string          `yaml:"department"`
	Program     string          `yaml:"program"`
	Title       string          `yaml:"title"`
	OfficeHours string          `yaml:"office_hours"`
}

type Course struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	CreditHours  int    `yaml:"credit_hours"`
	Department   string `yaml:"department"`
	CoreRequired bool   `yaml:"core_required"`
}

type Semester struct {
	Term   models.Term `yaml:"term"`
	Year   int         `yaml:"year"`
	Start  time.Time   `yaml:"start"`
	End    time.Time   `yaml:"end"`
	Active bool        `yaml:"active"`
}

type Offering struct {
	Key        string `yaml:"key"`
	Course     string `yaml:"course"`
	Semester   string `yaml:"semester"`
	Instructor string `yaml:"instructor"`
	Schedule   string `yaml:"schedule"`
	Room       string `yaml:"room"`
	Capacity   int    `yaml:"capacity"`
	Closed     bool   `yaml:"closed"`
	Syllabus   string `yaml:"syllabus"`
}

type Enrollment struct {
	Student  string `yaml:"student"`
	Offering string `yaml:"offering"`
	Paid     bool   `yaml:"paid"`
}

// Summary counts what Apply created.
type Summary struct {
	Departments int
	People      int
	Courses     int
	Semesters   int
	Offerings   int
	Enrollments int
	Payments    int
}

// Parse decodes a fixture, rejecting unknown keys.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fx Fixture
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &fx, nil
}

// LoadFile parses the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Loader applies fixtures through the services.
type Loader struct {
	accounts *service.AccountService
	catalog  *service.CatalogService
	ledger   *service.EnrollmentService
	logger   *zap.Logger
}

// NewLoader constructs a Loader.
func NewLoader(accounts *service.AccountService, catalog *service.CatalogService, ledger *service.EnrollmentService, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{accounts: accounts, catalog: catalog, ledger: ledger, logger: logger}
}

// Apply inserts the fixture in dependency order and stops at the first error.
func (l *Loader) Apply(ctx context.Context, fx *Fixture) (*Summary, error) {
	var (
		sum         Summary
		departments = map[string]string{}
		people      = map[string]string{}
		offerings   = map[string]string{}
	)

	for _, d := range fx.Departments {
		dept, err := l.catalog.CreateDepartment(ctx, service.CreateDepartmentRequest{Name: d.Name})
		if err != nil {
			return nil, fmt.Errorf("department %q: %w", d.Name, err)
		}
		departments[d.Name] = dept.ID
		sum.Departments++
	}

	for _, p := range fx.People {
		deptID, err := lookup(departments, p.Department, "department")
		if err != nil {
			return nil, fmt.Errorf("person %q: %w", p.Email, err)
		}
		person, err := l.accounts.Register(ctx, service.RegisterRequest{
			Role:         p.Role,
			Name:         p.Name,
			Email:        p.Email,
			Password:     p.Password,
			Phone:        p.Phone,
			Address:      p.Address,
			Office:       p.Office,
			DepartmentID: deptID,
			Program:      p.Program,
			Title:        p.Title,
			OfficeHours:  p.OfficeHours,
		})
		if err != nil {
			return nil, fmt.Errorf("person %q: %w", p.Email, err)
		}
		people[p.Email] = person.ID
		sum.People++
	}

	for _, c := range fx.Courses {
		deptID, err := lookup(departments, c.Department, "department")
		if err != nil {
			return nil, fmt.Errorf("course %q: %w", c.ID, err)
		}
		if _, err := l.catalog.CreateCourse(ctx, service.CreateCourseRequest{
			ID:           c.ID,
			Title:        c.Title,
			Description:  c.Description,
			CreditHours:  c.CreditHours,
			DepartmentID: deptID,
			CoreRequired: c.CoreRequired,
		}); err != nil {
			return nil, fmt.Errorf("course %q: %w", c.ID, err)
		}
		sum.Courses++
	}

	for _, s := range fx.Semesters {
		if _, err := l.catalog.CreateSemester(ctx, service.CreateSemesterRequest{
			Term:      s.Term,
			Year:      s.Year,
			StartDate: s.Start,
			EndDate:   s.End,
			Active:    s.Active,
		}); err != nil {
			return nil, fmt.Errorf("semester %s %d: %w", s.Term, s.Year, err)
		}
		sum.Semesters++
	}

	for _, o := range fx.Offerings {
		if o.Key == "" {
			return nil, fmt.Errorf("offering of %q: key is required", o.Course)
		}
		instructorID, err := lookup(people, o.Instructor, "instructor")
		if err != nil {
			return nil, fmt.Errorf("offering %q: %w", o.Key, err)
		}
		open := !o.Closed
		offering, err := l.catalog.CreateOffering(ctx, service.CreateOfferingRequest{
			CourseID:       o.Course,
			SemesterID:     o.Semester,
			InstructorID:   instructorID,
			Schedule:       o.Schedule,
			Room:           o.Room,
			Capacity:       o.Capacity,
			EnrollmentOpen: &open,
			Syllabus:       o.Syllabus,
		})
		if err != nil {
			return nil, fmt.Errorf("offering %q: %w", o.Key, err)
		}
		offerings[o.Key] = offering.ID
		sum.Offerings++
	}

	for _, e := range fx.Enrollments {
		studentID, err := lookup(people, e.Student, "student")
		if err != nil {
			return nil, fmt.Errorf("enrollment: %w", err)
		}
		offeringID, err := lookup(offerings, e.Offering, "offering")
		if err != nil {
			return nil, fmt.Errorf("enrollment of %q: %w", e.Student, err)
		}
		enrollment, err := l.ledger.Enroll(ctx, service.EnrollRequest{StudentID: studentID, OfferingID: offeringID})
		if err != nil {
			return nil, fmt.Errorf("enroll %q in %q: %w", e.Student, e.Offering, err)
		}
		sum.Enrollments++
		if !e.Paid {
			continue
		}
		if _, err := l.ledger.Pay(ctx, service.PayRequest{StudentID: studentID, EnrollmentID: enrollment.ID}); err != nil {
			return nil, fmt.Errorf("pay %q for %q: %w", e.Student, e.Offering, err)
		}
		sum.Payments++
	}

	l.logger.Info("seed applied",
		zap.Int("departments", sum.Departments),
		zap.Int("people", sum.People),
		zap.Int("courses", sum.Courses),
		zap.Int("offerings", sum.Offerings),
		zap.Int("enrollments", sum.Enrollments),
	)
	return &sum, nil
}

// lookup resolves an optional reference; an empty key resolves to "".
func lookup(index map[string]string, key, what string) (string, error) {
	if key == "" {
		return "", nil
	}
	id, ok := index[key]
	if !ok {
		return "", fmt.Errorf("unknown %s %q", what, key)
	}
	return id, nil
}
