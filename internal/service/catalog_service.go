package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
)

// CreateDepartmentRequest names a new department.
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateCourseRequest adds a catalog entry under a human-readable id such as "INFO 5100".
type CreateCourseRequest struct {
	ID           string `json:"id" validate:"required,max=32"`
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description"`
	CreditHours  int    `json:"credit_hours" validate:"gt=0,lte=8"`
	DepartmentID string `json:"department_id"`
	CoreRequired bool   `json:"core_required"`
}

// CreateSemesterRequest describes a semester.
type CreateSemesterRequest struct {
	Term      models.Term `json:"term" validate:"required,oneof=Fall Spring Summer"`
	Year      int         `json:"year" validate:"gte=1900,lte=2999"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Active    bool        `json:"active"`
}

// CreateOfferingRequest schedules a course in a semester.
type CreateOfferingRequest struct {
	CourseID       string `json:"course_id" validate:"required"`
	SemesterID     string `json:"semester_id" validate:"required"`
	InstructorID   string `json:"instructor_id"`
	Schedule       string `json:"schedule"`
	Room           string `json:"room"`
	Capacity       int    `json:"capacity" validate:"gt=0"`
	EnrollmentOpen *bool  `json:"enrollment_open"`
	Syllabus       string `json:"syllabus"`
}

// CatalogService manages departments, courses, semesters and offerings.
type CatalogService struct {
	dir       directoryStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(dir directoryStore, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{dir: dir, validator: validate, logger: logger}
}

// CreateDepartment adds a department.
func (s *CatalogService) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid department payload")
	}
	var dept models.Department
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		name := strings.TrimSpace(req.Name)
		for _, d := range tx.ListDepartments() {
			if strings.EqualFold(d.Name, name) {
				return appErrors.Validation("department %q already exists", name)
			}
		}
		dept = models.Department{ID: tx.GenerateID(repository.KindDepartment), Name: name}
		if !tx.AddDepartment(dept) {
			return invariant("department %s already exists", dept.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("department created", zap.String("department_id", dept.ID))
	return &dept, nil
}

// ListDepartments returns every department.
func (s *CatalogService) ListDepartments(ctx context.Context) []models.Department {
	var rows []models.Department
	s.dir.View(func(r repository.Reader) { rows = r.ListDepartments() })
	return rows
}

// DepartmentMembers lists faculty and students of a department.
func (s *CatalogService) DepartmentMembers(ctx context.Context, id string) (*models.DepartmentMembers, error) {
	var (
		members models.DepartmentMembers
		ok      bool
	)
	s.dir.View(func(r repository.Reader) {
		if members.Department, ok = r.FindDepartment(id); ok {
			members.Faculty, members.Students = r.DepartmentMembers(id)
		}
	})
	if !ok {
		return nil, appErrors.NotFound("department")
	}
	return &members, nil
}

// CreateCourse adds a course to the catalog.
func (s *CatalogService) CreateCourse(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid course payload")
	}
	course := models.Course{
		ID:           strings.TrimSpace(req.ID),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		CreditHours:  req.CreditHours,
		DepartmentID: req.DepartmentID,
		CoreRequired: req.CoreRequired,
	}
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		if course.DepartmentID != "" {
			if _, ok := tx.FindDepartment(course.DepartmentID); !ok {
				return appErrors.NotFound("department")
			}
		}
		if !tx.AddCourse(course) {
			return appErrors.Validation("course %s already exists", course.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("course created", zap.String("course_id", course.ID))
	return &course, nil
}

// ListCourses returns the catalog.
func (s *CatalogService) ListCourses(ctx context.Context) []models.Course {
	var rows []models.Course
	s.dir.View(func(r repository.Reader) { rows = r.ListCourses() })
	return rows
}

// GetCourse fetches one course.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var (
		course models.Course
		ok     bool
	)
	s.dir.View(func(r repository.Reader) { course, ok = r.FindCourse(id) })
	if !ok {
		return nil, appErrors.NotFound("course")
	}
	return &course, nil
}

// CreateSemester adds a semester identified as "<TERM>-<YEAR>", e.g. "FALL-2025".
func (s *CatalogService) CreateSemester(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid semester payload")
	}
	if !req.StartDate.IsZero() && !req.EndDate.IsZero() && !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Validation("semester must end after it starts")
	}
	sem := models.Semester{
		ID:        SemesterID(req.Term, req.Year),
		Term:      req.Term,
		Year:      req.Year,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		if !tx.AddSemester(sem) {
			return appErrors.Validation("semester %s already exists", sem.Label())
		}
		if req.Active {
			return activate(tx, sem.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sem.Active = req.Active
	s.logger.Info("semester created", zap.String("semester_id", sem.ID))
	return &sem, nil
}

// SemesterID builds the identifier of a term/year pair.
func SemesterID(term models.Term, year int) string {
	return fmt.Sprintf("%s-%d", strings.ToUpper(string(term)), year)
}

// ActivateSemester marks one semester active and every other inactive.
func (s *CatalogService) ActivateSemester(ctx context.Context, id string) (*models.Semester, error) {
	var sem models.Semester
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		if err := activate(tx, id); err != nil {
			return err
		}
		sem, _ = tx.FindSemester(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("semester activated", zap.String("semester_id", id))
	return &sem, nil
}

// ListSemesters returns every semester.
func (s *CatalogService) ListSemesters(ctx context.Context) []models.Semester {
	var rows []models.Semester
	s.dir.View(func(r repository.Reader) { rows = r.ListSemesters() })
	return rows
}

// CreateOffering schedules a course in a semester. Enrollment is open unless stated otherwise.
func (s *CatalogService) CreateOffering(ctx context.Context, req CreateOfferingRequest) (*models.OfferingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid offering payload")
	}
	var detail models.OfferingDetail
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		if _, ok := tx.FindCourse(req.CourseID); !ok {
			return appErrors.NotFound("course")
		}
		if _, ok := tx.FindSemester(req.SemesterID); !ok {
			return appErrors.NotFound("semester")
		}
		if req.InstructorID != "" {
			if err := requireFaculty(tx, req.InstructorID); err != nil {
				return err
			}
		}
		open := true
		if req.EnrollmentOpen != nil {
			open = *req.EnrollmentOpen
		}
		offering := models.CourseOffering{
			ID:             tx.GenerateID(repository.KindOffering),
			CourseID:       req.CourseID,
			SemesterID:     req.SemesterID,
			InstructorID:   req.InstructorID,
			Schedule:       req.Schedule,
			Room:           req.Room,
			Capacity:       req.Capacity,
			EnrollmentOpen: open,
			Syllabus:       req.Syllabus,
		}
		if !tx.AddOffering(offering) {
			return invariant("offering %s already exists", offering.ID)
		}
		detail = offeringDetail(tx, offering)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("offering created", zap.String("offering_id", detail.ID), zap.String("course_id", detail.CourseID))
	return &detail, nil
}

// GetOffering returns one offering with its course, semester and instructor names.
func (s *CatalogService) GetOffering(ctx context.Context, id string) (*models.OfferingDetail, error) {
	var (
		detail models.OfferingDetail
		ok     bool
	)
	s.dir.View(func(r repository.Reader) {
		var offering models.CourseOffering
		if offering, ok = r.FindOffering(id); ok {
			detail = offeringDetail(r, offering)
		}
	})
	if !ok {
		return nil, appErrors.NotFound("course offering")
	}
	return &detail, nil
}

// ListOfferings returns offerings narrowed by semester, course, instructor and openness.
func (s *CatalogService) ListOfferings(ctx context.Context, filter models.OfferingFilter) []models.OfferingDetail {
	rows := make([]models.OfferingDetail, 0)
	s.dir.View(func(r repository.Reader) {
		var offerings []models.CourseOffering
		switch {
		case filter.InstructorID != "":
			offerings = r.OfferingsByInstructor(filter.InstructorID)
		case filter.SemesterID != "":
			offerings = r.FindCourseOfferingsBySemester(filter.SemesterID)
		default:
			offerings = r.ListOfferings()
		}
		for _, o := range offerings {
			if filter.SemesterID != "" && o.SemesterID != filter.SemesterID {
				continue
			}
			if filter.CourseID != "" && o.CourseID != filter.CourseID {
				continue
			}
			if filter.OpenOnly && (!o.EnrollmentOpen || o.IsFull()) {
				continue
			}
			rows = append(rows, offeringDetail(r, o))
		}
	})
	return rows
}

// AssignInstructor sets the faculty member teaching an offering.
func (s *CatalogService) AssignInstructor(ctx context.Context, offeringID, facultyID string) (*models.OfferingDetail, error) {
	return s.updateOffering(offeringID, func(tx *repository.Tx, o *models.CourseOffering) error {
		if err := requireFaculty(tx, facultyID); err != nil {
			return err
		}
		o.InstructorID = facultyID
		return nil
	})
}

// UpdateCapacity changes the seat limit. It cannot drop below the seats already taken.
func (s *CatalogService) UpdateCapacity(ctx context.Context, offeringID string, capacity int) (*models.OfferingDetail, error) {
	return s.updateOffering(offeringID, func(tx *repository.Tx, o *models.CourseOffering) error {
		if capacity <= 0 {
			return appErrors.Validation("Capacity must be positive")
		}
		if capacity < o.CurrentEnrollment {
			return appErrors.Validation("Capacity %d is below the %d students already enrolled", capacity, o.CurrentEnrollment)
		}
		o.Capacity = capacity
		return nil
	})
}

// SetEnrollmentOpen opens or closes an offering for enrollment.
func (s *CatalogService) SetEnrollmentOpen(ctx context.Context, offeringID string, open bool) (*models.OfferingDetail, error) {
	return s.updateOffering(offeringID, func(tx *repository.Tx, o *models.CourseOffering) error {
		o.EnrollmentOpen = open
		return nil
	})
}

// UpdateSyllabus replaces the syllabus text of an offering.
func (s *CatalogService) UpdateSyllabus(ctx context.Context, offeringID, syllabus string) (*models.OfferingDetail, error) {
	return s.updateOffering(offeringID, func(tx *repository.Tx, o *models.CourseOffering) error {
		o.Syllabus = syllabus
		return nil
	})
}

// Roster lists the students holding a seat in the offering.
func (s *CatalogService) Roster(ctx context.Context, offeringID string) ([]models.Person, error) {
	var (
		roster []models.Person
		ok     bool
	)
	s.dir.View(func(r repository.Reader) {
		if _, ok = r.FindOffering(offeringID); !ok {
			return
		}
		roster = make([]models.Person, 0)
		for _, e := range r.EnrollmentsByOffering(offeringID) {
			if !e.IsActive() {
				continue
			}
			if p, found := r.FindPerson(e.StudentID); found {
				roster = append(roster, p)
			}
		}
	})
	if !ok {
		return nil, appErrors.NotFound("course offering")
	}
	return roster, nil
}

func (s *CatalogService) updateOffering(id string, mutate func(tx *repository.Tx, o *models.CourseOffering) error) (*models.OfferingDetail, error) {
	var detail models.OfferingDetail
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		offering, ok := tx.FindOffering(id)
		if !ok {
			return appErrors.NotFound("course offering")
		}
		if err := mutate(tx, &offering); err != nil {
			return err
		}
		if !tx.UpdateOffering(offering) {
			return invariant("offering %s could not be updated", offering.ID)
		}
		detail = offeringDetail(tx, offering)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("offering updated", zap.String("offering_id", id))
	return &detail, nil
}

func activate(tx *repository.Tx, id string) error {
	if _, ok := tx.FindSemester(id); !ok {
		return appErrors.NotFound("semester")
	}
	for _, sem := range tx.ListSemesters() {
		want := sem.ID == id
		if sem.Active == want {
			continue
		}
		sem.Active = want
		tx.UpdateSemester(sem)
	}
	return nil
}

func requireFaculty(r repository.Reader, id string) error {
	person, ok := r.FindPerson(id)
	if !ok {
		return appErrors.NotFound("instructor")
	}
	if !person.IsFaculty() {
		return appErrors.Validation("%s is not a faculty member", id)
	}
	return nil
}

func offeringDetail(r repository.Reader, o models.CourseOffering) models.OfferingDetail {
	detail := models.OfferingDetail{CourseOffering: o, SemesterLabel: o.SemesterID}
	if course, ok := r.FindCourse(o.CourseID); ok {
		detail.CourseTitle = course.Title
		detail.CreditHours = course.CreditHours
	}
	if sem, ok := r.FindSemester(o.SemesterID); ok {
		detail.SemesterLabel = sem.Label()
	}
	if o.InstructorID != "" {
		if p, ok := r.FindPerson(o.InstructorID); ok {
			detail.InstructorName = p.Name
		}
	}
	return detail
}
