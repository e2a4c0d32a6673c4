package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/grading"
)

// RegisterRequest represents payload for registering a person.
type RegisterRequest struct {
	Role         models.UserRole `json:"role" validate:"required,oneof=ADMIN REGISTRAR FACULTY STUDENT"`
	Name         string          `json:"name" validate:"required,max=120"`
	Email        string          `json:"email" validate:"required,email"`
	Password     string          `json:"password" validate:"required,min=6"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Office       string          `json:"office"`
	DepartmentID string          `json:"department_id"`
	Program      string          `json:"program"`
	Title        string          `json:"title"`
	OfficeHours  string          `json:"office_hours"`
}

// UpdateContactRequest changes contact details. Nil fields are left as they are.
type UpdateContactRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Office  *string `json:"office"`
}

// RemovalSummary reports what a cascading removal touched.
type RemovalSummary struct {
	PersonID            string `json:"person_id"`
	EnrollmentsRemoved  int    `json:"enrollments_removed"`
	PaymentsRemoved     int    `json:"payments_removed"`
	OfferingsUnassigned int    `json:"offerings_unassigned"`
	CredentialsRemoved  int    `json:"credentials_removed"`
}

// AccountService handles people and their credentials.
type AccountService struct {
	dir       directoryStore
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	cost      int
}

// NewAccountService creates an instance of AccountService.
func NewAccountService(dir directoryStore, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AccountService{dir: dir, validator: validate, logger: logger, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.cost = cost
	return s
}

// WithMetrics lets removals release the seats they free on the active
// enrollment gauge.
func (s *AccountService) WithMetrics(metrics *MetricsService) *AccountService {
	s.metrics = metrics
	return s
}

// Register creates a person of any role together with a login credential.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.Person, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid registration payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	var person models.Person
	err = s.dir.Atomically(func(tx *repository.Tx) error {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if tx.IsEmailExists(email) {
			return appErrors.Validation("email already registered")
		}
		if _, taken := tx.FindCredential(email); taken {
			return appErrors.Validation("email already registered")
		}
		if req.DepartmentID != "" {
			if _, ok := tx.FindDepartment(req.DepartmentID); !ok {
				return appErrors.NotFound("department")
			}
		}
		person = models.Person{
			ID:        tx.GenerateID(repository.KindPerson),
			Name:      strings.TrimSpace(req.Name),
			Email:     email,
			Phone:     req.Phone,
			Address:   req.Address,
			Office:    req.Office,
			Role:      req.Role,
			CreatedAt: tx.Now(),
		}
		switch req.Role {
		case models.RoleStudent:
			person.Student = &models.StudentProfile{
				Program:      req.Program,
				DepartmentID: req.DepartmentID,
				Standing:     grading.StandingGood,
			}
		case models.RoleFaculty:
			if req.DepartmentID == "" {
				return appErrors.Validation("faculty must belong to a department")
			}
			person.Faculty = &models.FacultyProfile{
				DepartmentID: req.DepartmentID,
				Title:        req.Title,
				OfficeRoom:   req.Office,
				OfficeHours:  req.OfficeHours,
			}
		}
		if !tx.AddPerson(person) {
			return invariant("person %s already exists", person.ID)
		}
		tx.PutCredential(models.Credential{Email: email, PasswordHash: string(hash), PersonID: person.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("person registered", zap.String("person_id", person.ID), zap.String("role", string(person.Role)))
	return &person, nil
}

// Get returns a person by university id.
func (s *AccountService) Get(ctx context.Context, id string) (*models.Person, error) {
	var (
		person models.Person
		ok     bool
	)
	s.dir.View(func(r repository.Reader) {
		person, ok = r.FindByUniversityID(id)
	})
	if !ok {
		return nil, appErrors.NotFound("person")
	}
	return &person, nil
}

// List returns people filtered by role, department and a name/email search.
func (s *AccountService) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, *models.Pagination, error) {
	var rows []models.Person
	s.dir.View(func(r repository.Reader) {
		rows = r.ListPeople(filter.Role)
	})
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := rows[:0]
	for _, p := range rows {
		if filter.DepartmentID != "" && p.DepartmentID() != filter.DepartmentID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.Email), search) {
			continue
		}
		matched = append(matched, p)
	}
	page, pagination := paginate(matched, filter.Page, filter.PageSize)
	return page, pagination, nil
}

// UpdateContact changes the name and contact fields of a person.
func (s *AccountService) UpdateContact(ctx context.Context, id string, req UpdateContactRequest) (*models.Person, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid contact payload")
	}
	var person models.Person
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		var ok bool
		if person, ok = tx.FindPerson(id); !ok {
			return appErrors.NotFound("person")
		}
		if req.Name != nil {
			person.Name = strings.TrimSpace(*req.Name)
		}
		if req.Phone != nil {
			person.Phone = *req.Phone
		}
		if req.Address != nil {
			person.Address = *req.Address
		}
		if req.Office != nil {
			person.Office = *req.Office
			if person.Faculty != nil {
				person.Faculty.OfficeRoom = *req.Office
			}
		}
		if !tx.UpdatePerson(person) {
			return invariant("person %s could not be updated", person.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &person, nil
}

// Remove deletes a person and cascades to everything that references them:
// enrollments (freeing their seats), payments, assignment submissions,
// instructor assignments and credentials.
func (s *AccountService) Remove(ctx context.Context, id string) (*RemovalSummary, error) {
	summary := RemovalSummary{PersonID: id}
	seats := 0
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		person, ok := tx.FindPerson(id)
		if !ok {
			return appErrors.NotFound("person")
		}
		for _, e := range tx.EnrollmentsByStudent(person.ID) {
			for _, a := range tx.AssignmentsByOffering(e.OfferingID) {
				if _, has := a.Submissions[person.ID]; !has {
					continue
				}
				delete(a.Submissions, person.ID)
				tx.UpdateAssignment(a)
			}
			if tx.RemoveEnrollment(e.ID) {
				summary.EnrollmentsRemoved++
				if e.IsActive() {
					seats++
				}
			}
		}
		for _, p := range tx.PaymentsByStudent(person.ID) {
			if tx.RemovePayment(p.ID) {
				summary.PaymentsRemoved++
			}
		}
		for _, o := range tx.OfferingsByInstructor(person.ID) {
			o.InstructorID = ""
			if tx.UpdateOffering(o) {
				summary.OfferingsUnassigned++
			}
		}
		summary.CredentialsRemoved = tx.RemoveCredentialsFor(person.ID)
		if !tx.RemovePerson(person.ID) {
			return invariant("person %s could not be removed", person.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddActiveEnrollments(-seats)
	s.logger.Info("person removed",
		zap.String("person_id", id),
		zap.Int("enrollments", summary.EnrollmentsRemoved),
		zap.Int("payments", summary.PaymentsRemoved),
		zap.Int("offerings", summary.OfferingsUnassigned),
	)
	return &summary, nil
}
