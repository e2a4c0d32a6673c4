package service

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/grading"
)

// CreateAssignmentRequest describes a new piece of graded work.
type CreateAssignmentRequest struct {
	OfferingID  string     `json:"offering_id" validate:"required"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	MaxPoints   float64    `json:"max_points" validate:"gt=0"`
}

// GradeSubmissionRequest records a score for one student.
type GradeSubmissionRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Score     float64 `json:"score"`
}

// AssignmentService manages assignments and their submissions.
type AssignmentService struct {
	dir       directoryStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(dir directoryStore, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{dir: dir, validator: validate, logger: logger}
}

// Create adds an assignment to an offering. Only the offering's instructor or staff may do so.
func (s *AssignmentService) Create(ctx context.Context, actor Actor, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid assignment payload")
	}
	var created models.Assignment
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		offering, ok := tx.FindOffering(req.OfferingID)
		if !ok {
			return appErrors.NotFound("course offering")
		}
		if err := canTeach(actor, offering); err != nil {
			return err
		}
		created = models.Assignment{
			ID:          tx.GenerateID(repository.KindAssignment),
			OfferingID:  offering.ID,
			Title:       req.Title,
			Description: req.Description,
			DueDate:     req.DueDate,
			MaxPoints:   req.MaxPoints,
			CreatedAt:   tx.Now(),
			Submissions: map[string]models.Submission{},
		}
		if !tx.AddAssignment(created) {
			return invariant("assignment %s already exists", created.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("assignment created", zap.String("assignment_id", created.ID), zap.String("offering_id", created.OfferingID))
	return &created, nil
}

// Submit records a submission without a score. The student must hold an active
// enrollment in the assignment's offering.
func (s *AssignmentService) Submit(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	var sub models.Submission
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		assignment, ok := tx.FindAssignment(assignmentID)
		if !ok {
			return appErrors.NotFound("assignment")
		}
		if _, err := studentRecord(tx, studentID); err != nil {
			return err
		}
		if _, ok := tx.ActiveEnrollment(studentID, assignment.OfferingID); !ok {
			return appErrors.Validation("Student is not enrolled in this course")
		}
		current := assignment.SubmissionFor(studentID)
		if current.State == models.SubmissionGraded {
			return appErrors.Validation("Assignment has already been graded")
		}
		now := tx.Now()
		sub = models.Submission{StudentID: studentID, State: models.SubmissionSubmitted, SubmittedAt: &now}
		assignment.Submissions = models.WithSubmission(assignment.Submissions, sub)
		if !tx.UpdateAssignment(assignment) {
			return invariant("assignment %s could not be updated", assignment.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("assignment submitted", zap.String("assignment_id", assignmentID), zap.String("student_id", studentID))
	return &sub, nil
}

// Grade scores a student's work. Scores outside [0, maxPoints] are rejected.
func (s *AssignmentService) Grade(ctx context.Context, actor Actor, assignmentID string, req GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid grade payload")
	}
	var sub models.Submission
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		assignment, ok := tx.FindAssignment(assignmentID)
		if !ok {
			return appErrors.NotFound("assignment")
		}
		offering, ok := tx.FindOffering(assignment.OfferingID)
		if !ok {
			return invariant("assignment %s references unknown offering %s", assignment.ID, assignment.OfferingID)
		}
		if err := canTeach(actor, offering); err != nil {
			return err
		}
		if math.IsNaN(req.Score) || req.Score < 0 || req.Score > assignment.MaxPoints {
			return appErrors.Validation("Score must be between 0 and %g", assignment.MaxPoints)
		}
		if _, ok := tx.ActiveEnrollment(req.StudentID, offering.ID); !ok {
			return appErrors.Validation("Student is not enrolled in this course")
		}
		assignment.Submissions = WithScore(assignment.Submissions, req.StudentID, req.Score, assignment.MaxPoints, tx.Now())
		sub = assignment.Submissions[req.StudentID]
		if !tx.UpdateAssignment(assignment) {
			return invariant("assignment %s could not be updated", assignment.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("assignment graded",
		zap.String("assignment_id", assignmentID),
		zap.String("student_id", req.StudentID),
		zap.Float64("score", req.Score),
	)
	return &sub, nil
}

// List returns the assignments of an offering. Callers who do not teach the
// offering only see their own submission.
func (s *AssignmentService) List(ctx context.Context, actor Actor, offeringID string) ([]models.Assignment, error) {
	var (
		rows []models.Assignment
		err  error
	)
	s.dir.View(func(r repository.Reader) {
		offering, ok := r.FindOffering(offeringID)
		if !ok {
			err = appErrors.NotFound("course offering")
			return
		}
		rows = r.AssignmentsByOffering(offeringID)
		if canTeach(actor, offering) != nil {
			for i := range rows {
				rows[i] = rows[i].OnlySubmissionOf(actor.ID)
			}
		}
	})
	return rows, err
}

// Get fetches one assignment, scoped like List.
func (s *AssignmentService) Get(ctx context.Context, actor Actor, id string) (*models.Assignment, error) {
	var (
		assignment models.Assignment
		ok         bool
	)
	s.dir.View(func(r repository.Reader) {
		if assignment, ok = r.FindAssignment(id); !ok {
			return
		}
		offering, found := r.FindOffering(assignment.OfferingID)
		if !found || canTeach(actor, offering) != nil {
			assignment = assignment.OnlySubmissionOf(actor.ID)
		}
	})
	if !ok {
		return nil, appErrors.NotFound("assignment")
	}
	return &assignment, nil
}

// WithScore returns a new submissions map holding a GRADED submission for the
// student with the score clamped to [0, max]. The input map is not modified.
func WithScore(submissions map[string]models.Submission, studentID string, score, max float64, at time.Time) map[string]models.Submission {
	sub, ok := submissions[studentID]
	if !ok {
		sub = models.Submission{StudentID: studentID}
	}
	clamped := grading.ClampScore(score, max)
	sub.State = models.SubmissionGraded
	sub.Score = &clamped
	sub.GradedAt = &at
	return models.WithSubmission(submissions, sub)
}

func canTeach(actor Actor, offering models.CourseOffering) error {
	if actor.Staff() {
		return nil
	}
	if actor.Role == models.RoleFaculty && actor.ID != "" && actor.ID == offering.InstructorID {
		return nil
	}
	return appErrors.Forbidden("only the course instructor may manage assignments")
}
