package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	"github.com/noah-isme/campus-ledger-api/pkg/config"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/grading"
	"github.com/noah-isme/campus-ledger-api/pkg/logger"
)

// Ledger operation names used for metrics labels.
const (
	opEnroll   = "enroll"
	opDrop     = "drop"
	opPay      = "pay"
	opFinalize = "finalize"
)

// EnrollRequest asks for a seat in an offering.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
}

// PayRequest settles the tuition of one enrollment.
type PayRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	EnrollmentID string `json:"enrollment_id" validate:"required"`
}

// FinalGradeRequest finalizes a student's grade in an offering.
type FinalGradeRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
}

// EnrollmentService is the enrollment ledger: every transition keeps seat
// counts, tuition, balances and payment records consistent in one step.
type EnrollmentService struct {
	dir       directoryStore
	rules     config.LedgerConfig
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(dir directoryStore, rules config.LedgerConfig, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{dir: dir, rules: rules, metrics: metrics, validator: validate, logger: logger}
}

// TuitionFor returns the charge for a course of the given credit hours.
func (s *EnrollmentService) TuitionFor(creditHours int) float64 {
	return money(float64(creditHours) * s.rules.PerCreditRate)
}

// Enroll registers a student in an offering and charges tuition to their balance.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid enrollment payload")
	}

	var created models.Enrollment
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		student, err := studentRecord(tx, req.StudentID)
		if err != nil {
			return err
		}
		offering, ok := tx.FindOffering(req.OfferingID)
		if !ok {
			return appErrors.NotFound("course offering")
		}
		course, ok := tx.FindCourse(offering.CourseID)
		if !ok {
			return invariant("offering %s references unknown course %s", offering.ID, offering.CourseID)
		}
		if !offering.EnrollmentOpen {
			return appErrors.Validation("Enrollment is closed for this course")
		}
		if offering.IsFull() {
			return appErrors.Validation("Course is full")
		}
		if _, exists := tx.ActiveEnrollment(student.ID, offering.ID); exists {
			return appErrors.Validation("Already enrolled in this course")
		}
		load := activeCredits(tx, student.ID, offering.SemesterID)
		if load+course.CreditHours > s.rules.MaxCreditsPerSemester {
			return appErrors.Validation("Credit limit exceeded: %d credits already taken this semester, %s adds %d (max %d)",
				load, course.ID, course.CreditHours, s.rules.MaxCreditsPerSemester)
		}

		tuition := s.TuitionFor(course.CreditHours)
		created = models.Enrollment{
			ID:            tx.GenerateID(repository.KindEnrollment),
			StudentID:     student.ID,
			OfferingID:    offering.ID,
			SemesterID:    offering.SemesterID,
			CourseID:      course.ID,
			CreditHours:   course.CreditHours,
			Status:        models.EnrollmentStatusActive,
			EnrolledAt:    tx.Now(),
			TuitionAmount: tuition,
		}
		if !tx.AddEnrollment(created) {
			return invariant("enrollment %s already exists", created.ID)
		}
		return adjustBalance(tx, student, tuition)
	})
	s.observe(ctx, opEnroll, err)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTuition(created.TuitionAmount, 0)
	s.metrics.AddActiveEnrollments(1)
	logger.FromContext(ctx, s.logger).Info("student enrolled",
		zap.String("enrollment_id", created.ID),
		zap.String("student_id", created.StudentID),
		zap.String("offering_id", created.OfferingID),
		zap.Float64("tuition", created.TuitionAmount),
	)
	return &created, nil
}

// Drop releases the seat and reverses the tuition charge. A paid enrollment is
// refunded so the net balance effect of enroll, pay and drop is zero.
func (s *EnrollmentService) Drop(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	var (
		dropped models.Enrollment
		refund  float64
	)
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		enrollment, ok := tx.FindEnrollment(enrollmentID)
		if !ok {
			return appErrors.NotFound("enrollment")
		}
		if !enrollment.IsActive() {
			return appErrors.Validation("Only active enrollments can be dropped")
		}
		student, err := studentRecord(tx, enrollment.StudentID)
		if err != nil {
			return invariant("enrollment %s has no student: %v", enrollment.ID, err)
		}

		now := tx.Now()
		enrollment.Status = models.EnrollmentStatusDropped
		enrollment.DroppedAt = &now
		delta := -enrollment.TuitionAmount
		if enrollment.Paid {
			refund = enrollment.TuitionAmount
			delta += refund
			enrollment.Refunded = true
			payment := models.TuitionPayment{
				ID:            tx.GenerateID(repository.KindPayment),
				StudentID:     student.ID,
				EnrollmentID:  enrollment.ID,
				Amount:        -refund,
				PaidAt:        now,
				SemesterLabel: semesterLabel(tx, enrollment.SemesterID),
				Description:   fmt.Sprintf("Refund for %s", enrollment.CourseID),
			}
			if !tx.AddPayment(payment) {
				return invariant("payment %s already exists", payment.ID)
			}
		}
		if !tx.UpdateEnrollment(enrollment) {
			return invariant("enrollment %s could not be updated", enrollment.ID)
		}
		dropped = enrollment
		return adjustBalance(tx, student, delta)
	})
	s.observe(ctx, opDrop, err)
	if err != nil {
		return nil, err
	}
	s.metrics.AddActiveEnrollments(-1)
	if refund > 0 {
		s.metrics.ObserveTuition(0, -refund)
	}
	logger.FromContext(ctx, s.logger).Info("enrollment dropped",
		zap.String("enrollment_id", dropped.ID),
		zap.String("student_id", dropped.StudentID),
		zap.Float64("refund", refund),
	)
	return &dropped, nil
}

// Pay marks an active enrollment as paid and records the payment.
func (s *EnrollmentService) Pay(ctx context.Context, req PayRequest) (*models.TuitionPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid payment payload")
	}
	var payment models.TuitionPayment
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		student, err := studentRecord(tx, req.StudentID)
		if err != nil {
			return err
		}
		enrollment, ok := tx.FindEnrollment(req.EnrollmentID)
		if !ok {
			return appErrors.NotFound("enrollment")
		}
		if enrollment.StudentID != student.ID {
			return appErrors.Validation("Enrollment does not belong to this student")
		}
		payment, err = settle(tx, student, enrollment)
		if err != nil {
			return err
		}
		return adjustBalance(tx, student, -payment.Amount)
	})
	s.observe(ctx, opPay, err)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTuition(0, payment.Amount)
	logger.FromContext(ctx, s.logger).Info("tuition paid",
		zap.String("payment_id", payment.ID),
		zap.String("enrollment_id", payment.EnrollmentID),
		zap.Float64("amount", payment.Amount),
	)
	return &payment, nil
}

// PayOutstanding settles every active unpaid enrollment of the student at once.
func (s *EnrollmentService) PayOutstanding(ctx context.Context, studentID string) ([]models.TuitionPayment, error) {
	var payments []models.TuitionPayment
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		student, err := studentRecord(tx, studentID)
		if err != nil {
			return err
		}
		var total float64
		for _, e := range tx.EnrollmentsByStudent(student.ID) {
			if !e.IsActive() || e.Paid {
				continue
			}
			payment, err := settle(tx, student, e)
			if err != nil {
				return err
			}
			total += payment.Amount
			payments = append(payments, payment)
		}
		if len(payments) == 0 {
			return appErrors.Validation("No outstanding tuition to pay")
		}
		return adjustBalance(tx, student, -total)
	})
	s.observe(ctx, opPay, err)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		s.metrics.ObserveTuition(0, p.Amount)
	}
	logger.FromContext(ctx, s.logger).Info("outstanding tuition paid", zap.String("student_id", studentID), zap.Int("payments", len(payments)))
	return payments, nil
}

// AssignFinalGrade computes the course percentage from the offering's
// assignments, records the letter, completes the enrollment and refreshes the
// student's academic record. Payment state is left untouched.
func (s *EnrollmentService) AssignFinalGrade(ctx context.Context, req FinalGradeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid grade payload")
	}
	var graded models.Enrollment
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		if _, err := studentRecord(tx, req.StudentID); err != nil {
			return err
		}
		if _, ok := tx.FindOffering(req.OfferingID); !ok {
			return appErrors.NotFound("course offering")
		}
		enrollment, ok := tx.ActiveEnrollment(req.StudentID, req.OfferingID)
		if !ok {
			return appErrors.Validation("Student has no active enrollment in this course")
		}
		var err error
		graded, err = finalize(tx, enrollment)
		return err
	})
	s.observe(ctx, opFinalize, err)
	if err != nil {
		return nil, err
	}
	s.metrics.AddActiveEnrollments(-1)
	logger.FromContext(ctx, s.logger).Info("final grade assigned",
		zap.String("enrollment_id", graded.ID),
		zap.String("student_id", graded.StudentID),
		zap.String("grade", graded.Letter()),
		zap.Float64("percentage", graded.Percentage),
	)
	return &graded, nil
}

// FinalizeOffering assigns final grades to every active enrollment of an offering
// and closes it for enrollment.
func (s *EnrollmentService) FinalizeOffering(ctx context.Context, offeringID string) ([]models.Enrollment, error) {
	var graded []models.Enrollment
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		offering, ok := tx.FindOffering(offeringID)
		if !ok {
			return appErrors.NotFound("course offering")
		}
		for _, e := range tx.EnrollmentsByOffering(offeringID) {
			if !e.IsActive() {
				continue
			}
			done, err := finalize(tx, e)
			if err != nil {
				return err
			}
			graded = append(graded, done)
		}
		offering.EnrollmentOpen = false
		if !tx.UpdateOffering(offering) {
			return invariant("offering %s could not be updated", offering.ID)
		}
		return nil
	})
	s.observe(ctx, opFinalize, err)
	if err != nil {
		return nil, err
	}
	s.metrics.AddActiveEnrollments(-len(graded))
	logger.FromContext(ctx, s.logger).Info("offering finalized", zap.String("offering_id", offeringID), zap.Int("graded", len(graded)))
	return graded, nil
}

// ListEnrollments returns enrollments with pagination metadata.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	var rows []models.Enrollment
	s.dir.View(func(r repository.Reader) {
		rows = r.ListEnrollments(filter)
	})
	page, pagination := paginate(rows, filter.Page, filter.PageSize)
	return page, pagination, nil
}

// GetEnrollment fetches one enrollment.
func (s *EnrollmentService) GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	var (
		enrollment models.Enrollment
		ok         bool
	)
	s.dir.View(func(r repository.Reader) {
		enrollment, ok = r.FindEnrollment(id)
	})
	if !ok {
		return nil, appErrors.NotFound("enrollment")
	}
	return &enrollment, nil
}

// StudentAccount summarises balance, enrollments and payments of a student.
func (s *EnrollmentService) StudentAccount(ctx context.Context, studentID string) (*models.StudentAccount, error) {
	var (
		account models.StudentAccount
		err     error
	)
	s.dir.View(func(r repository.Reader) {
		var student models.Person
		if student, err = studentRecord(r, studentID); err != nil {
			return
		}
		account = models.StudentAccount{
			StudentID:   student.ID,
			Balance:     student.Student.AccountBalance,
			Enrollments: r.EnrollmentsByStudent(student.ID),
			Payments:    r.PaymentsByStudent(student.ID),
		}
		for _, p := range account.Payments {
			if p.IsRefund() {
				account.TotalRefund = money(account.TotalRefund - p.Amount)
			} else {
				account.TotalPaid = money(account.TotalPaid + p.Amount)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *EnrollmentService) observe(ctx context.Context, operation string, err error) {
	outcome := outcomeOf(err)
	s.metrics.ObserveLedgerTransition(operation, outcome)
	switch outcome {
	case OutcomeRejected:
		logger.FromContext(ctx, s.logger).Debug("ledger transition rejected", zap.String("operation", operation), zap.Error(err))
	case OutcomeError:
		logger.FromContext(ctx, s.logger).Error("ledger transition failed", zap.String("operation", operation), zap.Error(err))
	}
}

// settle marks an enrollment paid and appends the payment line. The caller
// adjusts the balance.
func settle(tx *repository.Tx, student models.Person, enrollment models.Enrollment) (models.TuitionPayment, error) {
	if !enrollment.IsActive() {
		return models.TuitionPayment{}, appErrors.Validation("Only active enrollments can be paid")
	}
	if enrollment.Paid {
		return models.TuitionPayment{}, appErrors.Validation("Enrollment is already paid")
	}
	enrollment.Paid = true
	if !tx.UpdateEnrollment(enrollment) {
		return models.TuitionPayment{}, invariant("enrollment %s could not be updated", enrollment.ID)
	}
	payment := models.TuitionPayment{
		ID:            tx.GenerateID(repository.KindPayment),
		StudentID:     student.ID,
		EnrollmentID:  enrollment.ID,
		Amount:        enrollment.TuitionAmount,
		PaidAt:        tx.Now(),
		SemesterLabel: semesterLabel(tx, enrollment.SemesterID),
		Description:   fmt.Sprintf("Tuition for %s", enrollment.CourseID),
	}
	if !tx.AddPayment(payment) {
		return models.TuitionPayment{}, invariant("payment %s already exists", payment.ID)
	}
	return payment, nil
}

// finalize grades an active enrollment and refreshes the owner's record for
// the enrollment's semester.
func finalize(tx *repository.Tx, enrollment models.Enrollment) (models.Enrollment, error) {
	pct := coursePercentage(tx.AssignmentsByOffering(enrollment.OfferingID), enrollment.StudentID)
	letter := grading.LetterForPercentage(pct)
	now := tx.Now()
	enrollment.Grade = &letter
	enrollment.GradePoints = grading.PointsForLetter(letter)
	enrollment.Percentage = grading.Round2(pct)
	enrollment.Status = models.EnrollmentStatusCompleted
	enrollment.CompletedAt = &now
	if !tx.UpdateEnrollment(enrollment) {
		return models.Enrollment{}, invariant("enrollment %s could not be updated", enrollment.ID)
	}
	if _, err := refreshAcademicRecord(tx, enrollment.StudentID, enrollment.SemesterID); err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func adjustBalance(tx *repository.Tx, student models.Person, delta float64) error {
	student.Student.AccountBalance = money(student.Student.AccountBalance + delta)
	if !tx.UpdatePerson(student) {
		return invariant("student %s could not be updated", student.ID)
	}
	return nil
}

// activeCredits sums credit hours of the student's active enrollments in a semester.
func activeCredits(r repository.Reader, studentID, semesterID string) int {
	total := 0
	for _, e := range r.EnrollmentsByStudent(studentID) {
		if e.IsActive() && e.SemesterID == semesterID {
			total += e.CreditHours
		}
	}
	return total
}

func semesterLabel(r repository.Reader, semesterID string) string {
	if sem, ok := r.FindSemester(semesterID); ok {
		return sem.Label()
	}
	return semesterID
}
