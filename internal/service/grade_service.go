package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	"github.com/noah-isme/campus-ledger-api/pkg/config"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/grading"
)

// GradeService derives GPA, standing, graduation eligibility and transcripts
// from completed enrollments.
type GradeService struct {
	dir    directoryStore
	rules  config.LedgerConfig
	logger *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(dir directoryStore, rules config.LedgerConfig, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{dir: dir, rules: rules, logger: logger}
}

// TermGPA is the credit-weighted GPA over the student's graded enrollments in a semester.
func (s *GradeService) TermGPA(ctx context.Context, studentID, semesterID string) (float64, error) {
	var (
		gpa float64
		err error
	)
	s.dir.View(func(r repository.Reader) {
		if _, err = studentRecord(r, studentID); err != nil {
			return
		}
		if _, ok := r.FindSemester(semesterID); !ok {
			err = appErrors.NotFound("semester")
			return
		}
		_, term := attemptsOf(r.EnrollmentsByStudent(studentID), semesterID)
		gpa = grading.GPA(term)
	})
	return gpa, err
}

// OverallGPA is the credit-weighted GPA over every graded enrollment of the student.
func (s *GradeService) OverallGPA(ctx context.Context, studentID string) (float64, error) {
	var (
		gpa float64
		err error
	)
	s.dir.View(func(r repository.Reader) {
		if _, err = studentRecord(r, studentID); err != nil {
			return
		}
		overall, _ := attemptsOf(r.EnrollmentsByStudent(studentID), "")
		gpa = grading.GPA(overall)
	})
	return gpa, err
}

// RefreshAcademicRecord recomputes GPA, completed credits and standing and
// stores them on the student. An empty semesterID selects the active semester.
// Running it twice without intervening grade changes yields the same record.
func (s *GradeService) RefreshAcademicRecord(ctx context.Context, studentID, semesterID string) (*models.AcademicRecord, error) {
	var record models.AcademicRecord
	err := s.dir.Atomically(func(tx *repository.Tx) error {
		if semesterID != "" {
			if _, ok := tx.FindSemester(semesterID); !ok {
				return appErrors.NotFound("semester")
			}
		}
		var err error
		record, err = refreshAcademicRecord(tx, studentID, semesterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("academic record refreshed",
		zap.String("student_id", studentID),
		zap.Float64("overall_gpa", record.OverallGPA),
		zap.String("standing", string(record.Standing)),
	)
	return &record, nil
}

// GraduationStatus evaluates the credit and core-course requirements.
func (s *GradeService) GraduationStatus(ctx context.Context, studentID string) (*models.GraduationStatus, error) {
	var (
		status models.GraduationStatus
		err    error
	)
	s.dir.View(func(r repository.Reader) {
		if _, err = studentRecord(r, studentID); err != nil {
			return
		}
		enrollments := r.EnrollmentsByStudent(studentID)
		credits := creditsCompleted(enrollments)
		corePassed := false
		for _, e := range enrollments {
			if e.CourseID == s.rules.CoreCourseID && e.Status == models.EnrollmentStatusCompleted && grading.Passing(e.Letter()) {
				corePassed = true
				break
			}
		}
		remaining := s.rules.GraduationCredits - credits
		if remaining < 0 {
			remaining = 0
		}
		status = models.GraduationStatus{
			StudentID:        studentID,
			CreditsCompleted: credits,
			CreditsRequired:  s.rules.GraduationCredits,
			CoreCourseID:     s.rules.CoreCourseID,
			CoreCoursePassed: corePassed,
			Eligible:         grading.Eligible(credits, s.rules.GraduationCredits, corePassed),
			CreditsRemaining: remaining,
		}
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Transcript lists every non-dropped enrollment grouped by semester in chronological order.
func (s *GradeService) Transcript(ctx context.Context, studentID string) (*models.Transcript, error) {
	var (
		transcript models.Transcript
		err        error
	)
	s.dir.View(func(r repository.Reader) {
		var student models.Person
		if student, err = studentRecord(r, studentID); err != nil {
			return
		}
		enrollments := r.EnrollmentsByStudent(studentID)
		overall, _ := attemptsOf(enrollments, "")

		bySemester := make(map[string][]models.Enrollment)
		for _, e := range enrollments {
			if e.Status == models.EnrollmentStatusDropped {
				continue
			}
			bySemester[e.SemesterID] = append(bySemester[e.SemesterID], e)
		}

		terms := make([]models.TranscriptTerm, 0, len(bySemester))
		for semesterID, rows := range bySemester {
			term := models.TranscriptTerm{SemesterID: semesterID, Label: semesterID}
			if sem, ok := r.FindSemester(semesterID); ok {
				term.Label = sem.Label()
			}
			_, graded := attemptsOf(rows, semesterID)
			term.TermGPA = grading.Round2(grading.GPA(graded))
			for _, e := range rows {
				line := models.TranscriptLine{
					EnrollmentID: e.ID,
					CourseID:     e.CourseID,
					CreditHours:  e.CreditHours,
					Status:       e.Status,
					Grade:        e.Letter(),
					GradePoints:  e.GradePoints,
				}
				if course, ok := r.FindCourse(e.CourseID); ok {
					line.CourseTitle = course.Title
				}
				term.Lines = append(term.Lines, line)
			}
			terms = append(terms, term)
		}
		sort.SliceStable(terms, func(i, j int) bool {
			return semesterOrder(r, terms[i].SemesterID, terms[j].SemesterID)
		})

		transcript = models.Transcript{
			StudentID:        studentID,
			StudentName:      student.Name,
			Program:          student.Student.Program,
			OverallGPA:       grading.Round2(grading.GPA(overall)),
			CreditsCompleted: creditsCompleted(enrollments),
			Standing:         student.Student.Standing,
			Terms:            terms,
		}
	})
	if err != nil {
		return nil, err
	}
	return &transcript, nil
}

// CoursePercentage is the student's running percentage in an offering from graded assignments.
func (s *GradeService) CoursePercentage(ctx context.Context, studentID, offeringID string) (float64, error) {
	var (
		pct float64
		err error
	)
	s.dir.View(func(r repository.Reader) {
		if _, err = studentRecord(r, studentID); err != nil {
			return
		}
		if _, ok := r.FindOffering(offeringID); !ok {
			err = appErrors.NotFound("course offering")
			return
		}
		pct = coursePercentage(r.AssignmentsByOffering(offeringID), studentID)
	})
	return pct, err
}

// CourseAverage is the mean percentage across students currently or previously
// enrolled in the offering. Dropped enrollments are excluded.
func (s *GradeService) CourseAverage(ctx context.Context, offeringID string) (float64, error) {
	var (
		avg float64
		err error
	)
	s.dir.View(func(r repository.Reader) {
		if _, ok := r.FindOffering(offeringID); !ok {
			err = appErrors.NotFound("course offering")
			return
		}
		assignments := r.AssignmentsByOffering(offeringID)
		var sum float64
		n := 0
		for _, e := range r.EnrollmentsByOffering(offeringID) {
			if e.Status == models.EnrollmentStatusDropped {
				continue
			}
			sum += coursePercentage(assignments, e.StudentID)
			n++
		}
		if n > 0 {
			avg = grading.Round2(sum / float64(n))
		}
	})
	return avg, err
}

// coursePercentage sums graded scores over the offering's assignments. Missing
// or ungraded submissions count as zero; no assignments yields zero.
func coursePercentage(assignments []models.Assignment, studentID string) float64 {
	var awarded, max float64
	for _, a := range assignments {
		max += a.MaxPoints
		awarded += a.SubmissionFor(studentID).Awarded()
	}
	return grading.Percentage(awarded, max)
}

// attemptsOf returns the graded attempts overall and those inside semesterID.
func attemptsOf(enrollments []models.Enrollment, semesterID string) (overall, term []grading.Attempt) {
	for _, e := range enrollments {
		if e.Status != models.EnrollmentStatusCompleted || !e.IsGraded() {
			continue
		}
		attempt := grading.Attempt{Letter: e.Letter(), CreditHours: e.CreditHours}
		overall = append(overall, attempt)
		if semesterID != "" && e.SemesterID == semesterID {
			term = append(term, attempt)
		}
	}
	return overall, term
}

func creditsCompleted(enrollments []models.Enrollment) int {
	total := 0
	for _, e := range enrollments {
		if e.Status == models.EnrollmentStatusCompleted && grading.Passing(e.Letter()) {
			total += e.CreditHours
		}
	}
	return total
}

// computeAcademicRecord derives the record without writing it. A student with
// no graded credits at all stays in good standing.
func computeAcademicRecord(r repository.Reader, studentID, semesterID string) models.AcademicRecord {
	enrollments := r.EnrollmentsByStudent(studentID)
	overall, term := attemptsOf(enrollments, semesterID)
	record := models.AcademicRecord{
		StudentID:        studentID,
		SemesterID:       semesterID,
		TermGPA:          grading.GPA(term),
		OverallGPA:       grading.GPA(overall),
		CreditsCompleted: creditsCompleted(enrollments),
		Standing:         grading.StandingGood,
	}
	if grading.Credits(overall) == 0 {
		return record
	}
	record.Standing = grading.StandingFor(record.TermGPA, record.OverallGPA)
	return record
}

// refreshAcademicRecord computes and stores the record inside tx.
func refreshAcademicRecord(tx *repository.Tx, studentID, semesterID string) (models.AcademicRecord, error) {
	student, err := studentRecord(tx, studentID)
	if err != nil {
		return models.AcademicRecord{}, err
	}
	if semesterID == "" {
		semesterID = currentTermFor(tx, studentID)
	}
	record := computeAcademicRecord(tx, studentID, semesterID)
	student.Student.OverallGPA = record.OverallGPA
	student.Student.CreditsCompleted = record.CreditsCompleted
	student.Student.Standing = record.Standing
	if !tx.UpdatePerson(student) {
		return models.AcademicRecord{}, invariant("student %s vanished during refresh", studentID)
	}
	return record, nil
}

// currentTermFor picks the active semester, falling back to the semester of
// the student's most recently completed enrollment.
func currentTermFor(r repository.Reader, studentID string) string {
	if sem, ok := r.ActiveSemester(); ok {
		return sem.ID
	}
	var latest models.Enrollment
	for _, e := range r.EnrollmentsByStudent(studentID) {
		if e.CompletedAt == nil {
			continue
		}
		if latest.CompletedAt == nil || e.CompletedAt.After(*latest.CompletedAt) {
			latest = e
		}
	}
	return latest.SemesterID
}

// semesterOrder sorts by start date, then year, then id.
func semesterOrder(r repository.Reader, a, b string) bool {
	sa, okA := r.FindSemester(a)
	sb, okB := r.FindSemester(b)
	if okA && okB {
		if !sa.StartDate.Equal(sb.StartDate) {
			return sa.StartDate.Before(sb.StartDate)
		}
		if sa.Year != sb.Year {
			return sa.Year < sb.Year
		}
	}
	return a < b
}
