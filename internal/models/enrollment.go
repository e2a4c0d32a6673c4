package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. ACTIVE enrollments are paid or unpaid;
// COMPLETED ones carry a grade; DROPPED is terminal.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
)

// Enrollment captures a student's registration to a course offering.
type Enrollment struct {
	ID            string           `json:"id"`
	StudentID     string           `json:"student_id"`
	OfferingID    string           `json:"offering_id"`
	SemesterID    string           `json:"semester_id"`
	CourseID      string           `json:"course_id"`
	CreditHours   int              `json:"credit_hours"`
	Status        EnrollmentStatus `json:"status"`
	EnrolledAt    time.Time        `json:"enrolled_at"`
	DroppedAt     *time.Time       `json:"dropped_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	Grade         *string          `json:"grade,omitempty"`
	GradePoints   float64          `json:"grade_points"`
	Percentage    float64          `json:"percentage,omitempty"`
	TuitionAmount float64          `json:"tuition_amount"`
	Paid          bool             `json:"paid"`
	Refunded      bool             `json:"refunded"`
}

// IsActive reports whether the enrollment still occupies a seat.
func (e Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}

// IsGraded reports whether a final letter grade is recorded.
func (e Enrollment) IsGraded() bool {
	return e.Grade != nil && *e.Grade != ""
}

// Letter returns the grade or an empty string.
func (e Enrollment) Letter() string {
	if e.Grade == nil {
		return ""
	}
	return *e.Grade
}

// Clone returns a copy that shares no pointers with the receiver.
func (e Enrollment) Clone() Enrollment {
	if e.DroppedAt != nil {
		t := *e.DroppedAt
		e.DroppedAt = &t
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		e.CompletedAt = &t
	}
	if e.Grade != nil {
		g := *e.Grade
		e.Grade = &g
	}
	return e
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	OfferingID string
	SemesterID string
	Status     EnrollmentStatus
	Page       int
	PageSize   int
}

// Matches reports whether e satisfies every set field of the filter.
func (f EnrollmentFilter) Matches(e Enrollment) bool {
	if f.StudentID != "" && e.StudentID != f.StudentID {
		return false
	}
	if f.OfferingID != "" && e.OfferingID != f.OfferingID {
		return false
	}
	if f.SemesterID != "" && e.SemesterID != f.SemesterID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}
