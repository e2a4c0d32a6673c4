package models

import (
	"strconv"
	"time"
)

// Term names a semester season.
type Term string

const (
	TermFall   Term = "Fall"
	TermSpring Term = "Spring"
	TermSummer Term = "Summer"
)

// Course is a catalog entry such as "INFO 5100".
type Course struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	CreditHours  int    `json:"credit_hours"`
	DepartmentID string `json:"department_id,omitempty"`
	CoreRequired bool   `json:"core_required"`
}

// Semester is one academic term. Two semesters are equal when their ids match.
type Semester struct {
	ID        string    `json:"id"`
	Term      Term      `json:"term"`
	Year      int       `json:"year"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Active    bool      `json:"active"`
}

// Label renders the semester as "Fall 2025".
func (s Semester) Label() string {
	if s.Term == "" {
		return s.ID
	}
	return string(s.Term) + " " + strconv.Itoa(s.Year)
}

// CourseOffering is a scheduled instance of a course in a semester.
// CurrentEnrollment is derived from the active enrollments at read time.
type CourseOffering struct {
	ID                string `json:"id"`
	CourseID          string `json:"course_id"`
	SemesterID        string `json:"semester_id"`
	InstructorID      string `json:"instructor_id,omitempty"`
	Schedule          string `json:"schedule,omitempty"`
	Room              string `json:"room,omitempty"`
	Capacity          int    `json:"capacity"`
	EnrollmentOpen    bool   `json:"enrollment_open"`
	Syllabus          string `json:"syllabus,omitempty"`
	CurrentEnrollment int    `json:"current_enrollment"`
}

// AvailableSeats returns the remaining capacity.
func (o CourseOffering) AvailableSeats() int {
	if o.CurrentEnrollment >= o.Capacity {
		return 0
	}
	return o.Capacity - o.CurrentEnrollment
}

// IsFull reports whether no seats remain.
func (o CourseOffering) IsFull() bool {
	return o.CurrentEnrollment >= o.Capacity
}

// OfferingDetail joins an offering with its course, semester and instructor.
type OfferingDetail struct {
	CourseOffering
	CourseTitle    string `json:"course_title"`
	CreditHours    int    `json:"credit_hours"`
	SemesterLabel  string `json:"semester_label"`
	InstructorName string `json:"instructor_name,omitempty"`
}

// OfferingFilter narrows offering listings.
type OfferingFilter struct {
	SemesterID   string
	CourseID     string
	InstructorID string
	OpenOnly     bool
}
