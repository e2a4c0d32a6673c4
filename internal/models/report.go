package models

import "time"

// ReportType names an exportable report.
type ReportType string

const (
	ReportUtilization ReportType = "utilization"
	ReportTuition     ReportType = "tuition"
	ReportGrades      ReportType = "grades"
	ReportGPA         ReportType = "gpa"
	ReportStanding    ReportType = "standing"
)

// Valid reports whether t names a known report.
func (t ReportType) Valid() bool {
	switch t {
	case ReportUtilization, ReportTuition, ReportGrades, ReportGPA, ReportStanding:
		return true
	}
	return false
}

// ReportFilter scopes a report. Empty fields mean "everything".
type ReportFilter struct {
	SemesterID string `form:"semesterId" json:"semester_id,omitempty"`
	OfferingID string `form:"offeringId" json:"offering_id,omitempty"`
}

// HistogramBucket is one labelled count.
type HistogramBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// UtilizationRow describes seat usage of one offering.
type UtilizationRow struct {
	OfferingID  string  `json:"offering_id"`
	CourseID    string  `json:"course_id"`
	CourseTitle string  `json:"course_title"`
	SemesterID  string  `json:"semester_id"`
	Capacity    int     `json:"capacity"`
	Enrolled    int     `json:"enrolled"`
	Utilization float64 `json:"utilization_pct"`
}

// UtilizationReport aggregates seat usage across offerings.
type UtilizationReport struct {
	SemesterID    string           `json:"semester_id,omitempty"`
	Rows          []UtilizationRow `json:"rows"`
	TotalCapacity int              `json:"total_capacity"`
	TotalEnrolled int              `json:"total_enrolled"`
	Utilization   float64          `json:"utilization_pct"`
	FullOfferings int              `json:"full_offerings"`
}

// TuitionReport compares tuition charged, collected and outstanding.
type TuitionReport struct {
	SemesterID          string  `json:"semester_id,omitempty"`
	Charged             float64 `json:"charged"`
	Collected           float64 `json:"collected"`
	Refunded            float64 `json:"refunded"`
	NetCollected        float64 `json:"net_collected"`
	Outstanding         float64 `json:"outstanding"`
	PaidEnrollments     int     `json:"paid_enrollments"`
	UnpaidEnrollments   int     `json:"unpaid_enrollments"`
	StudentsWithBalance int     `json:"students_with_balance"`
}

// GradeDistribution counts final letters over completed enrollments.
type GradeDistribution struct {
	SemesterID  string            `json:"semester_id,omitempty"`
	OfferingID  string            `json:"offering_id,omitempty"`
	Buckets     []HistogramBucket `json:"buckets"`
	Total       int               `json:"total"`
	AverageGPA  float64           `json:"average_grade_points"`
	PassingRate float64           `json:"passing_rate_pct"`
}

// GPADistribution buckets students by overall GPA.
type GPADistribution struct {
	Buckets  []HistogramBucket `json:"buckets"`
	Students int               `json:"students"`
	Mean     float64           `json:"mean"`
}

// StandingSummary counts students per academic standing.
type StandingSummary struct {
	Buckets  []HistogramBucket `json:"buckets"`
	Students int               `json:"students"`
}

// Dashboard is a headline snapshot of the directory.
type Dashboard struct {
	Students          int       `json:"students"`
	Faculty           int       `json:"faculty"`
	Staff             int       `json:"staff"`
	Departments       int       `json:"departments"`
	Courses           int       `json:"courses"`
	Semesters         int       `json:"semesters"`
	Offerings         int       `json:"offerings"`
	ActiveEnrollments int       `json:"active_enrollments"`
	Assignments       int       `json:"assignments"`
	Payments          int       `json:"payments"`
	ActiveSemesterID  string    `json:"active_semester_id,omitempty"`
	GeneratedAt       time.Time `json:"generated_at"`
}
