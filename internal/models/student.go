package models

import "github.com/noah-isme/campus-ledger-api/pkg/grading"

// StudentProfile is the student payload of a Person. GPA, credits and
// standing are derived by the grade engine; the balance is maintained by the ledger.
type StudentProfile struct {
	Program          string           `json:"program"`
	DepartmentID     string           `json:"department_id,omitempty"`
	Standing         grading.Standing `json:"standing"`
	OverallGPA       float64          `json:"overall_gpa"`
	CreditsCompleted int              `json:"credits_completed"`
	AccountBalance   float64          `json:"account_balance"`
}

// StudentAccount summarises the tuition ledger of a single student.
type StudentAccount struct {
	StudentID   string           `json:"student_id"`
	Balance     float64          `json:"balance"`
	TotalPaid   float64          `json:"total_paid"`
	TotalRefund float64          `json:"total_refunded"`
	Enrollments []Enrollment     `json:"enrollments"`
	Payments    []TuitionPayment `json:"payments"`
}

// AcademicRecord is the derived academic state of a student.
type AcademicRecord struct {
	StudentID        string           `json:"student_id"`
	SemesterID       string           `json:"semester_id,omitempty"`
	TermGPA          float64          `json:"term_gpa"`
	OverallGPA       float64          `json:"overall_gpa"`
	CreditsCompleted int              `json:"credits_completed"`
	Standing         grading.Standing `json:"standing"`
}

// GraduationStatus explains a graduation eligibility decision.
type GraduationStatus struct {
	StudentID        string `json:"student_id"`
	CreditsCompleted int    `json:"credits_completed"`
	CreditsRequired  int    `json:"credits_required"`
	CoreCourseID     string `json:"core_course_id"`
	CoreCoursePassed bool   `json:"core_course_passed"`
	Eligible         bool   `json:"eligible"`
	CreditsRemaining int    `json:"credits_remaining"`
}

// TranscriptLine is one course attempt on a transcript.
type TranscriptLine struct {
	EnrollmentID string           `json:"enrollment_id"`
	CourseID     string           `json:"course_id"`
	CourseTitle  string           `json:"course_title"`
	CreditHours  int              `json:"credit_hours"`
	Status       EnrollmentStatus `json:"status"`
	Grade        string           `json:"grade,omitempty"`
	GradePoints  float64          `json:"grade_points"`
}

// TranscriptTerm groups transcript lines by semester.
type TranscriptTerm struct {
	SemesterID string           `json:"semester_id"`
	Label      string           `json:"label"`
	TermGPA    float64          `json:"term_gpa"`
	Lines      []TranscriptLine `json:"lines"`
}

// Transcript is the full academic history of a student.
type Transcript struct {
	StudentID        string           `json:"student_id"`
	StudentName      string           `json:"student_name"`
	Program          string           `json:"program"`
	OverallGPA       float64          `json:"overall_gpa"`
	CreditsCompleted int              `json:"credits_completed"`
	Standing         grading.Standing `json:"standing"`
	Terms            []TranscriptTerm `json:"terms"`
}
