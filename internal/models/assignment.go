package models

import "time"

// SubmissionState separates "submitted, ungraded" from "graded zero".
type SubmissionState string

const (
	SubmissionNotSubmitted SubmissionState = "NOT_SUBMITTED"
	SubmissionSubmitted    SubmissionState = "SUBMITTED"
	SubmissionGraded       SubmissionState = "GRADED"
)

// Submission is a student's work on an assignment. Score is only set once graded.
type Submission struct {
	StudentID   string          `json:"student_id"`
	State       SubmissionState `json:"state"`
	Score       *float64        `json:"score,omitempty"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
	GradedAt    *time.Time      `json:"graded_at,omitempty"`
}

// Awarded returns the graded score, or 0.
func (s Submission) Awarded() float64 {
	if s.State != SubmissionGraded || s.Score == nil {
		return 0
	}
	return *s.Score
}

// Assignment is a piece of graded work within an offering.
type Assignment struct {
	ID          string                `json:"id"`
	OfferingID  string                `json:"offering_id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	DueDate     *time.Time            `json:"due_date,omitempty"`
	MaxPoints   float64               `json:"max_points"`
	CreatedAt   time.Time             `json:"created_at"`
	Submissions map[string]Submission `json:"submissions"`
}

// SubmissionFor returns the submission of a student, defaulting to NOT_SUBMITTED.
func (a Assignment) SubmissionFor(studentID string) Submission {
	if sub, ok := a.Submissions[studentID]; ok {
		return sub
	}
	return Submission{StudentID: studentID, State: SubmissionNotSubmitted}
}

// OnlySubmissionOf returns a copy whose submissions hold at most the given
// student's entry.
func (a Assignment) OnlySubmissionOf(studentID string) Assignment {
	own := make(map[string]Submission, 1)
	if sub, ok := a.Submissions[studentID]; ok && studentID != "" {
		own[studentID] = sub
	}
	a.Submissions = own
	return a
}

// Clone returns a deep copy of the assignment.
func (a Assignment) Clone() Assignment {
	if a.DueDate != nil {
		d := *a.DueDate
		a.DueDate = &d
	}
	subs := make(map[string]Submission, len(a.Submissions))
	for id, sub := range a.Submissions {
		subs[id] = sub.clone()
	}
	a.Submissions = subs
	return a
}

func (s Submission) clone() Submission {
	if s.Score != nil {
		v := *s.Score
		s.Score = &v
	}
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		s.SubmittedAt = &t
	}
	if s.GradedAt != nil {
		t := *s.GradedAt
		s.GradedAt = &t
	}
	return s
}

// WithSubmission returns a copy of submissions with sub stored under its
// student id. The input map is left untouched.
func WithSubmission(submissions map[string]Submission, sub Submission) map[string]Submission {
	out := make(map[string]Submission, len(submissions)+1)
	for id, s := range submissions {
		out[id] = s
	}
	out[sub.StudentID] = sub
	return out
}
