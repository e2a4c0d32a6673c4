package models

import "time"

// TuitionPayment is a ledger line: positive amounts are payments, negative are refunds.
type TuitionPayment struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	EnrollmentID  string    `json:"enrollment_id,omitempty"`
	Amount        float64   `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
	SemesterLabel string    `json:"semester_label"`
	Description   string    `json:"description"`
}

// IsRefund reports whether the line returns money to the student.
func (p TuitionPayment) IsRefund() bool {
	return p.Amount < 0
}
