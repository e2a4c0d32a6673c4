package repository

import (
	"github.com/noah-isme/campus-ledger-api/internal/models"
)

// PaymentsByStudent returns a student's payments and refunds in ledger order.
func (tx *Tx) PaymentsByStudent(studentID string) []models.TuitionPayment {
	ids := tx.st.paymentsByStudent[studentID]
	out := make([]models.TuitionPayment, 0, len(ids))
	for _, id := range ids {
		if p, ok := tx.st.payments.get(id); ok {
			out = append(out, *p)
		}
	}
	return out
}

// ListPayments returns every payment line in ledger order.
func (tx *Tx) ListPayments() []models.TuitionPayment {
	out := make([]models.TuitionPayment, 0, tx.st.payments.len())
	tx.st.payments.each(func(p *models.TuitionPayment) { out = append(out, *p) })
	return out
}

// AddPayment appends a ledger line.
func (tx *Tx) AddPayment(p models.TuitionPayment) bool {
	if !tx.st.payments.insert(p.ID, p) {
		return false
	}
	tx.st.paymentsByStudent[p.StudentID] = append(tx.st.paymentsByStudent[p.StudentID], p.ID)
	return true
}

// RemovePayment deletes a ledger line.
func (tx *Tx) RemovePayment(id string) bool {
	p, ok := tx.st.payments.get(id)
	if !ok {
		return false
	}
	tx.st.paymentsByStudent[p.StudentID] = removeID(tx.st.paymentsByStudent[p.StudentID], id)
	return tx.st.payments.remove(id)
}
