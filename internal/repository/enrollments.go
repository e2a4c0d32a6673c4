package repository

import (
	"github.com/noah-isme/campus-ledger-api/internal/models"
)

// FindEnrollment looks an enrollment up by id.
func (tx *Tx) FindEnrollment(id string) (models.Enrollment, bool) {
	e, ok := tx.st.enrollments.get(id)
	if !ok {
		return models.Enrollment{}, false
	}
	return e.Clone(), true
}

// ListEnrollments returns enrollments matching filter in insertion order.
func (tx *Tx) ListEnrollments(filter models.EnrollmentFilter) []models.Enrollment {
	var ids []string
	switch {
	case filter.StudentID != "":
		ids = tx.st.enrollmentsByStudent[filter.StudentID]
	case filter.OfferingID != "":
		ids = tx.st.enrollmentsByOffering[filter.OfferingID]
	default:
		ids = tx.st.enrollments.order
	}
	out := make([]models.Enrollment, 0, len(ids))
	for _, id := range ids {
		e, ok := tx.st.enrollments.get(id)
		if ok && filter.Matches(*e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// EnrollmentsByStudent returns every enrollment of a student, dropped ones included.
func (tx *Tx) EnrollmentsByStudent(studentID string) []models.Enrollment {
	return tx.ListEnrollments(models.EnrollmentFilter{StudentID: studentID})
}

// EnrollmentsByOffering returns every enrollment of an offering, dropped ones included.
func (tx *Tx) EnrollmentsByOffering(offeringID string) []models.Enrollment {
	return tx.ListEnrollments(models.EnrollmentFilter{OfferingID: offeringID})
}

// ActiveEnrollment returns the student's active enrollment in an offering.
func (tx *Tx) ActiveEnrollment(studentID, offeringID string) (models.Enrollment, bool) {
	for _, id := range tx.st.enrollmentsByStudent[studentID] {
		e, ok := tx.st.enrollments.get(id)
		if ok && e.OfferingID == offeringID && e.IsActive() {
			return e.Clone(), true
		}
	}
	return models.Enrollment{}, false
}

// AddEnrollment inserts e and indexes it under its student and offering.
func (tx *Tx) AddEnrollment(e models.Enrollment) bool {
	if !tx.st.enrollments.insert(e.ID, e.Clone()) {
		return false
	}
	tx.st.enrollmentsByStudent[e.StudentID] = append(tx.st.enrollmentsByStudent[e.StudentID], e.ID)
	tx.st.enrollmentsByOffering[e.OfferingID] = append(tx.st.enrollmentsByOffering[e.OfferingID], e.ID)
	return true
}

// UpdateEnrollment replaces the stored enrollment. Student and offering are immutable.
func (tx *Tx) UpdateEnrollment(e models.Enrollment) bool {
	prev, ok := tx.st.enrollments.get(e.ID)
	if !ok || prev.StudentID != e.StudentID || prev.OfferingID != e.OfferingID {
		return false
	}
	return tx.st.enrollments.replace(e.ID, e.Clone())
}

// RemoveEnrollment deletes the enrollment and its index entries.
func (tx *Tx) RemoveEnrollment(id string) bool {
	e, ok := tx.st.enrollments.get(id)
	if !ok {
		return false
	}
	tx.st.enrollmentsByStudent[e.StudentID] = removeID(tx.st.enrollmentsByStudent[e.StudentID], id)
	tx.st.enrollmentsByOffering[e.OfferingID] = removeID(tx.st.enrollmentsByOffering[e.OfferingID], id)
	return tx.st.enrollments.remove(id)
}
