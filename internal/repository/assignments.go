package repository

import (
	"github.com/noah-isme/campus-ledger-api/internal/models"
)

// FindAssignment looks an assignment up by id.
func (tx *Tx) FindAssignment(id string) (models.Assignment, bool) {
	a, ok := tx.st.assignments.get(id)
	if !ok {
		return models.Assignment{}, false
	}
	return a.Clone(), true
}

// AssignmentsByOffering returns the assignments of an offering in creation order.
func (tx *Tx) AssignmentsByOffering(offeringID string) []models.Assignment {
	ids := tx.st.assignmentsByOffering[offeringID]
	out := make([]models.Assignment, 0, len(ids))
	for _, id := range ids {
		if a, ok := tx.st.assignments.get(id); ok {
			out = append(out, a.Clone())
		}
	}
	return out
}

// AddAssignment inserts a and indexes it under its offering.
func (tx *Tx) AddAssignment(a models.Assignment) bool {
	if !tx.st.assignments.insert(a.ID, a.Clone()) {
		return false
	}
	tx.st.assignmentsByOffering[a.OfferingID] = append(tx.st.assignmentsByOffering[a.OfferingID], a.ID)
	return true
}

// UpdateAssignment replaces the stored assignment; the offering cannot change.
func (tx *Tx) UpdateAssignment(a models.Assignment) bool {
	prev, ok := tx.st.assignments.get(a.ID)
	if !ok || prev.OfferingID != a.OfferingID {
		return false
	}
	return tx.st.assignments.replace(a.ID, a.Clone())
}

// RemoveAssignment deletes the assignment and its index entry.
func (tx *Tx) RemoveAssignment(id string) bool {
	a, ok := tx.st.assignments.get(id)
	if !ok {
		return false
	}
	tx.st.assignmentsByOffering[a.OfferingID] = removeID(tx.st.assignmentsByOffering[a.OfferingID], id)
	return tx.st.assignments.remove(id)
}
