package repository

import (
	"strings"

	"github.com/noah-isme/campus-ledger-api/internal/models"
)

// FindPerson looks a person up by id.
func (tx *Tx) FindPerson(id string) (models.Person, bool) {
	p, ok := tx.st.people.get(id)
	if !ok {
		return models.Person{}, false
	}
	return p.Clone(), true
}

// FindByUniversityID is FindPerson; the generated person id is the university id.
func (tx *Tx) FindByUniversityID(id string) (models.Person, bool) {
	return tx.FindPerson(strings.TrimSpace(id))
}

// FindByEmail scans people for a case-insensitive email match.
func (tx *Tx) FindByEmail(email string) (models.Person, bool) {
	email = normaliseEmail(email)
	var found *models.Person
	tx.st.people.each(func(p *models.Person) {
		if found == nil && normaliseEmail(p.Email) == email {
			found = p
		}
	})
	if found == nil {
		return models.Person{}, false
	}
	return found.Clone(), true
}

// IsEmailExists reports whether any person uses email.
func (tx *Tx) IsEmailExists(email string) bool {
	_, ok := tx.FindByEmail(email)
	return ok
}

// ListPeople returns people in insertion order, optionally restricted to a role.
func (tx *Tx) ListPeople(role models.UserRole) []models.Person {
	out := make([]models.Person, 0)
	tx.st.people.each(func(p *models.Person) {
		if role == "" || p.Role == role {
			out = append(out, p.Clone())
		}
	})
	return out
}

// AddPerson inserts p. Adding an id that already exists is a no-op and returns false.
func (tx *Tx) AddPerson(p models.Person) bool {
	return tx.st.people.insert(p.ID, p.Clone())
}

// UpdatePerson replaces the stored person with the same id.
func (tx *Tx) UpdatePerson(p models.Person) bool {
	return tx.st.people.replace(p.ID, p.Clone())
}

// RemovePerson detaches the person from the canonical list only. Enrollments,
// payments, offerings and credentials referencing the person are left for the
// caller to cascade.
func (tx *Tx) RemovePerson(id string) bool {
	return tx.st.people.remove(id)
}

// FindCredential returns the login material registered for email.
func (tx *Tx) FindCredential(email string) (models.Credential, bool) {
	c, ok := tx.st.credentials[normaliseEmail(email)]
	return c, ok
}

// PutCredential stores or replaces login material.
func (tx *Tx) PutCredential(c models.Credential) {
	c.Email = normaliseEmail(c.Email)
	tx.st.credentials[c.Email] = c
}

// RemoveCredentialsFor deletes every credential owned by personID.
func (tx *Tx) RemoveCredentialsFor(personID string) int {
	removed := 0
	for email, c := range tx.st.credentials {
		if c.PersonID == personID {
			delete(tx.st.credentials, email)
			removed++
		}
	}
	return removed
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
