package models

// FacultyProfile is the faculty payload of a Person.
type FacultyProfile struct {
	DepartmentID string `json:"department_id"`
	Title        string `json:"title,omitempty"`
	OfficeRoom   string `json:"office_room,omitempty"`
	OfficeHours  string `json:"office_hours,omitempty"`
}

// Department groups faculty and students. Membership is derived from the
// department id on each profile.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DepartmentMembers lists the people attached to a department.
type DepartmentMembers struct {
	Department Department `json:"department"`
	Faculty    []Person   `json:"faculty"`
	Students   []Person   `json:"students"`
}

// Credential stores login material for a person.
type Credential struct {
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	PersonID     string `json:"person_id"`
}
