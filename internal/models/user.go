package models

import "time"

// UserRole tags the variant of a Person.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleRegistrar UserRole = "REGISTRAR"
	RoleFaculty   UserRole = "FACULTY"
	RoleStudent   UserRole = "STUDENT"
)

// Valid reports whether the role is one of the known variants.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleRegistrar, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// Person is the common identity shared by every account. Exactly one of the
// role payloads is set, matching Role; Admin and Registrar only carry Office.
type Person struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone,omitempty"`
	Address   string          `json:"address,omitempty"`
	Office    string          `json:"office,omitempty"`
	Role      UserRole        `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
	Student   *StudentProfile `json:"student,omitempty"`
	Faculty   *FacultyProfile `json:"faculty,omitempty"`
}

// IsStudent reports whether the person carries a student payload.
func (p Person) IsStudent() bool {
	return p.Role == RoleStudent && p.Student != nil
}

// IsFaculty reports whether the person carries a faculty payload.
func (p Person) IsFaculty() bool {
	return p.Role == RoleFaculty && p.Faculty != nil
}

// DepartmentID returns the department of a student or faculty member.
func (p Person) DepartmentID() string {
	switch {
	case p.Student != nil:
		return p.Student.DepartmentID
	case p.Faculty != nil:
		return p.Faculty.DepartmentID
	}
	return ""
}

// Clone returns a deep copy of the person.
func (p Person) Clone() Person {
	if p.Student != nil {
		s := *p.Student
		p.Student = &s
	}
	if p.Faculty != nil {
		f := *p.Faculty
		p.Faculty = &f
	}
	return p
}

// PersonFilter narrows person listings.
type PersonFilter struct {
	Role         UserRole
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
