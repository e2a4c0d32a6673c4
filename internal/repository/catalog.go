package repository

import (
	"github.com/noah-isme/campus-ledger-api/internal/models"
)

// FindDepartment looks a department up by id.
func (tx *Tx) FindDepartment(id string) (models.Department, bool) {
	d, ok := tx.st.departments.get(id)
	if !ok {
		return models.Department{}, false
	}
	return *d, true
}

// ListDepartments returns departments in insertion order.
func (tx *Tx) ListDepartments() []models.Department {
	out := make([]models.Department, 0, tx.st.departments.len())
	tx.st.departments.each(func(d *models.Department) { out = append(out, *d) })
	return out
}

// AddDepartment inserts d unless its id is taken.
func (tx *Tx) AddDepartment(d models.Department) bool {
	return tx.st.departments.insert(d.ID, d)
}

// DepartmentMembers derives department membership from profile department ids.
func (tx *Tx) DepartmentMembers(id string) (faculty, students []models.Person) {
	faculty, students = []models.Person{}, []models.Person{}
	tx.st.people.each(func(p *models.Person) {
		if p.DepartmentID() != id {
			return
		}
		switch {
		case p.IsFaculty():
			faculty = append(faculty, p.Clone())
		case p.IsStudent():
			students = append(students, p.Clone())
		}
	})
	return faculty, students
}

// FindCourse looks a course up by its catalog id.
func (tx *Tx) FindCourse(id string) (models.Course, bool) {
	c, ok := tx.st.courses.get(id)
	if !ok {
		return models.Course{}, false
	}
	return *c, true
}

// ListCourses returns courses in insertion order.
func (tx *Tx) ListCourses() []models.Course {
	out := make([]models.Course, 0, tx.st.courses.len())
	tx.st.courses.each(func(c *models.Course) { out = append(out, *c) })
	return out
}

// AddCourse inserts c unless its id is taken.
func (tx *Tx) AddCourse(c models.Course) bool {
	return tx.st.courses.insert(c.ID, c)
}

// FindSemester looks a semester up by id.
func (tx *Tx) FindSemester(id string) (models.Semester, bool) {
	s, ok := tx.st.semesters.get(id)
	if !ok {
		return models.Semester{}, false
	}
	return *s, true
}

// ListSemesters returns semesters in insertion order.
func (tx *Tx) ListSemesters() []models.Semester {
	out := make([]models.Semester, 0, tx.st.semesters.len())
	tx.st.semesters.each(func(s *models.Semester) { out = append(out, *s) })
	return out
}

// ActiveSemester returns the first semester flagged active.
func (tx *Tx) ActiveSemester() (models.Semester, bool) {
	var found *models.Semester
	tx.st.semesters.each(func(s *models.Semester) {
		if found == nil && s.Active {
			found = s
		}
	})
	if found == nil {
		return models.Semester{}, false
	}
	return *found, true
}

// AddSemester inserts s unless its id is taken.
func (tx *Tx) AddSemester(s models.Semester) bool {
	return tx.st.semesters.insert(s.ID, s)
}

// UpdateSemester replaces the stored semester with the same id.
func (tx *Tx) UpdateSemester(s models.Semester) bool {
	return tx.st.semesters.replace(s.ID, s)
}

// FindOffering looks an offering up by id, filling CurrentEnrollment.
func (tx *Tx) FindOffering(id string) (models.CourseOffering, bool) {
	o, ok := tx.st.offerings.get(id)
	if !ok {
		return models.CourseOffering{}, false
	}
	return tx.withEnrollmentCount(*o), true
}

// ListOfferings returns every offering in insertion order.
func (tx *Tx) ListOfferings() []models.CourseOffering {
	out := make([]models.CourseOffering, 0, tx.st.offerings.len())
	tx.st.offerings.each(func(o *models.CourseOffering) { out = append(out, tx.withEnrollmentCount(*o)) })
	return out
}

// FindCourseOfferingsBySemester returns the offerings scheduled in a semester.
func (tx *Tx) FindCourseOfferingsBySemester(semesterID string) []models.CourseOffering {
	out := make([]models.CourseOffering, 0)
	tx.st.offerings.each(func(o *models.CourseOffering) {
		if o.SemesterID == semesterID {
			out = append(out, tx.withEnrollmentCount(*o))
		}
	})
	return out
}

// OfferingsByInstructor returns the offerings assigned to a faculty member.
func (tx *Tx) OfferingsByInstructor(facultyID string) []models.CourseOffering {
	ids := tx.st.offeringsByInstructor[facultyID]
	out := make([]models.CourseOffering, 0, len(ids))
	for _, id := range ids {
		if o, ok := tx.st.offerings.get(id); ok {
			out = append(out, tx.withEnrollmentCount(*o))
		}
	}
	return out
}

// AddOffering inserts o and indexes its instructor.
func (tx *Tx) AddOffering(o models.CourseOffering) bool {
	o.CurrentEnrollment = 0
	if !tx.st.offerings.insert(o.ID, o) {
		return false
	}
	if o.InstructorID != "" {
		tx.st.offeringsByInstructor[o.InstructorID] = appendUnique(tx.st.offeringsByInstructor[o.InstructorID], o.ID)
	}
	return true
}

// UpdateOffering replaces the stored offering and re-indexes a changed instructor.
func (tx *Tx) UpdateOffering(o models.CourseOffering) bool {
	prev, ok := tx.st.offerings.get(o.ID)
	if !ok {
		return false
	}
	if prev.InstructorID != o.InstructorID {
		if prev.InstructorID != "" {
			tx.st.offeringsByInstructor[prev.InstructorID] = removeID(tx.st.offeringsByInstructor[prev.InstructorID], o.ID)
		}
		if o.InstructorID != "" {
			tx.st.offeringsByInstructor[o.InstructorID] = appendUnique(tx.st.offeringsByInstructor[o.InstructorID], o.ID)
		}
	}
	o.CurrentEnrollment = 0
	return tx.st.offerings.replace(o.ID, o)
}

// RemoveOffering detaches the offering and its instructor index entry.
func (tx *Tx) RemoveOffering(id string) bool {
	o, ok := tx.st.offerings.get(id)
	if !ok {
		return false
	}
	if o.InstructorID != "" {
		tx.st.offeringsByInstructor[o.InstructorID] = removeID(tx.st.offeringsByInstructor[o.InstructorID], id)
	}
	return tx.st.offerings.remove(id)
}

func (tx *Tx) withEnrollmentCount(o models.CourseOffering) models.CourseOffering {
	count := 0
	for _, id := range tx.st.enrollmentsByOffering[o.ID] {
		if e, ok := tx.st.enrollments.get(id); ok && e.IsActive() {
			count++
		}
	}
	o.CurrentEnrollment = count
	return o
}
