package repository

import (
	"time"

	"github.com/noah-isme/campus-ledger-api/internal/models"
)

// Reader is the read-only surface of the directory. Every lookup returns
// copies; a miss yields the zero value and false (or an empty slice), never an error.
type Reader interface {
	Now() time.Time
	Counts() Counts

	FindPerson(id string) (models.Person, bool)
	FindByUniversityID(id string) (models.Person, bool)
	FindByEmail(email string) (models.Person, bool)
	IsEmailExists(email string) bool
	ListPeople(role models.UserRole) []models.Person
	FindCredential(email string) (models.Credential, bool)

	FindDepartment(id string) (models.Department, bool)
	ListDepartments() []models.Department
	DepartmentMembers(id string) (faculty, students []models.Person)

	FindCourse(id string) (models.Course, bool)
	ListCourses() []models.Course
	FindSemester(id string) (models.Semester, bool)
	ListSemesters() []models.Semester
	ActiveSemester() (models.Semester, bool)

	FindOffering(id string) (models.CourseOffering, bool)
	ListOfferings() []models.CourseOffering
	FindCourseOfferingsBySemester(semesterID string) []models.CourseOffering
	OfferingsByInstructor(facultyID string) []models.CourseOffering

	FindEnrollment(id string) (models.Enrollment, bool)
	ListEnrollments(filter models.EnrollmentFilter) []models.Enrollment
	EnrollmentsByStudent(studentID string) []models.Enrollment
	EnrollmentsByOffering(offeringID string) []models.Enrollment
	ActiveEnrollment(studentID, offeringID string) (models.Enrollment, bool)

	FindAssignment(id string) (models.Assignment, bool)
	AssignmentsByOffering(offeringID string) []models.Assignment

	PaymentsByStudent(studentID string) []models.TuitionPayment
	ListPayments() []models.TuitionPayment
}

var _ Reader = (*Tx)(nil)
