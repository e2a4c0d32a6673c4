package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-ledger-api/internal/models"
)

func fixedClock() func() time.Time {
	ts := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func seedOffering(t *testing.T, d *Directory) models.CourseOffering {
	t.Helper()
	var offering models.CourseOffering
	require.NoError(t, d.Atomically(func(tx *Tx) error {
		tx.AddCourse(models.Course{ID: "INFO 5100", Title: "App Engineering", CreditHours: 4})
		tx.AddSemester(models.Semester{ID: "FALL2025", Term: models.TermFall, Year: 2025, Active: true})
		offering = models.CourseOffering{ID: tx.GenerateID(KindOffering), CourseID: "INFO 5100", SemesterID: "FALL2025", InstructorID: "U-000001", Capacity: 2, EnrollmentOpen: true}
		require.True(t, tx.AddOffering(offering))
		return nil
	}))
	return offering
}

func TestGenerateIDIsMonotonicPerKind(t *testing.T) {
	d := NewDirectory()
	var ids []string
	require.NoError(t, d.Atomically(func(tx *Tx) error {
		ids = append(ids, tx.GenerateID(KindPerson), tx.GenerateID(KindPerson), tx.GenerateID(KindEnrollment))
		p := models.Person{ID: ids[0], Role: models.RoleAdmin}
		tx.AddPerson(p)
		tx.RemovePerson(p.ID)
		ids = append(ids, tx.GenerateID(KindPerson))
		return nil
	}))
	assert.Equal(t, []string{"U-000001", "U-000002", "ENR-000001", "U-000003"}, ids)
}

func TestAddIsIdempotentAndReadsAreCopies(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.Atomically(func(tx *Tx) error {
		p := models.Person{ID: "U-000001", Name: "Ada", Email: "Ada@Uni.edu", Role: models.RoleStudent, Student: &models.StudentProfile{Program: "MSIS"}}
		assert.True(t, tx.AddPerson(p))
		p.Name = "Changed"
		assert.False(t, tx.AddPerson(p))
		return nil
	}))

	d.View(func(r Reader) {
		people := r.ListPeople("")
		require.Len(t, people, 1)
		assert.Equal(t, "Ada", people[0].Name)
		people[0].Student.Program = "mutated"

		again, ok := r.FindByEmail("ada@uni.edu ")
		require.True(t, ok)
		assert.Equal(t, "MSIS", again.Student.Program)
		assert.True(t, r.IsEmailExists("ADA@UNI.EDU"))
	})
}

func TestLookupsMissWithoutError(t *testing.T) {
	d := NewDirectory()
	d.View(func(r Reader) {
		_, ok := r.FindPerson("nope")
		assert.False(t, ok)
		_, ok = r.FindOffering("nope")
		assert.False(t, ok)
		_, ok = r.ActiveSemester()
		assert.False(t, ok)
		assert.Empty(t, r.FindCourseOfferingsBySemester("FALL2025"))
		assert.Empty(t, r.EnrollmentsByStudent("nope"))
		assert.Empty(t, r.PaymentsByStudent("nope"))
		assert.NotNil(t, r.ListPeople(models.RoleStudent))
	})
}

func TestOfferingEnrollmentCountIsDerived(t *testing.T) {
	d := NewDirectory(WithClock(fixedClock()))
	offering := seedOffering(t, d)

	require.NoError(t, d.Atomically(func(tx *Tx) error {
		e1 := models.Enrollment{ID: tx.GenerateID(KindEnrollment), StudentID: "S1", OfferingID: offering.ID, Status: models.EnrollmentStatusActive}
		e2 := models.Enrollment{ID: tx.GenerateID(KindEnrollment), StudentID: "S2", OfferingID: offering.ID, Status: models.EnrollmentStatusActive}
		tx.AddEnrollment(e1)
		tx.AddEnrollment(e2)
		e2.Status = models.EnrollmentStatusDropped
		assert.True(t, tx.UpdateEnrollment(e2))
		return nil
	}))

	d.View(func(r Reader) {
		o, ok := r.FindOffering(offering.ID)
		require.True(t, ok)
		assert.Equal(t, 1, o.CurrentEnrollment)
		assert.Len(t, r.EnrollmentsByOffering(offering.ID), 2)
		_, active := r.ActiveEnrollment("S2", offering.ID)
		assert.False(t, active)
		_, active = r.ActiveEnrollment("S1", offering.ID)
		assert.True(t, active)
	})
}

func TestUpdateEnrollmentRejectsReparenting(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.Atomically(func(tx *Tx) error {
		e := models.Enrollment{ID: "ENR-1", StudentID: "S1", OfferingID: "O1", Status: models.EnrollmentStatusActive}
		tx.AddEnrollment(e)
		e.OfferingID = "O2"
		assert.False(t, tx.UpdateEnrollment(e))
		assert.False(t, tx.UpdateEnrollment(models.Enrollment{ID: "missing"}))
		return nil
	}))
}

func TestInstructorIndexFollowsUpdates(t *testing.T) {
	d := NewDirectory()
	offering := seedOffering(t, d)

	require.NoError(t, d.Atomically(func(tx *Tx) error {
		offering.InstructorID = "U-000009"
		assert.True(t, tx.UpdateOffering(offering))
		return nil
	}))
	d.View(func(r Reader) {
		assert.Empty(t, r.OfferingsByInstructor("U-000001"))
		assert.Len(t, r.OfferingsByInstructor("U-000009"), 1)
	})
}

func TestRemoveDetachesFromCanonicalListOnly(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.Atomically(func(tx *Tx) error {
		tx.AddPerson(models.Person{ID: "S1", Role: models.RoleStudent, Student: &models.StudentProfile{}})
		tx.AddEnrollment(models.Enrollment{ID: "E1", StudentID: "S1", OfferingID: "O1", Status: models.EnrollmentStatusActive})
		tx.PutCredential(models.Credential{Email: "s1@uni.edu", PersonID: "S1"})
		assert.True(t, tx.RemovePerson("S1"))
		assert.False(t, tx.RemovePerson("S1"))
		return nil
	}))
	d.View(func(r Reader) {
		_, ok := r.FindPerson("S1")
		assert.False(t, ok)
		assert.Len(t, r.EnrollmentsByStudent("S1"), 1)
		_, ok = r.FindCredential("S1@UNI.EDU")
		assert.True(t, ok)
	})
}

func TestPaymentsAndAssignmentsIndex(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.Atomically(func(tx *Tx) error {
		tx.AddPayment(models.TuitionPayment{ID: "P1", StudentID: "S1", Amount: 1000})
		tx.AddPayment(models.TuitionPayment{ID: "P2", StudentID: "S1", Amount: -1000})
		tx.AddPayment(models.TuitionPayment{ID: "P3", StudentID: "S2", Amount: 500})
		tx.AddAssignment(models.Assignment{ID: "A1", OfferingID: "O1", MaxPoints: 10})
		tx.AddAssignment(models.Assignment{ID: "A2", OfferingID: "O2", MaxPoints: 10})
		assert.True(t, tx.RemovePayment("P3"))
		return nil
	}))
	d.View(func(r Reader) {
		assert.Len(t, r.PaymentsByStudent("S1"), 2)
		assert.Empty(t, r.PaymentsByStudent("S2"))
		assert.Len(t, r.ListPayments(), 2)
		assert.Len(t, r.AssignmentsByOffering("O1"), 1)
		a, ok := r.FindAssignment("A2")
		require.True(t, ok)
		assert.NotNil(t, a.Submissions)
	})
	assert.Equal(t, 2, d.Snapshot().Payments)
}

func TestAtomicallySerialisesWriters(t *testing.T) {
	d := NewDirectory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Atomically(func(tx *Tx) error {
				tx.AddPerson(models.Person{ID: tx.GenerateID(KindPerson), Role: models.RoleAdmin})
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, d.Snapshot().People)
}
