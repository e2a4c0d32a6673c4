package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/grading"
)

func TestReportsOnEmptyDirectory(t *testing.T) {
	f := newLedgerFixture(t)
	reports := NewReportService(repository.NewDirectory(), nil)

	util, err := reports.Utilization(f.ctx, models.ReportFilter{})
	require.NoError(t, err)
	assert.Empty(t, util.Rows)
	assert.Zero(t, util.Utilization)

	tuition, err := reports.Tuition(f.ctx, models.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.TuitionReport{}, *tuition)

	grades, err := reports.GradeDistribution(f.ctx, models.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, grades.Buckets, len(grading.Letters()))
	assert.Zero(t, grades.Total)
	assert.Zero(t, grades.PassingRate)

	gpa, err := reports.GPADistribution(f.ctx)
	require.NoError(t, err)
	assert.Len(t, gpa.Buckets, 6)
	assert.Zero(t, gpa.Students)

	dash, err := reports.Dashboard(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, dash.Students)
	assert.Empty(t, dash.ActiveSemesterID)
}

func TestUtilizationAndTuitionReports(t *testing.T) {
	f := newLedgerFixture(t)
	alice := f.student(t, "Alice Smith")
	bob := f.student(t, "Bob Jones")
	small := f.offering(t, "INFO 5100", 4, 2)
	large := f.offering(t, "INFO 6105", 2, 10)

	e1 := f.enroll(t, alice.ID, small.ID)
	f.enroll(t, bob.ID, small.ID)
	e3 := f.enroll(t, alice.ID, large.ID)
	_, err := f.ledger.Pay(f.ctx, PayRequest{StudentID: alice.ID, EnrollmentID: e1.ID})
	require.NoError(t, err)
	_, err = f.ledger.Pay(f.ctx, PayRequest{StudentID: alice.ID, EnrollmentID: e3.ID})
	require.NoError(t, err)
	_, err = f.ledger.Drop(f.ctx, e3.ID)
	require.NoError(t, err)

	util, err := f.reports.Utilization(f.ctx, models.ReportFilter{SemesterID: f.semester.ID})
	require.NoError(t, err)
	require.Len(t, util.Rows, 2)
	assert.Equal(t, 100.0, util.Rows[0].Utilization)
	assert.Equal(t, 0.0, util.Rows[1].Utilization)
	assert.Equal(t, 1, util.FullOfferings)
	assert.Equal(t, 12, util.TotalCapacity)
	assert.Equal(t, 2, util.TotalEnrolled)
	assert.Equal(t, 16.67, util.Utilization)

	tuition, err := f.reports.Tuition(f.ctx, models.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 8000.0, tuition.Charged)
	assert.Equal(t, 6000.0, tuition.Collected)
	assert.Equal(t, 2000.0, tuition.Refunded)
	assert.Equal(t, 4000.0, tuition.NetCollected)
	assert.Equal(t, 4000.0, tuition.Outstanding)
	assert.Equal(t, 1, tuition.PaidEnrollments)
	assert.Equal(t, 1, tuition.UnpaidEnrollments)
	assert.Equal(t, 1, tuition.StudentsWithBalance)

	scoped, err := f.reports.Tuition(f.ctx, models.ReportFilter{OfferingID: large.ID})
	require.NoError(t, err)
	assert.Zero(t, scoped.Charged)
	assert.Equal(t, 2000.0, scoped.Collected)
	assert.Equal(t, 2000.0, scoped.Refunded)
	assert.Zero(t, scoped.Outstanding)
	assert.Zero(t, scoped.StudentsWithBalance)

	scoped, err = f.reports.Tuition(f.ctx, models.ReportFilter{OfferingID: small.ID})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, scoped.Outstanding)
	assert.Equal(t, 1, scoped.StudentsWithBalance)

	// a balance owed elsewhere stays out of a scoped report
	other := f.offeringIn(t, f.newSemester(t, models.TermSpring, 2026, false).ID, "INFO 6150", 4, 10)
	f.enroll(t, alice.ID, other.ID)
	semester, err := f.reports.Tuition(f.ctx, models.ReportFilter{SemesterID: f.semester.ID})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, semester.Outstanding)
	assert.Equal(t, 1, semester.StudentsWithBalance)
}

func TestGradeAndGPADistributions(t *testing.T) {
	f := newLedgerFixture(t)
	alice := f.student(t, "Alice Smith")
	bob := f.student(t, "Bob Jones")
	carol := f.student(t, "Carol White")
	f.student(t, "Dan Brown")

	f.complete(t, alice.ID, f.offering(t, "INFO 5100", 4, 10).ID, 95)
	f.complete(t, bob.ID, f.offering(t, "INFO 5100", 4, 10).ID, 85)
	f.complete(t, carol.ID, f.offering(t, "INFO 5100", 4, 10).ID, 10)

	grades, err := f.reports.GradeDistribution(f.ctx, models.ReportFilter{SemesterID: f.semester.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, grades.Total)
	counts := map[string]int{}
	for _, b := range grades.Buckets {
		counts[b.Label] = b.Count
	}
	assert.Equal(t, 1, counts[grading.LetterA])
	assert.Equal(t, 1, counts[grading.LetterB])
	assert.Equal(t, 1, counts[grading.LetterF])
	assert.Equal(t, 0, counts[grading.LetterC])
	assert.Equal(t, 66.67, grades.PassingRate)
	assert.Equal(t, grading.Round2(7.0/3.0), grades.AverageGPA)

	gpa, err := f.reports.GPADistribution(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, gpa.Students)
	assert.Equal(t, []models.HistogramBucket{
		{Label: "0.00-0.99", Count: 1},
		{Label: "1.00-1.99", Count: 0},
		{Label: "2.00-2.49", Count: 0},
		{Label: "2.50-2.99", Count: 0},
		{Label: "3.00-3.49", Count: 1},
		{Label: "3.50-4.00", Count: 1},
	}, gpa.Buckets)

	standing, err := f.reports.StandingSummary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, standing.Students)
	assert.Equal(t, models.HistogramBucket{Label: string(grading.StandingGood), Count: 3}, standing.Buckets[0])
	assert.Equal(t, models.HistogramBucket{Label: string(grading.StandingProbation), Count: 1}, standing.Buckets[2])

	dash, err := f.reports.Dashboard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, dash.Students)
	assert.Equal(t, 1, dash.Faculty)
	assert.Equal(t, 3, dash.Offerings)
	assert.Equal(t, f.semester.ID, dash.ActiveSemesterID)
}

func TestGPABucketBoundaries(t *testing.T) {
	cases := map[float64]string{0: "0.00-0.99", 0.99: "0.00-0.99", 1: "1.00-1.99", 2.49: "2.00-2.49", 2.5: "2.50-2.99", 3: "3.00-3.49", 3.5: "3.50-4.00", 4: "3.50-4.00"}
	for gpa, label := range cases {
		assert.Equal(t, label, gpaBuckets[gpaBucketIndex(gpa)].label, "gpa %v", gpa)
	}
}

func TestExportReport(t *testing.T) {
	f := newLedgerFixture(t)
	f.offering(t, "INFO 5100", 4, 10)

	doc, err := f.reports.Export(f.ctx, models.ReportUtilization, models.ReportFilter{SemesterID: f.semester.ID}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "utilization_fall-2025.csv", doc.Filename)
	assert.Equal(t, "text/csv", doc.ContentType)
	lines := strings.Split(strings.TrimSpace(string(doc.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Offering,Course,Title,Semester,Capacity,Enrolled,Utilization %", lines[0])
	assert.Contains(t, lines[1], "INFO 5100")
	assert.Equal(t, "Total,,,,10,0,0.00", lines[2])

	data, err := f.reports.Dataset(f.ctx, models.ReportStanding, models.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, "All students", data.Scope)
	assert.Equal(t, "Total", data.Totals["Standing"])

	for _, format := range []string{"pdf", "xlsx"} {
		doc, err := f.reports.Export(f.ctx, models.ReportTuition, models.ReportFilter{}, format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, doc.Body, format)
	}

	_, err = f.reports.Export(f.ctx, models.ReportGPA, models.ReportFilter{}, "docx")
	assert.True(t, appErrors.IsValidation(err))
	_, err = f.reports.Export(f.ctx, "nope", models.ReportFilter{}, "csv")
	assert.True(t, appErrors.IsValidation(err))
}
