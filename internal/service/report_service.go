package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/export"
	"github.com/noah-isme/campus-ledger-api/pkg/grading"
)

type gpaBucket struct {
	label    string
	min, max float64
}

// upper bounds are exclusive except for the last bucket
var gpaBuckets = []gpaBucket{
	{"0.00-0.99", 0, 1},
	{"1.00-1.99", 1, 2},
	{"2.00-2.49", 2, 2.5},
	{"2.50-2.99", 2.5, 3},
	{"3.00-3.49", 3, 3.5},
	{"3.50-4.00", 3.5, 4.01},
}

// ReportService computes read-only aggregates over the directory and renders
// them for export.
type ReportService struct {
	dir    directoryStore
	logger *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(dir directoryStore, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{dir: dir, logger: logger}
}

// Utilization reports seat usage per offering.
func (s *ReportService) Utilization(ctx context.Context, filter models.ReportFilter) (*models.UtilizationReport, error) {
	report := models.UtilizationReport{SemesterID: filter.SemesterID, Rows: []models.UtilizationRow{}}
	s.dir.View(func(r repository.Reader) {
		offerings := r.ListOfferings()
		if filter.SemesterID != "" {
			offerings = r.FindCourseOfferingsBySemester(filter.SemesterID)
		}
		for _, o := range offerings {
			if filter.OfferingID != "" && o.ID != filter.OfferingID {
				continue
			}
			row := models.UtilizationRow{
				OfferingID:  o.ID,
				CourseID:    o.CourseID,
				SemesterID:  o.SemesterID,
				Capacity:    o.Capacity,
				Enrolled:    o.CurrentEnrollment,
				Utilization: percent(o.CurrentEnrollment, o.Capacity),
			}
			if course, ok := r.FindCourse(o.CourseID); ok {
				row.CourseTitle = course.Title
			}
			report.Rows = append(report.Rows, row)
			report.TotalCapacity += o.Capacity
			report.TotalEnrolled += o.CurrentEnrollment
			if o.IsFull() {
				report.FullOfferings++
			}
		}
	})
	report.Utilization = percent(report.TotalEnrolled, report.TotalCapacity)
	return &report, nil
}

// Tuition compares what was charged with what was collected. Charges cover
// every non-dropped enrollment. Outstanding is the sum of positive balances,
// or the unpaid in-scope tuition when a semester or offering is selected.
func (s *ReportService) Tuition(ctx context.Context, filter models.ReportFilter) (*models.TuitionReport, error) {
	report := models.TuitionReport{SemesterID: filter.SemesterID}
	s.dir.View(func(r repository.Reader) {
		inScope := func(e models.Enrollment) bool {
			if filter.SemesterID != "" && e.SemesterID != filter.SemesterID {
				return false
			}
			return filter.OfferingID == "" || e.OfferingID == filter.OfferingID
		}
		scoped := filter.SemesterID != "" || filter.OfferingID != ""
		owing := map[string]bool{}
		for _, e := range r.ListEnrollments(models.EnrollmentFilter{}) {
			if e.Status == models.EnrollmentStatusDropped || !inScope(e) {
				continue
			}
			report.Charged += e.TuitionAmount
			if e.Paid {
				report.PaidEnrollments++
				continue
			}
			report.UnpaidEnrollments++
			if scoped && e.TuitionAmount > 0 {
				report.Outstanding += e.TuitionAmount
				owing[e.StudentID] = true
			}
		}
		for _, p := range r.ListPayments() {
			if scoped {
				e, ok := r.FindEnrollment(p.EnrollmentID)
				if !ok || !inScope(e) {
					continue
				}
			}
			if p.IsRefund() {
				report.Refunded -= p.Amount
			} else {
				report.Collected += p.Amount
			}
		}
		if scoped {
			report.StudentsWithBalance = len(owing)
			return
		}
		for _, p := range r.ListPeople(models.RoleStudent) {
			if p.Student == nil || p.Student.AccountBalance <= 0 {
				continue
			}
			report.Outstanding += p.Student.AccountBalance
			report.StudentsWithBalance++
		}
	})
	report.Charged = money(report.Charged)
	report.Collected = money(report.Collected)
	report.Refunded = money(report.Refunded)
	report.NetCollected = money(report.Collected - report.Refunded)
	report.Outstanding = money(report.Outstanding)
	return &report, nil
}

// GradeDistribution counts final letters over completed enrollments. Every
// letter is present, with zero counts where nobody earned it.
func (s *ReportService) GradeDistribution(ctx context.Context, filter models.ReportFilter) (*models.GradeDistribution, error) {
	report := models.GradeDistribution{SemesterID: filter.SemesterID, OfferingID: filter.OfferingID}
	counts := make(map[string]int)
	var (
		attempts []grading.Attempt
		passing  int
	)
	s.dir.View(func(r repository.Reader) {
		rows := r.ListEnrollments(models.EnrollmentFilter{
			OfferingID: filter.OfferingID,
			SemesterID: filter.SemesterID,
			Status:     models.EnrollmentStatusCompleted,
		})
		for _, e := range rows {
			if !e.IsGraded() {
				continue
			}
			counts[e.Letter()]++
			attempts = append(attempts, grading.Attempt{Letter: e.Letter(), CreditHours: e.CreditHours})
			if grading.Passing(e.Letter()) {
				passing++
			}
		}
	})
	for _, letter := range grading.Letters() {
		report.Buckets = append(report.Buckets, models.HistogramBucket{Label: letter, Count: counts[letter]})
		report.Total += counts[letter]
	}
	report.AverageGPA = grading.Round2(grading.GPA(attempts))
	report.PassingRate = percent(passing, report.Total)
	return &report, nil
}

// GPADistribution buckets students with graded credits by overall GPA.
func (s *ReportService) GPADistribution(ctx context.Context) (*models.GPADistribution, error) {
	report := models.GPADistribution{}
	counts := make([]int, len(gpaBuckets))
	var sum float64
	s.dir.View(func(r repository.Reader) {
		for _, p := range r.ListPeople(models.RoleStudent) {
			overall, _ := attemptsOf(r.EnrollmentsByStudent(p.ID), "")
			if grading.Credits(overall) == 0 {
				continue
			}
			gpa := grading.Round2(grading.GPA(overall))
			counts[gpaBucketIndex(gpa)]++
			sum += gpa
			report.Students++
		}
	})
	for i, b := range gpaBuckets {
		report.Buckets = append(report.Buckets, models.HistogramBucket{Label: b.label, Count: counts[i]})
	}
	if report.Students > 0 {
		report.Mean = grading.Round2(sum / float64(report.Students))
	}
	return &report, nil
}

func gpaBucketIndex(gpa float64) int {
	for i, b := range gpaBuckets {
		if gpa >= b.min && gpa < b.max {
			return i
		}
	}
	if gpa < 0 {
		return 0
	}
	return len(gpaBuckets) - 1
}

// StandingSummary counts students per academic standing.
func (s *ReportService) StandingSummary(ctx context.Context) (*models.StandingSummary, error) {
	counts := map[grading.Standing]int{}
	report := models.StandingSummary{}
	s.dir.View(func(r repository.Reader) {
		for _, p := range r.ListPeople(models.RoleStudent) {
			if p.Student == nil {
				continue
			}
			standing := p.Student.Standing
			if standing == "" {
				standing = grading.StandingGood
			}
			counts[standing]++
			report.Students++
		}
	})
	for _, st := range []grading.Standing{grading.StandingGood, grading.StandingWarning, grading.StandingProbation} {
		report.Buckets = append(report.Buckets, models.HistogramBucket{Label: string(st), Count: counts[st]})
	}
	return &report, nil
}

// Dashboard returns headline counts.
func (s *ReportService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var dash models.Dashboard
	s.dir.View(func(r repository.Reader) {
		counts := r.Counts()
		for _, p := range r.ListPeople("") {
			switch p.Role {
			case models.RoleStudent:
				dash.Students++
			case models.RoleFaculty:
				dash.Faculty++
			default:
				dash.Staff++
			}
		}
		dash.Departments = counts.Departments
		dash.Courses = counts.Courses
		dash.Semesters = counts.Semesters
		dash.Offerings = counts.Offerings
		dash.Assignments = counts.Assignments
		dash.Payments = counts.Payments
		dash.ActiveEnrollments = len(r.ListEnrollments(models.EnrollmentFilter{Status: models.EnrollmentStatusActive}))
		if sem, ok := r.ActiveSemester(); ok {
			dash.ActiveSemesterID = sem.ID
		}
		dash.GeneratedAt = r.Now()
	})
	return &dash, nil
}

// Dataset renders a report as a flat table for export.
func (s *ReportService) Dataset(ctx context.Context, reportType models.ReportType, filter models.ReportFilter) (export.Dataset, error) {
	switch reportType {
	case models.ReportUtilization:
		rep, err := s.Utilization(ctx, filter)
		if err != nil {
			return export.Dataset{}, err
		}
		data := export.Dataset{
			Title:   "Course Utilization",
			Scope:   reportScope(filter),
			Headers: []string{"Offering", "Course", "Title", "Semester", "Capacity", "Enrolled", "Utilization %"},
			Totals: map[string]string{
				"Offering":      "Total",
				"Capacity":      strconv.Itoa(rep.TotalCapacity),
				"Enrolled":      strconv.Itoa(rep.TotalEnrolled),
				"Utilization %": formatFloat(rep.Utilization),
			},
		}
		for _, row := range rep.Rows {
			data.Rows = append(data.Rows, map[string]string{
				"Offering":      row.OfferingID,
				"Course":        row.CourseID,
				"Title":         row.CourseTitle,
				"Semester":      row.SemesterID,
				"Capacity":      strconv.Itoa(row.Capacity),
				"Enrolled":      strconv.Itoa(row.Enrolled),
				"Utilization %": formatFloat(row.Utilization),
			})
		}
		return data, nil
	case models.ReportTuition:
		rep, err := s.Tuition(ctx, filter)
		if err != nil {
			return export.Dataset{}, err
		}
		return keyValueDataset("Tuition Summary", reportScope(filter), [][2]string{
			{"Charged", formatFloat(rep.Charged)},
			{"Collected", formatFloat(rep.Collected)},
			{"Refunded", formatFloat(rep.Refunded)},
			{"Net Collected", formatFloat(rep.NetCollected)},
			{"Outstanding", formatFloat(rep.Outstanding)},
			{"Paid Enrollments", strconv.Itoa(rep.PaidEnrollments)},
			{"Unpaid Enrollments", strconv.Itoa(rep.UnpaidEnrollments)},
			{"Students With Balance", strconv.Itoa(rep.StudentsWithBalance)},
		}), nil
	case models.ReportGrades:
		rep, err := s.GradeDistribution(ctx, filter)
		if err != nil {
			return export.Dataset{}, err
		}
		return histogramDataset("Grade Distribution", reportScope(filter), "Grade", rep.Buckets), nil
	case models.ReportGPA:
		rep, err := s.GPADistribution(ctx)
		if err != nil {
			return export.Dataset{}, err
		}
		return histogramDataset("GPA Distribution", "All students", "GPA", rep.Buckets), nil
	case models.ReportStanding:
		rep, err := s.StandingSummary(ctx)
		if err != nil {
			return export.Dataset{}, err
		}
		return histogramDataset("Academic Standing", "All students", "Standing", rep.Buckets), nil
	default:
		return export.Dataset{}, appErrors.Validation("unknown report type %q", reportType)
	}
}

// Export renders a report in the requested format.
func (s *ReportService) Export(ctx context.Context, reportType models.ReportType, filter models.ReportFilter, format string) (*export.Document, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Validation("%s", err.Error())
	}
	data, err := s.Dataset(ctx, reportType, filter)
	if err != nil {
		return nil, err
	}
	doc, err := export.Render(data, f, exportBasename(reportType, filter))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	s.logger.Info("report exported",
		zap.String("type", string(reportType)),
		zap.String("format", string(f)),
		zap.Int("bytes", len(doc.Body)),
	)
	return doc, nil
}

func exportBasename(reportType models.ReportType, filter models.ReportFilter) string {
	parts := []string{string(reportType)}
	if filter.SemesterID != "" {
		parts = append(parts, filter.SemesterID)
	}
	if filter.OfferingID != "" {
		parts = append(parts, filter.OfferingID)
	}
	return strings.ToLower(strings.Join(parts, "_"))
}

func histogramDataset(title, scope, label string, buckets []models.HistogramBucket) export.Dataset {
	data := export.Dataset{Title: title, Scope: scope, Headers: []string{label, "Count"}}
	total := 0
	for _, b := range buckets {
		data.Rows = append(data.Rows, map[string]string{label: b.Label, "Count": strconv.Itoa(b.Count)})
		total += b.Count
	}
	data.Totals = map[string]string{label: "Total", "Count": strconv.Itoa(total)}
	return data
}

func keyValueDataset(title, scope string, pairs [][2]string) export.Dataset {
	data := export.Dataset{Title: title, Scope: scope, Headers: []string{"Metric", "Value"}}
	for _, kv := range pairs {
		data.Rows = append(data.Rows, map[string]string{"Metric": kv[0], "Value": kv[1]})
	}
	return data
}

func reportScope(filter models.ReportFilter) string {
	var parts []string
	if filter.SemesterID != "" {
		parts = append(parts, "Semester "+filter.SemesterID)
	}
	if filter.OfferingID != "" {
		parts = append(parts, "Offering "+filter.OfferingID)
	}
	if len(parts) == 0 {
		return "All semesters"
	}
	return strings.Join(parts, ", ")
}

func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return grading.Round2(float64(part) / float64(whole) * 100)
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
