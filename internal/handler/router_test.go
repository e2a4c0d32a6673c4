package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	"github.com/noah-isme/campus-ledger-api/pkg/config"
	"github.com/noah-isme/campus-ledger-api/pkg/jobs"
	"github.com/noah-isme/campus-ledger-api/pkg/storage"
)

type apiFixture struct {
	t        *testing.T
	router   *gin.Engine
	svc      Services
	offering models.OfferingDetail
	faculty  models.Person
	alice    models.Person
	bob      models.Person
	tokens   map[string]string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	rules := config.DefaultLedger()

	dir := repository.NewDirectory()
	metrics := service.NewMetricsService()
	reports := service.NewReportService(dir, nil)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exports := service.NewExportService(reports, store, storage.NewSignedURLSigner("test-secret", time.Hour), service.ExportConfig{APIPrefix: "/api/v1"}, nil)
	queue := jobs.NewQueue("exports", exports.Handle, jobs.QueueConfig{RetryDelay: time.Millisecond, OnGiveUp: exports.GiveUp})
	queue.Start(ctx)
	t.Cleanup(queue.Stop)
	exports.UseQueue(queue)

	svc := Services{
		Directory:   dir,
		Auth:        service.NewAuthService(dir, nil, nil, service.AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour}),
		Accounts:    service.NewAccountService(dir, nil, nil).WithHashCost(bcrypt.MinCost).WithMetrics(metrics),
		Catalog:     service.NewCatalogService(dir, nil, nil),
		Ledger:      service.NewEnrollmentService(dir, rules, metrics, nil, nil),
		Grades:      service.NewGradeService(dir, rules, nil),
		Assignments: service.NewAssignmentService(dir, nil, nil),
		Reports:     reports,
		Exports:     exports,
		Metrics:     metrics,
	}

	f := &apiFixture{t: t, svc: svc, tokens: map[string]string{}}
	dept, err := svc.Catalog.CreateDepartment(ctx, service.CreateDepartmentRequest{Name: "Information Systems"})
	require.NoError(t, err)

	register := func(role models.UserRole, name, email string) models.Person {
		p, err := svc.Accounts.Register(ctx, service.RegisterRequest{Role: role, Name: name, Email: email, Password: "secret123", DepartmentID: dept.ID})
		require.NoError(t, err)
		login, err := svc.Auth.Login(ctx, models.LoginRequest{Email: email, Password: "secret123"})
		require.NoError(t, err)
		f.tokens[p.ID] = login.AccessToken
		return *p
	}
	registrar := register(models.RoleRegistrar, "Rita Registrar", "rita@campus.test")
	f.tokens["registrar"] = f.tokens[registrar.ID]
	f.faculty = register(models.RoleFaculty, "Grace Hopper", "grace@campus.test")
	other := register(models.RoleFaculty, "Alan Turing", "alan@campus.test")
	f.tokens["other-faculty"] = f.tokens[other.ID]
	f.alice = register(models.RoleStudent, "Alice Liddell", "alice@campus.test")
	f.bob = register(models.RoleStudent, "Bob Builder", "bob@campus.test")

	_, err = svc.Catalog.CreateCourse(ctx, service.CreateCourseRequest{ID: "INFO 5100", Title: "Application Engineering", CreditHours: 4, CoreRequired: true})
	require.NoError(t, err)
	semester, err := svc.Catalog.CreateSemester(ctx, service.CreateSemesterRequest{
		Term:      models.TermFall,
		Year:      2025,
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		Active:    true,
	})
	require.NoError(t, err)
	offering, err := svc.Catalog.CreateOffering(ctx, service.CreateOfferingRequest{
		CourseID:     "INFO 5100",
		SemesterID:   semester.ID,
		InstructorID: f.faculty.ID,
		Capacity:     1,
	})
	require.NoError(t, err)
	f.offering = *offering

	f.router = gin.New()
	RegisterRoutes(f.router.Group("/api/v1"), svc)
	return f
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *apiFixture) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	f.t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)

	rec, _ := f.do(http.MethodGet, "/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = f.do(http.MethodGet, "/courses", f.tokens[f.alice.ID], nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthResponsesCarryMeta(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "alice@campus.test", Password: "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer", env.Meta["token_type"])
	var session models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.NotEmpty(t, session.AccessToken)

	rec, env = f.do(http.MethodGet, "/auth/me", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, env.Meta["staff"])
	var me models.Person
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, f.alice.ID, me.ID)

	_, env = f.do(http.MethodGet, "/auth/me", f.tokens["registrar"], nil)
	assert.Equal(t, true, env.Meta["staff"])
}

func TestStudentsSeeOnlyTheirOwnSubmissions(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ledger.Enroll(ctx, service.EnrollRequest{StudentID: f.alice.ID, OfferingID: f.offering.ID})
	require.NoError(t, err)
	instructor := service.Actor{ID: f.faculty.ID, Role: models.RoleFaculty}
	lab, err := f.svc.Assignments.Create(ctx, instructor, service.CreateAssignmentRequest{OfferingID: f.offering.ID, Title: "Lab 1", MaxPoints: 50})
	require.NoError(t, err)
	_, err = f.svc.Assignments.Grade(ctx, instructor, lab.ID, service.GradeSubmissionRequest{StudentID: f.alice.ID, Score: 42})
	require.NoError(t, err)

	decode := func(env envelope) models.Assignment {
		var a models.Assignment
		require.NoError(t, json.Unmarshal(env.Data, &a))
		return a
	}

	rec, env := f.do(http.MethodGet, "/assignments/"+lab.ID, f.tokens[f.bob.ID], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(env).Submissions)
	assert.NotContains(t, string(env.Data), f.alice.ID)

	rec, env = f.do(http.MethodGet, "/offerings/"+f.offering.ID+"/assignments", f.tokens[f.bob.ID], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []models.Assignment
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Submissions)

	_, env = f.do(http.MethodGet, "/assignments/"+lab.ID, f.tokens[f.alice.ID], nil)
	own := decode(env)
	require.Len(t, own.Submissions, 1)
	assert.Equal(t, 42.0, own.SubmissionFor(f.alice.ID).Awarded())

	_, env = f.do(http.MethodGet, "/assignments/"+lab.ID, f.tokens["other-faculty"], nil)
	assert.Empty(t, decode(env).Submissions)

	_, env = f.do(http.MethodGet, "/assignments/"+lab.ID, f.tokens[f.faculty.ID], nil)
	assert.Len(t, decode(env).Submissions, 1)
	_, env = f.do(http.MethodGet, "/assignments/"+lab.ID, f.tokens["registrar"], nil)
	assert.Equal(t, 42.0, decode(env).SubmissionFor(f.alice.ID).Awarded())
}

func TestStudentsActOnlyForThemselves(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.tokens[f.alice.ID]

	rec, env := f.do(http.MethodPost, "/enrollments", alice, service.EnrollRequest{StudentID: f.bob.ID, OfferingID: f.offering.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)

	rec, _ = f.do(http.MethodPost, "/enrollments", alice, service.EnrollRequest{StudentID: f.alice.ID, OfferingID: f.offering.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = f.do(http.MethodGet, "/students/"+f.bob.ID+"/account", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = f.do(http.MethodGet, "/students/"+f.alice.ID+"/account", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var account models.StudentAccount
	require.NoError(t, json.Unmarshal(env.Data, &account))
	assert.Equal(t, 4000.0, account.Balance)
	require.Len(t, account.Enrollments, 1)

	rec, _ = f.do(http.MethodGet, "/enrollments/"+account.Enrollments[0].ID, f.tokens[f.bob.ID], nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(http.MethodPost, "/enrollments/"+account.Enrollments[0].ID+"/drop", f.tokens[f.bob.ID], nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(http.MethodGet, "/reports/tuition", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLedgerRejectionsSurfaceAsValidationErrors(t *testing.T) {
	f := newAPIFixture(t)
	registrar := f.tokens["registrar"]

	rec, _ := f.do(http.MethodPost, "/enrollments", registrar, service.EnrollRequest{StudentID: f.alice.ID, OfferingID: f.offering.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := f.do(http.MethodPost, "/enrollments", registrar, service.EnrollRequest{StudentID: f.bob.ID, OfferingID: f.offering.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Course is full", env.Error.Message)

	rec, env = f.do(http.MethodPut, "/offerings/"+f.offering.ID+"/capacity", registrar, map[string]int{"capacity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)

	rec, _ = f.do(http.MethodPost, "/enrollments", registrar, map[string]string{"student_id": f.bob.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinalGradesRequireTheInstructor(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ledger.Enroll(ctx, service.EnrollRequest{StudentID: f.alice.ID, OfferingID: f.offering.ID})
	require.NoError(t, err)

	rec, _ := f.do(http.MethodPost, "/assignments", f.tokens["other-faculty"], service.CreateAssignmentRequest{OfferingID: f.offering.ID, Title: "Lab 1", MaxPoints: 100})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := f.do(http.MethodPost, "/assignments", f.tokens[f.faculty.ID], service.CreateAssignmentRequest{OfferingID: f.offering.ID, Title: "Lab 1", MaxPoints: 100})
	require.Equal(t, http.StatusCreated, rec.Code)
	var assignment models.Assignment
	require.NoError(t, json.Unmarshal(env.Data, &assignment))

	rec, _ = f.do(http.MethodPost, "/assignments/"+assignment.ID+"/submit", f.tokens[f.alice.ID], nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(http.MethodPost, "/assignments/"+assignment.ID+"/grade", f.tokens[f.faculty.ID], service.GradeSubmissionRequest{StudentID: f.alice.ID, Score: 95})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(http.MethodPost, "/offerings/"+f.offering.ID+"/finalize", f.tokens["other-faculty"], nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = f.do(http.MethodPost, "/offerings/"+f.offering.ID+"/finalize", f.tokens[f.faculty.ID], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var graded []models.Enrollment
	require.NoError(t, json.Unmarshal(env.Data, &graded))
	require.Len(t, graded, 1)
	require.NotNil(t, graded[0].Grade)
	assert.Equal(t, "A", *graded[0].Grade)

	rec, env = f.do(http.MethodGet, "/students/"+f.alice.ID+"/gpa", f.tokens[f.alice.ID], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var gpa struct {
		OverallGPA float64 `json:"overall_gpa"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &gpa))
	assert.Equal(t, 4.0, gpa.OverallGPA)
}

func TestReportExportDownload(t *testing.T) {
	f := newAPIFixture(t)

	rec, _ := f.do(http.MethodGet, "/reports/utilization/export?format=csv", f.tokens["registrar"], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "utilization.csv")
	assert.Contains(t, rec.Body.String(), "Offering,Course,Title")

	rec, env := f.do(http.MethodGet, "/reports/utilization/export?format=docx", f.tokens["registrar"], nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)

	rec, _ = f.do(http.MethodGet, "/reports/bogus", f.tokens["registrar"], nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(http.MethodGet, "/reports/dashboard", f.tokens["registrar"], nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBackgroundExportFlow(t *testing.T) {
	f := newAPIFixture(t)
	registrar := f.tokens["registrar"]

	rec, _ := f.do(http.MethodPost, "/reports/tuition/exports", f.tokens[f.alice.ID], nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := f.do(http.MethodPost, "/reports/tuition/exports", registrar, map[string]string{"format": "xlsx"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var job models.ExportJob
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	require.Eventually(t, func() bool {
		rec, env := f.do(http.MethodGet, "/exports/"+job.ID, registrar, nil)
		if rec.Code != http.StatusOK || json.Unmarshal(env.Data, &job) != nil {
			return false
		}
		return job.Status == models.ExportStatusFinished
	}, 5*time.Second, 10*time.Millisecond)
	require.NotEmpty(t, job.ResultURL)

	req := httptest.NewRequest(http.MethodGet, job.ResultURL, nil)
	dl := httptest.NewRecorder()
	f.router.ServeHTTP(dl, req)
	assert.Equal(t, http.StatusOK, dl.Code)
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "tuition.xlsx")
	assert.NotZero(t, dl.Body.Len())

	rec, _ = f.do(http.MethodGet, "/exports/download/not-a-token", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(http.MethodPost, "/reports/bogus/exports", registrar, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
