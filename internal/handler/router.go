package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/middleware"
	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	"github.com/noah-isme/campus-ledger-api/internal/service"
)

// Services bundles everything the HTTP surface calls into.
type Services struct {
	Directory   *repository.Directory
	Auth        *service.AuthService
	Accounts    *service.AccountService
	Catalog     *service.CatalogService
	Ledger      *service.EnrollmentService
	Grades      *service.GradeService
	Assignments *service.AssignmentService
	Reports     *service.ReportService
	Exports     *service.ExportService
	Metrics     *service.MetricsService
}

// RegisterRoutes mounts the API under group. Login is public, everything else
// requires a bearer token.
func RegisterRoutes(group *gin.RouterGroup, svc Services) {
	auth := NewAuthHandler(svc.Auth, svc.Accounts)
	people := NewPersonHandler(svc.Accounts)
	catalog := NewCatalogHandler(svc.Catalog)
	enrollments := NewEnrollmentHandler(svc.Ledger, svc.Catalog)
	students := NewStudentHandler(svc.Ledger, svc.Grades)
	assignments := NewAssignmentHandler(svc.Assignments, svc.Grades)
	reports := NewReportHandler(svc.Reports)
	metrics := NewMetricsHandler(svc.Metrics, svc.Directory)

	staff := middleware.StaffOr()
	teaching := middleware.StaffOr(string(models.RoleFaculty))
	self := middleware.StaffOr(middleware.Self)

	group.POST("/auth/login", auth.Login)
	if svc.Exports != nil {
		group.GET("/exports/download/:token", NewExportHandler(svc.Exports).Download)
	}

	secured := group.Group("")
	secured.Use(middleware.JWT(svc.Auth))

	secured.GET("/auth/me", auth.Me)
	secured.POST("/auth/change-password", auth.ChangePassword)

	secured.POST("/people", staff, people.Register)
	secured.GET("/people", staff, people.List)
	secured.GET("/people/:id", self, people.Get)
	secured.PATCH("/people/:id", self, people.UpdateContact)
	secured.DELETE("/people/:id", staff, people.Remove)

	secured.POST("/departments", staff, catalog.CreateDepartment)
	secured.GET("/departments", catalog.ListDepartments)
	secured.GET("/departments/:id/members", catalog.DepartmentMembers)

	secured.POST("/courses", staff, catalog.CreateCourse)
	secured.GET("/courses", catalog.ListCourses)
	secured.GET("/courses/:id", catalog.GetCourse)

	secured.POST("/semesters", staff, catalog.CreateSemester)
	secured.GET("/semesters", catalog.ListSemesters)
	secured.POST("/semesters/:id/activate", staff, catalog.ActivateSemester)

	secured.POST("/offerings", staff, catalog.CreateOffering)
	secured.GET("/offerings", catalog.ListOfferings)
	secured.GET("/offerings/:id", catalog.GetOffering)
	secured.PUT("/offerings/:id/instructor", staff, catalog.AssignInstructor)
	secured.PUT("/offerings/:id/capacity", staff, catalog.UpdateCapacity)
	secured.PUT("/offerings/:id/enrollment", staff, catalog.SetEnrollmentOpen)
	secured.PUT("/offerings/:id/syllabus", teaching, catalog.UpdateSyllabus)
	secured.GET("/offerings/:id/roster", teaching, catalog.Roster)
	secured.GET("/offerings/:id/assignments", assignments.List)
	secured.GET("/offerings/:id/average", teaching, assignments.Average)
	secured.POST("/offerings/:id/finalize", teaching, enrollments.FinalizeOffering)

	secured.POST("/enrollments", enrollments.Enroll)
	secured.GET("/enrollments", enrollments.List)
	secured.GET("/enrollments/:id", enrollments.Get)
	secured.POST("/enrollments/:id/drop", enrollments.Drop)
	secured.POST("/payments", enrollments.Pay)
	secured.POST("/final-grades", teaching, enrollments.AssignFinalGrade)

	secured.GET("/students/:id/account", self, students.Account)
	secured.POST("/students/:id/pay-outstanding", self, students.PayOutstanding)
	secured.GET("/students/:id/transcript", self, students.Transcript)
	secured.GET("/students/:id/gpa", self, students.GPA)
	secured.GET("/students/:id/graduation", self, students.Graduation)
	secured.POST("/students/:id/record/refresh", self, students.RefreshRecord)
	secured.GET("/students/:id/offerings/:offeringId/percentage", self, students.CoursePercentage)

	secured.POST("/assignments", teaching, assignments.Create)
	secured.GET("/assignments/:id", assignments.Get)
	secured.POST("/assignments/:id/submit", assignments.Submit)
	secured.POST("/assignments/:id/grade", teaching, assignments.Grade)

	secured.GET("/reports/dashboard", staff, reports.Dashboard)
	secured.GET("/reports/:type", staff, reports.Report)
	secured.GET("/reports/:type/export", staff, reports.Export)
	if svc.Exports != nil {
		exports := NewExportHandler(svc.Exports)
		secured.POST("/reports/:type/exports", staff, exports.Create)
		secured.GET("/exports/:id", staff, exports.Status)
	}

	secured.GET("/metrics/summary", staff, metrics.Summary)
}
