package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment ledger: enroll, drop, pay and final grading.
type EnrollmentHandler struct {
	ledger  *service.EnrollmentService
	catalog *service.CatalogService
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(ledger *service.EnrollmentService, catalog *service.CatalogService) *EnrollmentHandler {
	return &EnrollmentHandler{ledger: ledger, catalog: catalog}
}

// Enroll godoc
// @Summary Enroll a student in an offering
// @Description Charges tuition and takes a seat when every enrollment rule passes
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "enrollment"))
		return
	}
	if err := actingFor(c, req.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.ledger.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Drop godoc
// @Summary Drop an active enrollment
// @Description Frees the seat and reverses tuition, refunding it when already paid
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrollments/{id}/drop [post]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	current, err := h.ledger.GetEnrollment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := actingFor(c, current.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.ledger.Drop(c.Request.Context(), current.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Pay godoc
// @Summary Pay tuition for one enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.PayRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments [post]
func (h *EnrollmentHandler) Pay(c *gin.Context) {
	var req service.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "payment"))
		return
	}
	if err := actingFor(c, req.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	payment, err := h.ledger.Pay(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId query string false "Student filter"
// @Param offeringId query string false "Offering filter"
// @Param semesterId query string false "Semester filter"
// @Param status query string false "ACTIVE, COMPLETED or DROPPED"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		StudentID:  c.Query("studentId"),
		OfferingID: c.Query("offeringId"),
		SemesterID: c.Query("semesterId"),
		Status:     models.EnrollmentStatus(strings.ToUpper(c.Query("status"))),
	}
	filter.Page, filter.PageSize = pageQuery(c)
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	enrollments, pagination, err := h.ledger.ListEnrollments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get godoc
// @Summary Get enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.ledger.GetEnrollment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent && claims.UserID != enrollment.StudentID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// AssignFinalGrade godoc
// @Summary Assign the final grade of one student
// @Description Converts the assignment percentage into a letter and completes the enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.FinalGradeRequest true "Final grade payload"
// @Success 200 {object} response.Envelope
// @Router /final-grades [post]
func (h *EnrollmentHandler) AssignFinalGrade(c *gin.Context) {
	var req service.FinalGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "final grade"))
		return
	}
	if err := h.teaches(c, req.OfferingID); err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.ledger.AssignFinalGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// FinalizeOffering godoc
// @Summary Assign final grades to every active enrollment of an offering
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/finalize [post]
func (h *EnrollmentHandler) FinalizeOffering(c *gin.Context) {
	offeringID := c.Param("id")
	if err := h.teaches(c, offeringID); err != nil {
		response.Error(c, err)
		return
	}
	graded, err := h.ledger.FinalizeOffering(c.Request.Context(), offeringID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, graded, nil)
}

// teaches allows staff, or the faculty member assigned to the offering.
func (h *EnrollmentHandler) teaches(c *gin.Context, offeringID string) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Staff() {
		return nil
	}
	offering, err := h.catalog.GetOffering(c.Request.Context(), offeringID)
	if err != nil {
		return err
	}
	if claims.Role != models.RoleFaculty || offering.InstructorID != claims.UserID {
		return appErrors.Forbidden("only the course instructor may assign final grades")
	}
	return nil
}
