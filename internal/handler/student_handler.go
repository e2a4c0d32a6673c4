package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/service"
	"github.com/noah-isme/campus-ledger-api/pkg/response"
)

// StudentHandler exposes the per-student ledger and academic record views.
// Routes are mounted under /students/:id and guarded with SELF access.
type StudentHandler struct {
	ledger *service.EnrollmentService
	grades *service.GradeService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(ledger *service.EnrollmentService, grades *service.GradeService) *StudentHandler {
	return &StudentHandler{ledger: ledger, grades: grades}
}

// Account godoc
// @Summary Student account
// @Description Balance, enrollments and payments of a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/account [get]
func (h *StudentHandler) Account(c *gin.Context) {
	account, err := h.ledger.StudentAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// PayOutstanding godoc
// @Summary Pay every unpaid active enrollment
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/pay-outstanding [post]
func (h *StudentHandler) PayOutstanding(c *gin.Context) {
	payments, err := h.ledger.PayOutstanding(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payments)
}

// Transcript godoc
// @Summary Student transcript
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *StudentHandler) Transcript(c *gin.Context) {
	transcript, err := h.grades.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// GPA godoc
// @Summary Term and overall GPA
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param semesterId query string false "Semester for the term GPA"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/gpa [get]
func (h *StudentHandler) GPA(c *gin.Context) {
	ctx := c.Request.Context()
	studentID := c.Param("id")
	overall, err := h.grades.OverallGPA(ctx, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := gin.H{"student_id": studentID, "overall_gpa": overall}
	if semesterID := c.Query("semesterId"); semesterID != "" {
		term, err := h.grades.TermGPA(ctx, studentID, semesterID)
		if err != nil {
			response.Error(c, err)
			return
		}
		payload["semester_id"] = semesterID
		payload["term_gpa"] = term
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Graduation godoc
// @Summary Graduation eligibility
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/graduation [get]
func (h *StudentHandler) Graduation(c *gin.Context) {
	status, err := h.grades.GraduationStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// RefreshRecord godoc
// @Summary Recompute GPA, credits and standing
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param semesterId query string false "Semester for the term GPA"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/record/refresh [post]
func (h *StudentHandler) RefreshRecord(c *gin.Context) {
	record, err := h.grades.RefreshAcademicRecord(c.Request.Context(), c.Param("id"), c.Query("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// CoursePercentage godoc
// @Summary Assignment percentage of a student in an offering
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param offeringId path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/offerings/{offeringId}/percentage [get]
func (h *StudentHandler) CoursePercentage(c *gin.Context) {
	pct, err := h.grades.CoursePercentage(c.Request.Context(), c.Param("id"), c.Param("offeringId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": c.Param("id"), "offering_id": c.Param("offeringId"), "percentage": pct}, nil)
}
