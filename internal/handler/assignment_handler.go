package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/middleware"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	"github.com/noah-isme/campus-ledger-api/pkg/response"
)

// AssignmentHandler exposes coursework endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
	grades      *service.GradeService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService, grades *service.GradeService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, grades: grades}
}

// Create godoc
// @Summary Create assignment
// @Description Only the offering instructor or staff may create assignments
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "assignment"))
		return
	}
	assignment, err := h.assignments.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// List godoc
// @Summary List assignments of an offering
// @Description Students only see their own submission
// @Tags Assignments
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	assignments, err := h.assignments.List(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Average godoc
// @Summary Average assignment percentage of an offering
// @Tags Assignments
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/average [get]
func (h *AssignmentHandler) Average(c *gin.Context) {
	avg, err := h.grades.CourseAverage(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"offering_id": c.Param("id"), "average": avg}, nil)
}

// Get godoc
// @Summary Get assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.assignments.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

type submitPayload struct {
	StudentID string `json:"student_id"`
}

// Submit godoc
// @Summary Submit an assignment
// @Description Students submit for themselves; staff may submit on behalf of a student
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body submitPayload false "Student (staff only)"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submit [post]
func (h *AssignmentHandler) Submit(c *gin.Context) {
	var payload submitPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.Error(c, bindError(err, "submission"))
			return
		}
	}
	if payload.StudentID == "" {
		payload.StudentID = middleware.Actor(c).ID
	}
	if err := actingFor(c, payload.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	submission, err := h.assignments.Submit(c.Request.Context(), c.Param("id"), payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Grade godoc
// @Summary Grade a submission
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.GradeSubmissionRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assignments/{id}/grade [post]
func (h *AssignmentHandler) Grade(c *gin.Context) {
	var req service.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "grade"))
		return
	}
	submission, err := h.assignments.Grade(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
