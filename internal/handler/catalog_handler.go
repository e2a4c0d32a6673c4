package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	"github.com/noah-isme/campus-ledger-api/pkg/response"
)

// CatalogHandler exposes departments, courses, semesters and offerings.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *CatalogHandler) CreateDepartment(c *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "department"))
		return
	}
	dept, err := h.catalog.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dept)
}

// ListDepartments godoc
// @Summary List departments
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.ListDepartments(c.Request.Context()), nil)
}

// DepartmentMembers godoc
// @Summary Department faculty and students
// @Tags Catalog
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/members [get]
func (h *CatalogHandler) DepartmentMembers(c *gin.Context) {
	members, err := h.catalog.DepartmentMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// CreateCourse godoc
// @Summary Create course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "course"))
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// ListCourses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.ListCourses(c.Request.Context()), nil)
}

// GetCourse godoc
// @Summary Get course
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID, e.g. INFO 5100"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.catalog.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// CreateSemester godoc
// @Summary Create semester
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *CatalogHandler) CreateSemester(c *gin.Context) {
	var req service.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "semester"))
		return
	}
	semester, err := h.catalog.CreateSemester(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// ListSemesters godoc
// @Summary List semesters
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *CatalogHandler) ListSemesters(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.ListSemesters(c.Request.Context()), nil)
}

// ActivateSemester godoc
// @Summary Make a semester the active one
// @Tags Catalog
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/activate [post]
func (h *CatalogHandler) ActivateSemester(c *gin.Context) {
	semester, err := h.catalog.ActivateSemester(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// CreateOffering godoc
// @Summary Schedule a course offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Param payload body service.CreateOfferingRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Router /offerings [post]
func (h *CatalogHandler) CreateOffering(c *gin.Context) {
	var req service.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "offering"))
		return
	}
	offering, err := h.catalog.CreateOffering(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

// ListOfferings godoc
// @Summary List offerings
// @Tags Offerings
// @Produce json
// @Param semesterId query string false "Semester filter"
// @Param courseId query string false "Course filter"
// @Param instructorId query string false "Instructor filter"
// @Param open query bool false "Only offerings open for enrollment"
// @Success 200 {object} response.Envelope
// @Router /offerings [get]
func (h *CatalogHandler) ListOfferings(c *gin.Context) {
	filter := models.OfferingFilter{
		SemesterID:   c.Query("semesterId"),
		CourseID:     c.Query("courseId"),
		InstructorID: c.Query("instructorId"),
	}
	filter.OpenOnly, _ = strconv.ParseBool(c.Query("open"))
	response.JSON(c, http.StatusOK, h.catalog.ListOfferings(c.Request.Context(), filter), nil)
}

// GetOffering godoc
// @Summary Get offering
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id} [get]
func (h *CatalogHandler) GetOffering(c *gin.Context) {
	offering, err := h.catalog.GetOffering(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

type assignInstructorPayload struct {
	InstructorID string `json:"instructor_id" binding:"required"`
}

// AssignInstructor godoc
// @Summary Assign the offering instructor
// @Tags Offerings
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body assignInstructorPayload true "Instructor"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/instructor [put]
func (h *CatalogHandler) AssignInstructor(c *gin.Context) {
	var payload assignInstructorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, bindError(err, "instructor"))
		return
	}
	offering, err := h.catalog.AssignInstructor(c.Request.Context(), c.Param("id"), payload.InstructorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

type capacityPayload struct {
	Capacity int `json:"capacity"`
}

// UpdateCapacity godoc
// @Summary Change offering capacity
// @Tags Offerings
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body capacityPayload true "Capacity"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /offerings/{id}/capacity [put]
func (h *CatalogHandler) UpdateCapacity(c *gin.Context) {
	var payload capacityPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, bindError(err, "capacity"))
		return
	}
	offering, err := h.catalog.UpdateCapacity(c.Request.Context(), c.Param("id"), payload.Capacity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

type enrollmentOpenPayload struct {
	Open bool `json:"open"`
}

// SetEnrollmentOpen godoc
// @Summary Open or close enrollment
// @Tags Offerings
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body enrollmentOpenPayload true "Open flag"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/enrollment [put]
func (h *CatalogHandler) SetEnrollmentOpen(c *gin.Context) {
	var payload enrollmentOpenPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, bindError(err, "enrollment"))
		return
	}
	offering, err := h.catalog.SetEnrollmentOpen(c.Request.Context(), c.Param("id"), payload.Open)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

type syllabusPayload struct {
	Syllabus string `json:"syllabus"`
}

// UpdateSyllabus godoc
// @Summary Replace the offering syllabus
// @Tags Offerings
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param payload body syllabusPayload true "Syllabus"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/syllabus [put]
func (h *CatalogHandler) UpdateSyllabus(c *gin.Context) {
	var payload syllabusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, bindError(err, "syllabus"))
		return
	}
	offering, err := h.catalog.UpdateSyllabus(c.Request.Context(), c.Param("id"), payload.Syllabus)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// Roster godoc
// @Summary Students actively enrolled in an offering
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/roster [get]
func (h *CatalogHandler) Roster(c *gin.Context) {
	roster, err := h.catalog.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}
