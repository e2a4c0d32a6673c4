package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	"github.com/noah-isme/campus-ledger-api/pkg/response"
)

// PersonHandler exposes account management endpoints.
type PersonHandler struct {
	accounts *service.AccountService
}

// NewPersonHandler constructs PersonHandler.
func NewPersonHandler(accounts *service.AccountService) *PersonHandler {
	return &PersonHandler{accounts: accounts}
}

// Register godoc
// @Summary Register a person
// @Description Creates an admin, registrar, faculty or student account with login credentials
// @Tags People
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Person payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /people [post]
func (h *PersonHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "person"))
		return
	}
	person, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, person)
}

// List godoc
// @Summary List people
// @Tags People
// @Produce json
// @Param role query string false "Role filter"
// @Param departmentId query string false "Department filter"
// @Param search query string false "Search by name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /people [get]
func (h *PersonHandler) List(c *gin.Context) {
	filter := models.PersonFilter{
		Role:         models.UserRole(strings.ToUpper(c.Query("role"))),
		DepartmentID: c.Query("departmentId"),
		Search:       strings.TrimSpace(c.Query("search")),
	}
	filter.Page, filter.PageSize = pageQuery(c)

	people, pagination, err := h.accounts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, people, pagination)
}

// Get godoc
// @Summary Get person detail
// @Tags People
// @Produce json
// @Param id path string true "University ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /people/{id} [get]
func (h *PersonHandler) Get(c *gin.Context) {
	person, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

// UpdateContact godoc
// @Summary Update contact details
// @Tags People
// @Accept json
// @Produce json
// @Param id path string true "University ID"
// @Param payload body service.UpdateContactRequest true "Contact payload"
// @Success 200 {object} response.Envelope
// @Router /people/{id} [patch]
func (h *PersonHandler) UpdateContact(c *gin.Context) {
	var req service.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "contact"))
		return
	}
	person, err := h.accounts.UpdateContact(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

// Remove godoc
// @Summary Remove a person
// @Description Deletes the person and cascades to enrollments, payments, instructor assignments and credentials
// @Tags People
// @Produce json
// @Param id path string true "University ID"
// @Success 200 {object} response.Envelope
// @Router /people/{id} [delete]
func (h *PersonHandler) Remove(c *gin.Context) {
	summary, err := h.accounts.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
