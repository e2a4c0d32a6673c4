package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	"github.com/noah-isme/campus-ledger-api/pkg/response"
)

// AuthHandler serves login and the caller's own identity.
type AuthHandler struct {
	auth     *service.AuthService
	accounts *service.AccountService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth *service.AuthService, accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{auth: auth, accounts: accounts}
}

// Login godoc
// @Summary Exchange email and password for a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "login"))
		return
	}
	session, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil, map[string]interface{}{"token_type": "Bearer"})
}

// ChangePassword godoc
// @Summary Change the caller's password
// @Tags Authentication
// @Accept json
// @Param payload body models.ChangePasswordRequest true "Old and new password"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "change password"))
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), claimsFromContext(c).UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary The caller's directory record
// @Description Students get their program and balance, faculty their office and department.
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	person, err := h.accounts.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil, map[string]interface{}{"staff": claims.Staff()})
}
