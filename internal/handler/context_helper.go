package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/middleware"
	"github.com/noah-isme/campus-ledger-api/internal/models"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// actingFor rejects a student acting on behalf of another student. Staff may
// act for anyone; faculty never act for students.
func actingFor(c *gin.Context, studentID string) error {
	claims := claimsFromContext(c)
	switch {
	case claims == nil:
		return appErrors.ErrUnauthorized
	case claims.Staff():
		return nil
	case claims.Role == models.RoleStudent && claims.UserID == studentID:
		return nil
	}
	return appErrors.Forbidden("students may only act for themselves")
}

func bindError(err error, what string) error {
	return appErrors.Invalid(err, "invalid "+what+" payload")
}

func pageQuery(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, size
}
