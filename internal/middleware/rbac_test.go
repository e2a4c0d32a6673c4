package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	"github.com/noah-isme/campus-ledger-api/internal/service"
)

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func TestRBAC(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		claims *models.JWTClaims
		path   string
		want   int
	}{
		{name: "anonymous", claims: nil, path: "/students/U-000001", want: http.StatusUnauthorized},
		{name: "registrar", claims: &models.JWTClaims{UserID: "U-000009", Role: models.RoleRegistrar}, path: "/students/U-000001", want: http.StatusOK},
		{name: "self", claims: &models.JWTClaims{UserID: "U-000001", Role: models.RoleStudent}, path: "/students/U-000001", want: http.StatusOK},
		{name: "other student", claims: &models.JWTClaims{UserID: "U-000002", Role: models.RoleStudent}, path: "/students/U-000001", want: http.StatusForbidden},
		{name: "faculty", claims: &models.JWTClaims{UserID: "U-000003", Role: models.RoleFaculty}, path: "/students/U-000001", want: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/students/:id", withClaims(tc.claims), StaffOr(Self), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := repository.NewDirectory()
	auth := service.NewAuthService(dir, nil, nil, service.AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour})
	accounts := service.NewAccountService(dir, nil, nil)
	person, err := accounts.Register(context.Background(), service.RegisterRequest{Role: models.RoleAdmin, Name: "Root", Email: "root@campus.test", Password: "secret123"})
	require.NoError(t, err)
	login, err := auth.Login(context.Background(), models.LoginRequest{Email: "root@campus.test", Password: "secret123"})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", JWT(auth), func(c *gin.Context) {
		actor := Actor(c)
		c.String(http.StatusOK, actor.ID)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, person.ID, rec.Body.String())
}
