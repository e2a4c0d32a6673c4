package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var fromGin, fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name   string
		header string
		echoed bool
	}{
		{"caller id kept", "abc-123_x.y", true},
		{"missing id minted", "", false},
		{"unsafe id replaced", "bad id\nforged", false},
		{"overlong id replaced", strings.Repeat("a", maxLength+1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(headerKey, tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get(headerKey)
			require.NotEmpty(t, got)
			assert.Equal(t, got, fromGin)
			assert.Equal(t, got, fromCtx)
			if tc.echoed {
				assert.Equal(t, tc.header, got)
			} else {
				assert.NotEqual(t, tc.header, got)
			}
		})
	}
}
