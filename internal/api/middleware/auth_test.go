package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/run", CronAuth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestCronAuth(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
	}{
		{name: "valid token", secret: "s3cret", header: "Bearer s3cret", wantStatus: http.StatusOK},
		{name: "wrong token", secret: "s3cret", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "missing header", secret: "s3cret", header: "", wantStatus: http.StatusUnauthorized},
		{name: "missing bearer prefix", secret: "s3cret", header: "s3cret", wantStatus: http.StatusUnauthorized},
		{name: "lowercase scheme", secret: "s3cret", header: "bearer s3cret", wantStatus: http.StatusUnauthorized},
		{name: "empty secret rejects all", secret: "", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "empty secret rejects empty token", secret: "", header: "Bearer", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(tt.secret)

			req := httptest.NewRequest(http.MethodPost, "/run", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
