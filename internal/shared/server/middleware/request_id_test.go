package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/telemetry"
)

func serveRequestID(t *testing.T, header string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var fromCtx string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/id", func(c *gin.Context) {
		fromCtx = telemetry.RequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	if header != "" {
		req.Header.Set("X-Request-Id", header)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp.Header().Get("X-Request-Id"), fromCtx
}

func TestRequestIDKeepsValidInboundID(t *testing.T) {
	got, fromCtx := serveRequestID(t, "abc-123.x")
	if got != "abc-123.x" || fromCtx != "abc-123.x" {
		t.Fatalf("expected inbound id to be kept, got header %q ctx %q", got, fromCtx)
	}
}

func TestRequestIDReplacesUnsafeInboundID(t *testing.T) {
	for _, bad := range []string{"has space", "new\nline", strings.Repeat("a", 200)} {
		got, fromCtx := serveRequestID(t, bad)
		if got == bad || got == "" || got != fromCtx {
			t.Fatalf("expected generated id for %q, got header %q ctx %q", bad, got, fromCtx)
		}
	}
}
