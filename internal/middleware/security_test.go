package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func securityRequest(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/insights/monthly", nil)
	SecurityHeaders()(c)
	return w
}

func TestSecurityHeadersSet(t *testing.T) {
	t.Setenv("RITUAL_SERVER_ENV", "development")

	w := securityRequest(t)

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Cache-Control":           "no-store, no-cache, must-revalidate, proxy-revalidate",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}

	// HSTS stays off outside production
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security = %q, want unset in development", got)
	}
}

func TestSecurityHeadersHSTSInProduction(t *testing.T) {
	t.Setenv("RITUAL_SERVER_ENV", "production")

	w := securityRequest(t)

	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("Strict-Transport-Security = %q, want HSTS in production", got)
	}
}
