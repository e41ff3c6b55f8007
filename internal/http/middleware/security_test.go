package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveWithSecurity(t *testing.T, opt SecurityOptions, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(opt))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	w := serveWithSecurity(t, SecurityOptions{}, nil)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("nosniff missing: %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("frame options: %q", got)
	}
	if got := w.Header().Get("Referrer-Policy"); got != "no-referrer" {
		t.Fatalf("referrer policy: %q", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS must be off by default: %q", got)
	}
}

func TestSecurityHeaders_NoStoreAndPolicy(t *testing.T) {
	w := serveWithSecurity(t, SecurityOptions{NoStore: true, EnablePolicy: true}, nil)

	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("cache control: %q", got)
	}
	if got := w.Header().Get("Permissions-Policy"); got == "" {
		t.Fatalf("permissions policy missing")
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}

	w := serveWithSecurity(t, opt, nil)
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS must not be emitted over plain HTTP: %q", got)
	}

	w = serveWithSecurity(t, opt, func(req *http.Request) {
		req.Header.Set("X-Forwarded-Proto", "https")
	})
	got := w.Header().Get("Strict-Transport-Security")
	if !strings.HasPrefix(got, "max-age=86400") {
		t.Fatalf("unexpected HSTS header: %q", got)
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	w := serveWithSecurity(t, SecurityOptions{}, nil)
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "X-Request-ID") {
		t.Fatalf("expected X-Request-ID exposed, got %q", got)
	}
}
