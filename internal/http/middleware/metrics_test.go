package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/forms/:id/qr", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/forms/:id/qr", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forms/ABCD2345/qr", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/forms/:id/qr", "200"))
	if after != before+1 {
		t.Fatalf("counter did not increment: before=%v after=%v", before, after)
	}
}

func TestMetrics_UsesRawPathWhenUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nowhere", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nowhere", "404"))
	if after != before+1 {
		t.Fatalf("unmatched route counter did not increment")
	}
}
