package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(100, 5, KeyByClientOrIP())
	r := gin.New()
	r.Use(rl.Handler())
	r.POST("/forms", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/forms", nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, w.Code)
		}
	}
}

func TestRateLimiter_RejectsWhenExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 1, KeyByClientOrIP()) // 1 token, never refilled
	r := gin.New()
	r.Use(rl.Handler())
	r.POST("/forms", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/forms", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("first request should pass, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/forms", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra != "1" {
		t.Fatalf("expected Retry-After header, got %q", ra)
	}
}

func TestRateLimiter_SeparateBucketsPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 1, KeyByClientOrIP())
	r := gin.New()
	r.Use(rl.Handler())
	r.POST("/forms", func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(client string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/forms", nil)
		req.Header.Set(HeaderClientID, client)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("a"); code != http.StatusCreated {
		t.Fatalf("client a first: %d", code)
	}
	if code := send("b"); code != http.StatusCreated {
		t.Fatalf("client b should have its own bucket: %d", code)
	}
	if code := send("a"); code != http.StatusTooManyRequests {
		t.Fatalf("client a second: expected 429, got %d", code)
	}
}

func TestRateLimiter_BypassOnReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 1, KeyByClientOrIP())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	r.Use(rl.Handler())
	r.PUT("/forms", func(c *gin.Context) { c.Status(http.StatusOK) })

	// With bypass set, every request passes regardless of tokens.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/forms", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("bypassed request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestNewRateLimiter_CoercesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByClientOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst should be coerced to 1, got %d", rl.burst)
	}
}
