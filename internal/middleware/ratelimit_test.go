package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(t *testing.T, rps float64, burst int) (*gin.Engine, *RateLimiter) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rl := NewRateLimiter(ctx, rps, burst)

	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/login", func(c *gin.Context) {
		c.String(200, "ok")
	})
	return router, rl
}

func TestRateLimit_AllowsNormalRequests(t *testing.T) {
	router, _ := newLimitedRouter(t, 10, 10)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_BlocksExcessiveRequests(t *testing.T) {
	router, _ := newLimitedRouter(t, 1, 2)

	// Send burst+1 requests rapidly, last one should be blocked
	var lastCode int
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		router.ServeHTTP(w, req)
		lastCode = w.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, lastCode)
	}
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	router, _ := newLimitedRouter(t, 1, 1)

	for _, addr := range []string{"10.0.0.1:12345", "10.0.0.2:12345"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/login", nil)
		req.RemoteAddr = addr
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s first request: expected %d, got %d", addr, http.StatusOK, w.Code)
		}
	}
}

func TestRateLimit_EvictIdle(t *testing.T) {
	_, rl := newLimitedRouter(t, 1, 1)
	rl.getLimiter("10.0.0.1")
	rl.getLimiter("10.0.0.2")

	if n := rl.evictIdle(time.Now()); n != 0 {
		t.Errorf("evicted %d fresh entries", n)
	}
	if n := rl.evictIdle(time.Now().Add(idleTTL + time.Second)); n != 2 {
		t.Errorf("evicted %d idle entries, expected 2", n)
	}
}
