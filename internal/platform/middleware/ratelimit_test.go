package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func makeRateLimitContext(e *echo.Echo, ip string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 3; i++ {
		c, _ := makeRateLimitContext(e, "10.0.0.1")
		if err := h(c); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	var lastErr error
	var lastRec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		c, rec := makeRateLimitContext(e, "10.0.0.2")
		lastErr = h(c)
		lastRec = rec
	}

	if lastErr == nil {
		t.Fatal("expected rate limit error on third request")
	}
	httpErr, ok := lastErr.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", lastErr)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	if lastRec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on rejected request")
	}
}

func TestRateLimit_SubjectsShareIPWithoutInterference(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	c1, _ := makeRateLimitContext(e, "10.0.0.9")
	c1.Set("jwt_subject", "biller-a")
	if err := h(c1); err != nil {
		t.Fatalf("unexpected error for first subject: %v", err)
	}

	// Same source IP, different authenticated subject: separate limiter.
	c2, _ := makeRateLimitContext(e, "10.0.0.9")
	c2.Set("jwt_subject", "biller-b")
	if err := h(c2); err != nil {
		t.Fatalf("unexpected error for second subject: %v", err)
	}
}

func TestRateLimit_SeparateKeysSeparateBuckets(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	c1, _ := makeRateLimitContext(e, "10.0.0.3")
	if err := h(c1); err != nil {
		t.Fatalf("unexpected error for first client: %v", err)
	}

	c2, _ := makeRateLimitContext(e, "10.0.0.4")
	if err := h(c2); err != nil {
		t.Fatalf("unexpected error for second client: %v", err)
	}
}
