package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func hit(t *testing.T, mw echo.MiddlewareFunc, ip, tenant string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/payments", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if tenant != "" {
		c.Set("jwt_tenant_id", tenant)
	}
	return rec, mw(ok)(c)
}

func TestRateLimit_AllowsBurstThenRejects(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 3})

	for i := 0; i < 3; i++ {
		if _, err := hit(t, mw, "10.0.0.1", ""); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	rec, err := hit(t, mw, "10.0.0.1", "")
	he, isHTTP := err.(*echo.HTTPError)
	if !isHTTP || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Error("expected X-RateLimit-Remaining: 0")
	}
}

func TestRateLimit_SeparateKeys(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})

	if _, err := hit(t, mw, "10.0.0.1", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := hit(t, mw, "10.0.0.2", ""); err != nil {
		t.Errorf("different IP should have its own bucket: %v", err)
	}
	if _, err := hit(t, mw, "10.0.0.1", "clinic_b"); err != nil {
		t.Errorf("different tenant should have its own bucket: %v", err)
	}
	if _, err := hit(t, mw, "10.0.0.1", ""); err == nil {
		t.Error("expected exhausted bucket to reject")
	}
}

func TestLimiterStore_EvictsIdle(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	start := time.Now()

	store.get("a", start)
	store.get("b", start)
	if store.size() != 2 {
		t.Fatalf("expected 2 entries, got %d", store.size())
	}

	store.get("c", start.Add(2*time.Minute))
	if store.size() != 1 {
		t.Errorf("expected idle entries to be swept, got %d", store.size())
	}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond <= 0 || cfg.BurstSize <= 0 || cfg.IdleTTL <= 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
