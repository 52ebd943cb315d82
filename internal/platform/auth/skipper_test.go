package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAuthSkipper(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/health/db", true},
		{"/auth/login", true},
		{"/api/auth/login", true},
		{"/auth/register", true},
		{"/api/auth/register", true},
		{"/auth/verify", false},
		{"/patients", false},
		{"/api/admin/stats/user-roles", false},
		{"/health/extra", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, tt.path, nil), httptest.NewRecorder())
			c.SetPath(tt.path)
			if got := AuthSkipper(c); got != tt.want {
				t.Errorf("AuthSkipper(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsHealthPath(t *testing.T) {
	if !IsHealthPath("/api/health/db") || !IsHealthPath("/health") {
		t.Error("expected health paths to match")
	}
	if IsHealthPath("/auth/login") {
		t.Error("login is not a health path")
	}
}
