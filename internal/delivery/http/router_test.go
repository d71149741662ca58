package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copydesk/internal/infra"
	"copydesk/internal/middleware"
)

func newTestRouter(t *testing.T, allowed []string, checks infra.HealthChecks) *echo.Echo {
	t.Helper()
	t.Setenv("JWT_SECRET", "router-secret")

	e := echo.New()
	SetupRoutes(e, &RouterConfig{
		AuthHandler:       NewAuthHandler(nil),
		AccountHandler:    NewAccountHandler(&stubProvisioning{}, &stubAccounts{}),
		MembershipHandler: NewMembershipHandler(&stubMemberships{}),
		AdminHandler:      NewAdminHandler(nil, checks, nil),
		AllowedIPs:        allowed,
	})
	return e
}

func adminRequest(t *testing.T, role, remoteAddr string) *http.Request {
	t.Helper()
	token, err := middleware.GenerateJWT("admin-1", role)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/all-masters", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.RemoteAddr = remoteAddr
	return req
}

func TestRouterProtectsAdminRoutes(t *testing.T) {
	e := newTestRouter(t, nil, infra.HealthChecks{})

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{
			name:   "no token",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/all-masters", nil) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "trader token",
			req:    func() *http.Request { return adminRequest(t, "user", "10.0.0.1:5000") },
			status: http.StatusForbidden,
		},
		{
			name:   "admin token",
			req:    func() *http.Request { return adminRequest(t, "admin", "10.0.0.1:5000") },
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, tt.req())
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouterAppliesIPAllowList(t *testing.T) {
	e := newTestRouter(t, []string{"10.0.0.1"}, infra.HealthChecks{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, adminRequest(t, "admin", "10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, adminRequest(t, "admin", "10.0.0.2:5000"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterIgnoresForwardedHeadersForAllowList(t *testing.T) {
	e := newTestRouter(t, []string{"10.0.0.1"}, infra.HealthChecks{})

	req := adminRequest(t, "admin", "203.0.113.9:5000")
	req.Header.Set(echo.HeaderXForwardedFor, "10.0.0.1")
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterHealth(t *testing.T) {
	e := newTestRouter(t, []string{"10.0.0.1"}, infra.HealthChecks{
		"database": func(ctx context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is not behind the allow-list")
	assert.Contains(t, rec.Body.String(), `"database":"online"`)

	e = newTestRouter(t, nil, infra.HealthChecks{
		"redis": func(ctx context.Context) error { return errors.New("down") },
	})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"degraded"`)
}
