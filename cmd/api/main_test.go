package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/config"
	"github.com/sparkquest/arcade-api/internal/domain/arcade"
	"github.com/sparkquest/arcade-api/internal/domain/catalog"
	"github.com/sparkquest/arcade-api/internal/domain/completion"
	"github.com/sparkquest/arcade-api/internal/domain/credit"
	"github.com/sparkquest/arcade-api/internal/domain/quizflow"
	"github.com/sparkquest/arcade-api/internal/domain/realtime"
	"github.com/sparkquest/arcade-api/internal/middleware"
	"github.com/sparkquest/arcade-api/internal/pkg/jwt"
)

func testRouter(t *testing.T, metricsEnabled bool) (http.Handler, *jwt.Service) {
	t.Helper()
	jwtSvc := jwt.NewService("test-secret", time.Minute)
	cfg := &config.Config{
		AllowedOrigins: []string{"http://localhost:3000"},
		MetricsEnabled: metricsEnabled,
	}
	hub := realtime.NewHub(nil)
	t.Cleanup(hub.Shutdown)

	return newRouter(cfg, routes{
		auth:         middleware.Auth(jwtSvc),
		credits:      credit.NewHandler(nil),
		completions:  completion.NewHandler(nil),
		catalog:      catalog.NewHandler(nil),
		catalogAdmin: catalog.NewAdminHandler(nil),
		quizFlow:     quizflow.NewHandler(nil),
		arcade:       arcade.NewHandler(nil),
		realtime:     realtime.NewHandler(hub, nil, nil, cfg.AllowedOrigins),
	}), jwtSvc
}

func serve(h http.Handler, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRouterHealth(t *testing.T) {
	r, _ := testRouter(t, false)
	if code := serve(r, http.MethodGet, "/health", ""); code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
}

func TestRouterMetricsToggle(t *testing.T) {
	enabled, _ := testRouter(t, true)
	if code := serve(enabled, http.MethodGet, "/metrics", ""); code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	disabled, _ := testRouter(t, false)
	if code := serve(disabled, http.MethodGet, "/metrics", ""); code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", code)
	}
}

func TestRouterProtectsStudentRoutes(t *testing.T) {
	r, _ := testRouter(t, false)
	for _, path := range []string{
		"/api/v1/credits/balance",
		"/api/v1/completions",
		"/api/v1/quiz-sessions/" + uuid.NewString(),
		"/api/v1/arcade/sessions",
		"/ws",
	} {
		if code := serve(r, http.MethodGet, path, ""); code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status 401, got %d", path, code)
		}
	}
}

func TestRouterAdminRequiresStaffRole(t *testing.T) {
	r, jwtSvc := testRouter(t, false)
	token, err := jwtSvc.GenerateAccessToken(uuid.New(), jwt.RoleStudent, "")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if code := serve(r, http.MethodPost, "/api/admin/credits/grant", token); code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", code)
	}
	if code := serve(r, http.MethodGet, "/api/admin/catalog/games", token); code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", code)
	}
}
