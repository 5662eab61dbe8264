package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/auth"
	"github.com/kerjaberkah/portal/internal/db"
	"github.com/kerjaberkah/portal/internal/models"
	"github.com/kerjaberkah/portal/internal/policy"
)

type stubMedia struct{}

func (stubMedia) ResolveURL(_ context.Context, p string) string { return p }

func (stubMedia) Size(context.Context, string) int64 { return 0 }

func (stubMedia) Upload(_ context.Context, key string, _ io.Reader, _ int64, _ string) (string, error) {
	return key, nil
}

func (stubMedia) Delete(context.Context, string) error { return nil }

func (stubMedia) PresignUpload(_ context.Context, key string) (string, error) {
	return "https://signed.test/" + key, nil
}

// testApp builds the full router over an in-memory database. Tokens are
// "user-<role>" for the seeded Admin, Company and Employee users.
func testApp(t *testing.T) *App {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(context.Background(), gdb); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tokens := map[string]uint64{}
	for _, name := range []string{models.UserAdmin, models.UserCompany, models.UserEmployee} {
		var role models.Role
		if err := gdb.Where("name = ?", name).First(&role).Error; err != nil {
			t.Fatalf("load role %s: %v", name, err)
		}
		u := models.User{
			Email:        strings.ToLower(name) + "@example.com",
			Name:         name,
			Type:         name,
			PasswordHash: "x",
			Roles:        []models.Role{role},
		}
		if err := gdb.Create(&u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
		tokens["user-"+strings.ToLower(name)] = u.ID
	}
	verifier := auth.VerifierFunc(func(_ context.Context, token string) (uint64, error) {
		if id, ok := tokens[token]; ok {
			return id, nil
		}
		return 0, errors.New("unknown token")
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	routerCfg := policy.NewRouterConfig(gdb, policy.Dependencies{Media: stubMedia{}, Logger: logger})
	return NewApp(gdb, routerCfg, verifier, []string{"https://portal.example.com"}, logger)
}

func request(t *testing.T, app *App, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	app := testApp(t)
	for _, path := range []string{"/health", "/healthz"} {
		rr := request(t, app, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"ok"`) {
			t.Fatalf("%s: unexpected body %s", path, rr.Body.String())
		}
	}
	if rr := request(t, app, http.MethodGet, "/health", "", nil); rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestRouteProtection(t *testing.T) {
	app := testApp(t)
	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"public news list", http.MethodGet, "/api/news", "", "", http.StatusOK},
		{"news create anonymous", http.MethodPost, "/api/news", "", `{}`, http.StatusUnauthorized},
		{"news create employee", http.MethodPost, "/api/news", "user-employee", `{}`, http.StatusForbidden},
		{"news create admin invalid body", http.MethodPost, "/api/news", "user-admin", `{}`, http.StatusBadRequest},
		{"slider delete admin missing", http.MethodDelete, "/api/sliders/999", "user-admin", "", http.StatusNotFound},
		{"visitor stats anonymous", http.MethodGet, "/api/visitors/stats", "", "", http.StatusUnauthorized},
		{"visitor stats company", http.MethodGet, "/api/visitors/stats", "user-company", "", http.StatusForbidden},
		{"visitor stats admin", http.MethodGet, "/api/visitors/stats", "user-admin", "", http.StatusOK},
		{"vacancy create employee", http.MethodPost, "/api/vacancies", "user-employee", `{}`, http.StatusForbidden},
		{"worker delete company", http.MethodDelete, "/api/workers/1", "user-company", "", http.StatusForbidden},
		{"me anonymous", http.MethodGet, "/api/auth/me", "", "", http.StatusUnauthorized},
		{"me unknown token", http.MethodGet, "/api/auth/me", "forged", "", http.StatusUnauthorized},
		{"me admin", http.MethodGet, "/api/auth/me", "user-admin", "", http.StatusOK},
		{"unknown api route", http.MethodGet, "/api/nope", "", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		var body io.Reader
		if tc.body != "" {
			body = strings.NewReader(tc.body)
		}
		rr := request(t, app, tc.method, tc.path, tc.token, body)
		if rr.Code != tc.want {
			t.Errorf("%s: expected %d got %d (%s)", tc.name, tc.want, rr.Code, rr.Body.String())
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	app := testApp(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/news", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://portal.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin must not be allowed, got %q", got)
	}
}

func TestPagesAndLanguage(t *testing.T) {
	app := testApp(t)

	rr := request(t, app, http.MethodGet, "/?lang=en", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), `<html lang="en">`) {
		t.Fatal("expected english page")
	}
	if c := rr.Result().Cookies(); len(c) == 0 || c[0].Name != "lang" || c[0].Value != "en" {
		t.Fatalf("expected lang cookie, got %v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/berita", nil)
	req.AddCookie(&http.Cookie{Name: "lang", Value: "id"})
	req.Header.Set("Accept-Language", "en-US")
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if !strings.Contains(rr.Body.String(), `<html lang="id">`) {
		t.Fatal("cookie should win over Accept-Language")
	}

	rr = request(t, app, http.MethodGet, "/tidak-ada", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "state-not-found") {
		t.Fatal("expected the not-found page")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := testApp(t)
	request(t, app, http.MethodGet, "/api/news/123", "", nil)
	rr := request(t, app, http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `portal_http_requests_total{method="GET",path="/api/news/{id}"`) {
		t.Fatal("expected normalized request counter")
	}
}
