package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kerjaberkah/portal/auth"
	"github.com/kerjaberkah/portal/internal/authapi"
	"github.com/kerjaberkah/portal/internal/models"
)

type stubAuthClient struct {
	forgotten []string
}

func (s *stubAuthClient) Login(_ context.Context, email, password string) (authapi.Token, error) {
	switch {
	case email == "down@example.com":
		return authapi.Token{}, errors.New("connection refused")
	case password != "rahasia":
		return authapi.Token{}, authapi.ErrInvalidCredentials
	}
	return authapi.Token{AccessToken: "tok-" + email}, nil
}

func (s *stubAuthClient) Forget(token string) { s.forgotten = append(s.forgotten, token) }

func TestLogin(t *testing.T) {
	gdb := setupTestDB(t)
	h := NewAuthHandler(&stubAuthClient{}, gdb, testLogger())
	login := http.HandlerFunc(h.Login)

	w := do(t, login, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "rahasia"}, 0)
	if w.Code != http.StatusOK || decodeBody[map[string]string](t, w)["token"] != "tok-a@example.com" {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	w = do(t, login, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "salah"}, 0)
	if w.Code != http.StatusUnauthorized || errorMessage(t, w) != "invalid credentials" {
		t.Fatalf("bad password: %d %s", w.Code, w.Body.String())
	}

	w = do(t, login, http.MethodPost, "/api/auth/login", map[string]string{"email": "down@example.com", "password": "rahasia"}, 0)
	if w.Code != http.StatusInternalServerError || errorMessage(t, w) != "login failed" {
		t.Fatalf("upstream failure: %d %s", w.Code, w.Body.String())
	}

	w = do(t, login, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com"}, 0)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password should 400, got %d", w.Code)
	}
}

func TestMeAndLogout(t *testing.T) {
	gdb := setupTestDB(t)
	client := &stubAuthClient{}
	h := NewAuthHandler(client, gdb, testLogger())

	var role models.Role
	if err := gdb.Where("name = ?", models.UserEmployee).First(&role).Error; err != nil {
		t.Fatalf("role: %v", err)
	}
	u := models.User{Email: "me@example.com", Name: "Saya", Type: models.UserEmployee, PasswordHash: "x", Roles: []models.Role{role}}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	w := do(t, http.HandlerFunc(h.Me), http.MethodGet, "/api/auth/me", nil, 0)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me should 401, got %d", w.Code)
	}
	w = do(t, http.HandlerFunc(h.Me), http.MethodGet, "/api/auth/me", nil, u.ID)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	got := decodeBody[map[string]any](t, w)
	if got["email"] != "me@example.com" || got["password_hash"] != nil {
		t.Fatalf("unexpected me body %v", got)
	}
	roles := got["roles"].([]any)
	if len(roles) != 1 || roles[0].(map[string]any)["name"] != models.UserEmployee {
		t.Fatalf("unexpected roles %v", roles)
	}

	r := newJSONRequest(t, http.MethodPost, "/api/auth/logout", map[string]string{})
	r = r.WithContext(auth.WithToken(r.Context(), "tok-1"))
	if w := serve(http.HandlerFunc(h.Logout), r); w.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", w.Code)
	}
	if len(client.forgotten) != 1 || client.forgotten[0] != "tok-1" {
		t.Fatalf("token not forgotten: %v", client.forgotten)
	}
}
