package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc.def": "abc.def",
		"bearer   tok  ": "tok",
		"Basic dXNlcjpw": "",
		"Bearer":         "",
		"":               "",
	}
	for header, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := BearerToken(r); got != want {
			t.Errorf("BearerToken(%q) = %q want %q", header, got, want)
		}
	}
}

func TestMiddlewareAndRequireAuth(t *testing.T) {
	v := VerifierFunc(func(_ context.Context, token string) (uint64, error) {
		if token == "good" {
			return 7, nil
		}
		return 0, errors.New("invalid token")
	})
	var seen uint64
	var seenToken string
	h := Middleware(v)(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		seenToken, _ = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Code)
	}
	if seen != 7 || seenToken != "good" {
		t.Fatalf("unexpected context values %d %q", seen, seenToken)
	}

	for _, header := range []string{"", "Bearer bad"} {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401 got %d", header, w.Code)
		}
		if w.Body.String() != `{"message":"unauthorized"}` {
			t.Fatalf("unexpected body %q", w.Body.String())
		}
	}
}

func TestUserIDFromContextZero(t *testing.T) {
	if _, ok := UserIDFromContext(WithUserID(context.Background(), 0)); ok {
		t.Fatal("zero id must not count as authenticated")
	}
}
