// Package auth carries the authenticated user through the request context.
// Tokens are issued by the external user API; this package only extracts
// the bearer token and asks a Verifier to map it to a local user id.
package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	userIDCtxKey = ctxKey("userID")
	tokenCtxKey  = ctxKey("token")
)

// Verifier maps a bearer token to a local user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (uint64, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (uint64, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (uint64, error) { return f(ctx, token) }

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint64)
	return id, ok && id != 0
}

// WithToken stores the raw bearer token so handlers can forward it upstream.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey, token)
}

func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenCtxKey).(string)
	return t, ok && t != ""
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware attaches the user id to the request context when the bearer
// token verifies. Requests without a valid token continue anonymously.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token != "" && v != nil {
				if uid, err := v.Verify(r.Context(), token); err == nil && uid != 0 {
					ctx := WithToken(WithUserID(r.Context(), uid), token)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
