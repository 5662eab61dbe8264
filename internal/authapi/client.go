// Package authapi is the HTTP client for the external user/auth API.
//
// The API exposes two calls:
//
//	POST {base}/auth/login  {"email","password"}  -> {"token"}
//	GET  {base}/auth/me     Authorization: Bearer -> {"id","email","name"}
//
// Validate wraps Me with a per-token cache whose lifetime never outlives
// the token's own exp claim.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthorized)
)

var (
	tokenCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_authapi_token_cache_hits_total",
		Help: "Token validations served from cache.",
	})
	tokenCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_authapi_token_cache_misses_total",
		Help: "Token validations forwarded to the auth API.",
	})
)

// Token is the result of a successful login.
type Token struct {
	AccessToken string `json:"token"`
}

// Identity is the user the auth API knows a token by.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type cachedIdentity struct {
	identity  Identity
	expiresAt time.Time
}

// Client talks to the auth API. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *expirable.LRU[string, cachedIdentity]
	cacheTTL   time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a client. httpClient may be nil; cacheTTL <= 0 disables
// positive caching beyond a single second.
func New(baseURL string, cacheTTL time.Duration, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cache:      expirable.NewLRU[string, cachedIdentity](1024, nil, cacheTTL),
		cacheTTL:   cacheTTL,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "authapi_client")),
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (Token, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return Token{}, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		resp.Body.Close()
		return Token{}, ErrInvalidCredentials
	}
	var tok Token
	if err := decodeResponse(resp, &tok); err != nil {
		return Token{}, fmt.Errorf("Login: %w", err)
	}
	if tok.AccessToken == "" {
		return Token{}, errors.New("Login: empty token in response")
	}
	return tok, nil
}

// Me returns the identity behind token without consulting the cache.
func (c *Client) Me(ctx context.Context, token string) (Identity, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return Identity{}, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return Identity{}, ErrUnauthorized
	}
	var id Identity
	if err := decodeResponse(resp, &id); err != nil {
		return Identity{}, fmt.Errorf("Me: %w", err)
	}
	if id.Email == "" {
		return Identity{}, errors.New("Me: identity without email")
	}
	return id, nil
}

// Validate resolves token to an identity. Tokens whose exp claim has passed
// are rejected locally; opaque (non-JWT) tokens always go to the API.
func (c *Client) Validate(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	now := c.now()
	exp, hasExp := expiry(token)
	if hasExp && !now.Before(exp) {
		c.cache.Remove(token)
		return Identity{}, ErrTokenExpired
	}

	if e, ok := c.cache.Get(token); ok && now.Before(e.expiresAt) {
		tokenCacheHits.Inc()
		return e.identity, nil
	}
	tokenCacheMisses.Inc()

	id, err := c.Me(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	until := now.Add(c.cacheTTL)
	if hasExp && exp.Before(until) {
		until = exp
	}
	c.cache.Add(token, cachedIdentity{identity: id, expiresAt: until})
	return id, nil
}

// Forget drops a cached token, e.g. after logout.
func (c *Client) Forget(token string) { c.cache.Remove(token) }

// expiry reads the exp claim without verifying the signature. The auth API
// remains the authority on validity; this only avoids calls for tokens that
// are certainly dead.
func expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// --- HTTP helpers ---

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "auth api unreachable", slog.String("path", path), slog.String("error", err.Error()))
		return nil, fmt.Errorf("auth api %s: %w", path, err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("auth api returned status %d: %s", resp.StatusCode, string(body))
	}
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decode auth api response: %w", err)
		}
	}
	return nil
}
