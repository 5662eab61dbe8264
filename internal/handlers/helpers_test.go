package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/auth"
	"github.com/kerjaberkah/portal/gate"
	"github.com/kerjaberkah/portal/internal/db"
	"github.com/kerjaberkah/portal/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *gorm.DB {
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
	return gdb
}

// countQueries counts every statement issued after it is installed.
func countQueries(t *testing.T, gdb *gorm.DB) *atomic.Int64 {
	t.Helper()
	var n atomic.Int64
	inc := func(*gorm.DB) { n.Add(1) }
	cb := gdb.Callback()
	if err := cb.Query().Before("gorm:query").Register("test:count_query", inc); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := cb.Create().Before("gorm:create").Register("test:count_create", inc); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := cb.Update().Before("gorm:update").Register("test:count_update", inc); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := cb.Delete().Before("gorm:delete").Register("test:count_delete", inc); err != nil {
		t.Fatalf("register: %v", err)
	}
	return &n
}

type fakeMedia struct{}

func (fakeMedia) ResolveURL(_ context.Context, p string) string {
	if p == "" || storage.IsAbsoluteURL(p) {
		return p
	}
	return "https://signed.test/" + strings.TrimLeft(p, "/") + "?X-Amz-Expires=900"
}

func (fakeMedia) Size(context.Context, string) int64 { return 0 }

func (fakeMedia) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return key, nil
}

func (fakeMedia) Delete(context.Context, string) error { return nil }

func (fakeMedia) PresignUpload(_ context.Context, key string) (string, error) {
	return "https://signed.test/" + key + "?put=1", nil
}

// testAuthz mirrors policy.AuthGate over a static role table.
type testAuthz struct {
	roles *gate.StaticResolver[uint64]
	g     *gate.HybridGate[uint64]
}

type ownerPolicy struct {
	isAdmin func(context.Context, uint64) bool
}

func (p ownerPolicy) Can(ctx context.Context, user uint64, _ gate.Action, resource any) bool {
	if p.isAdmin(ctx, user) {
		return true
	}
	o, ok := resource.(interface{ GetUserID() uint64 })
	return ok && o.GetUserID() == user
}

func newTestAuthz() *testAuthz {
	roles := gate.NewStaticResolver[uint64]()
	a := &testAuthz{roles: roles, g: gate.NewHybridGate[uint64](roles)}
	p := ownerPolicy{isAdmin: a.g.IsSuperAdmin}
	for _, rt := range []string{ResourceVacancy, ResourceWorker, ResourceCompany} {
		a.g.Register(rt, p)
	}
	return a
}

func (a *testAuthz) grant(user uint64, perms ...gate.Permission) {
	a.roles.Set(user, gate.NewStaticRole("test", perms...))
}

func (a *testAuthz) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return a.g.Authorize(ctx, uid, action, resourceType, resource)
}

func (a *testAuthz) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return a.Authorize(ctx, action, resourceType, resource) == nil
}

// do sends a request through h. A non-zero user is attached to the context.
func do(t *testing.T, h http.Handler, method, target string, body any, user uint64) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, target, rd)
	if rd != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if user != 0 {
		r = r.WithContext(auth.WithUserID(r.Context(), user))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, w)["message"].(string)
}

func newJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}
