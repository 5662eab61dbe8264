package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

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

// fakeMedia signs deterministically and records writes.
type fakeMedia struct {
	mu       sync.Mutex
	sizes    map[string]int64
	uploaded []string
	deleted  []string
}

func (f *fakeMedia) ResolveURL(_ context.Context, p string) string {
	if p == "" || storage.IsAbsoluteURL(p) {
		return p
	}
	return "https://signed.test/" + strings.TrimLeft(p, "/") + "?X-Amz-Expires=900"
}

func (f *fakeMedia) Size(_ context.Context, p string) int64 {
	return f.sizes[p]
}

func (f *fakeMedia) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeMedia) Delete(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, p)
	return nil
}

func (f *fakeMedia) PresignUpload(_ context.Context, key string) (string, error) {
	return "https://signed.test/" + key + "?put=1", nil
}
