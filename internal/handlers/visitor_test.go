package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/internal/models"
	"github.com/kerjaberkah/portal/internal/services"
)

type staticLocator map[string]string

func (l staticLocator) Country(_ context.Context, ip string) *string {
	if c, ok := l[ip]; ok {
		return &c
	}
	return nil
}

func visitorMux(gdb *gorm.DB) *http.ServeMux {
	svc := services.NewVisitorService(gdb, staticLocator{"127.0.0.1": "Localhost", "203.0.113.9": "Indonesia"}, testLogger())
	h := NewVisitorHandler(svc, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/visitors", h.Record)
	mux.HandleFunc("GET /api/visitors/stats", h.Stats)
	mux.HandleFunc("GET /api/visitors/summary", h.Summary)
	return mux
}

func TestRecordVisitUsesForwardedFor(t *testing.T) {
	gdb := setupTestDB(t)
	mux := visitorMux(gdb)

	r := newJSONRequest(t, http.MethodPost, "/api/visitors", map[string]string{"page_url": "/berita"})
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := serve(mux, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("record: %d %s", w.Code, w.Body.String())
	}
	got := decodeBody[map[string]any](t, w)
	if got["country"] != "Indonesia" {
		t.Fatalf("expected Indonesia, got %v", got["country"])
	}
	if id, _ := got["id"].(string); !idPattern.MatchString(id) {
		t.Fatalf("id must be a decimal string, got %#v", got["id"])
	}

	w = do(t, mux, http.MethodPost, "/api/visitors", map[string]string{"page_url": "/", "ip": "198.51.100.1"}, 0)
	if w.Code != http.StatusCreated {
		t.Fatalf("record: %d", w.Code)
	}
	if got := decodeBody[map[string]any](t, w); got["country"] != nil {
		t.Fatalf("unresolvable ip should have null country, got %v", got["country"])
	}

	w = do(t, mux, http.MethodPost, "/api/visitors", map[string]string{"ip": "127.0.0.1"}, 0)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing page_url should 400, got %d", w.Code)
	}
}

func TestVisitorStatsValidatesDates(t *testing.T) {
	gdb := setupTestDB(t)
	day := time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC)
	id := "Indonesia"
	events := []models.Visitor{
		{IP: "1.1.1.1", PageURL: "/", Country: &id, CreatedAt: day},
		{IP: "1.1.1.1", PageURL: "/", Country: &id, CreatedAt: day},
		{IP: "2.2.2.2", PageURL: "/", CreatedAt: day},
		{IP: "3.3.3.3", PageURL: "/", CreatedAt: day.AddDate(0, 0, 2)},
	}
	if err := gdb.Create(&events).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	mux := visitorMux(gdb)

	for _, q := range []string{"startDate=10-06-2024", "endDate=2024-13-01", "startDate=2024-06-11&endDate=2024-06-10"} {
		if w := do(t, mux, http.MethodGet, "/api/visitors/stats?"+q, nil, 0); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", q, w.Code)
		}
	}

	w := do(t, mux, http.MethodGet, "/api/visitors/stats?startDate=2024-06-10&endDate=2024-06-10", nil, 0)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}
	stats := decodeBody[services.VisitorStats](t, w)
	if stats.Total != 3 || stats.UniqueIPs != 2 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if len(stats.Countries) != 2 || stats.Countries[0].Country != "Indonesia" || stats.Countries[1].Country != services.UnknownCountry {
		t.Fatalf("unexpected countries %+v", stats.Countries)
	}
}

func TestVisitorSummaryYear(t *testing.T) {
	gdb := setupTestDB(t)
	mux := visitorMux(gdb)

	if w := do(t, mux, http.MethodGet, "/api/visitors/summary?year=abc", nil, 0); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	w := do(t, mux, http.MethodGet, "/api/visitors/summary?year=2023", nil, 0)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d", w.Code)
	}
	s := decodeBody[services.VisitorSummary](t, w)
	if s.Current.Year != 2023 || s.Previous.Year != 2022 || s.GrowthRate != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
}
