package services

import (
	"context"
	"testing"
	"time"

	"github.com/kerjaberkah/portal/internal/models"
)

type stubLocator struct {
	calls     int
	countries map[string]string
}

func (s *stubLocator) Country(_ context.Context, ip string) *string {
	s.calls++
	if c, ok := s.countries[ip]; ok {
		return &c
	}
	return nil
}

func TestClientIP(t *testing.T) {
	cases := []struct{ explicit, xff, want string }{
		{"203.0.113.9", "10.0.0.1", "203.0.113.9"},
		{"", "198.51.100.7, 10.0.0.1", "198.51.100.7"},
		{"", " ", UnknownIP},
		{"", "", UnknownIP},
	}
	for _, c := range cases {
		if got := ClientIP(c.explicit, c.xff); got != c.want {
			t.Fatalf("ClientIP(%q, %q) = %q want %q", c.explicit, c.xff, got, c.want)
		}
	}
}

func TestRecordVisitor(t *testing.T) {
	gdb := setupTestDB(t)
	loc := &stubLocator{countries: map[string]string{"103.10.20.30": "Indonesia"}}
	svc := NewVisitorService(gdb, loc, testLogger())
	ctx := context.Background()

	v, err := svc.Record(ctx, "/berita", "103.10.20.30")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if v.Country == nil || *v.Country != "Indonesia" {
		t.Fatalf("unexpected country %v", v.Country)
	}
	v, err = svc.Record(ctx, "/berita", "8.8.8.8")
	if err != nil {
		t.Fatalf("record with failed lookup must still write: %v", err)
	}
	if v.Country != nil {
		t.Fatalf("expected nil country got %q", *v.Country)
	}
	if _, err := svc.Record(ctx, "/", UnknownIP); err != nil {
		t.Fatalf("record unknown: %v", err)
	}
	if loc.calls != 2 {
		t.Fatalf("unknown ip must not be looked up, calls=%d", loc.calls)
	}
	var n int64
	gdb.Model(&models.Visitor{}).Count(&n)
	if n != 3 {
		t.Fatalf("expected 3 rows got %d", n)
	}
}

func seedVisits(t *testing.T, svc *VisitorService, at time.Time, ip, page string, country *string) {
	t.Helper()
	v := models.Visitor{IP: ip, PageURL: page, Country: country, CreatedAt: at}
	if err := svc.db.Create(&v).Error; err != nil {
		t.Fatalf("seed visit: %v", err)
	}
}

func TestVisitorStats(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewVisitorService(gdb, nil, testLogger())
	id, sg := "Indonesia", "Singapore"
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	seedVisits(t, svc, day.Add(1*time.Hour), "1.1.1.1", "/", &id)
	seedVisits(t, svc, day.Add(2*time.Hour), "1.1.1.1", "/berita", &id)
	seedVisits(t, svc, day.Add(23*time.Hour), "2.2.2.2", "/", &id)
	seedVisits(t, svc, day.Add(3*time.Hour), "3.3.3.3", "/", &sg)
	seedVisits(t, svc, day.Add(4*time.Hour), "4.4.4.4", "/", nil)
	seedVisits(t, svc, day.AddDate(0, 0, 1), "5.5.5.5", "/", &sg)

	stats, err := svc.Stats(context.Background(), StatsFilter{Start: day, End: day})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 5 || stats.UniqueIPs != 4 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if len(stats.Countries) != 3 || stats.Countries[0].Country != "Indonesia" || stats.Countries[0].Count != 3 {
		t.Fatalf("unexpected countries %+v", stats.Countries)
	}
	var unknown int64
	for _, c := range stats.Countries {
		if c.Country == UnknownCountry {
			unknown = c.Count
		}
	}
	if unknown != 1 {
		t.Fatalf("null country must be reported as %s: %+v", UnknownCountry, stats.Countries)
	}

	page, err := svc.Stats(context.Background(), StatsFilter{Page: "/berita"})
	if err != nil || page.Total != 1 {
		t.Fatalf("page filter: %+v %v", page, err)
	}
}

func TestVisitorSummaryZeroGrowthWithoutPriorYear(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewVisitorService(gdb, nil, testLogger())
	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	seedVisits(t, svc, at, "1.1.1.1", "/", nil)
	seedVisits(t, svc, at, "2.2.2.2", "/", nil)

	sum, err := svc.Summary(context.Background(), 2025)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Current.Unique != 2 || sum.Previous.Unique != 0 {
		t.Fatalf("unexpected counts %+v", sum)
	}
	if sum.GrowthRate != 0 {
		t.Fatalf("expected 0 growth got %v", sum.GrowthRate)
	}
}

func TestGrowthRate(t *testing.T) {
	cases := []struct {
		cur, prev int64
		want      float64
	}{
		{3, 0, 0},
		{3, 2, 50},
		{1, 3, -66.67},
		{2, 3, -33.33},
	}
	for _, c := range cases {
		if got := GrowthRate(c.cur, c.prev); got != c.want {
			t.Fatalf("GrowthRate(%d, %d) = %v want %v", c.cur, c.prev, got, c.want)
		}
	}
}
