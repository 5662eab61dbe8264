package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/internal/models"
	"github.com/kerjaberkah/portal/internal/services"
)

func pagesMux(gdb *gorm.DB) *http.ServeMux {
	h := NewPageHandler(
		services.NewContentService(gdb, fakeMedia{}, testLogger()),
		services.NewJobService(gdb, fakeMedia{}, testLogger()),
		testLogger(),
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /berita", h.NewsList)
	mux.HandleFunc("GET /berita/{id}", h.NewsDetail)
	mux.HandleFunc("GET /dokumentasi", h.DocumentationList)
	mux.HandleFunc("GET /kerja-berkah/lowongan", h.VacancyList)
	mux.HandleFunc("GET /kerja-berkah/lowongan/{id}", h.VacancyDetail)
	return mux
}

func TestNewsPageStates(t *testing.T) {
	gdb := setupTestDB(t)
	mux := pagesMux(gdb)

	w := do(t, mux, http.MethodGet, "/berita", nil, 0)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "state-empty") {
		t.Fatalf("expected empty state, got %d", w.Code)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{Title: "Zakat fitrah", Body: "Penyaluran zakat", Published: true, CreatedAt: base},
		{Title: "Air bersih", Body: "Sumur desa", Published: true, CreatedAt: base.Add(time.Hour)},
		{Title: "Beasiswa", Body: "Pendaftaran beasiswa", Published: true, CreatedAt: base.Add(2 * time.Hour)},
	}
	if err := gdb.Create(&posts).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	w = do(t, mux, http.MethodGet, "/berita?sort=title", nil, 0)
	body := w.Body.String()
	air, bea, zak := strings.Index(body, "Air bersih"), strings.Index(body, "Beasiswa"), strings.Index(body, "Zakat fitrah")
	if w.Code != http.StatusOK || air < 0 || !(air < bea && bea < zak) {
		t.Fatalf("expected title order, got %d %d %d", air, bea, zak)
	}

	w = do(t, mux, http.MethodGet, "/berita?search=SUMUR", nil, 0)
	body = w.Body.String()
	if !strings.Contains(body, "Air bersih") || strings.Contains(body, "Zakat fitrah") {
		t.Fatal("search should match the body case-insensitively")
	}
}

func TestDetailPagesNotFound(t *testing.T) {
	gdb := setupTestDB(t)
	c := models.Company{UserID: 1, Name: "Makmur"}
	if err := gdb.Create(&c).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	closed := models.Vacancy{CompanyID: c.ID, Title: "Ditutup", Status: false}
	if err := gdb.Create(&closed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	mux := pagesMux(gdb)

	for _, p := range []string{"/berita/abc", "/berita/0", "/berita/404", "/kerja-berkah/lowongan/x", "/kerja-berkah/lowongan/" + formatID(closed.ID)} {
		w := do(t, mux, http.MethodGet, p, nil, 0)
		if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "state-not-found") {
			t.Fatalf("%s: expected not-found page, got %d", p, w.Code)
		}
	}
}

func TestPageStoreFailureRendersErrorState(t *testing.T) {
	gdb := setupTestDB(t)
	err := gdb.Callback().Query().Before("gorm:query").Register("test:fail", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("database is down"))
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	mux := pagesMux(gdb)

	for _, p := range []string{"/", "/berita", "/dokumentasi", "/kerja-berkah/lowongan", "/berita/1"} {
		w := do(t, mux, http.MethodGet, p, nil, 0)
		if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "state-error") {
			t.Fatalf("%s: expected error page, got %d", p, w.Code)
		}
	}
}

func TestVacancyPageFiltersByType(t *testing.T) {
	gdb := setupTestDB(t)
	c := models.Company{UserID: 2, Name: "Berkah Jaya"}
	if err := gdb.Create(&c).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	vs := []models.Vacancy{
		{CompanyID: c.ID, Title: "Penjahit", Type: models.VacancyContract, Status: true},
		{CompanyID: c.ID, Title: "Sopir", Type: models.VacancyFullTime, Status: true},
	}
	if err := gdb.Create(&vs).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	w := do(t, pagesMux(gdb), http.MethodGet, "/kerja-berkah/lowongan?category=contract", nil, 0)
	body := w.Body.String()
	if w.Code != http.StatusOK || !strings.Contains(body, "Penjahit") || strings.Contains(body, "Sopir") {
		t.Fatalf("expected only the contract vacancy, got %d", w.Code)
	}

	w = do(t, pagesMux(gdb), http.MethodGet, "/kerja-berkah/lowongan/"+formatID(vs[1].ID), nil, 0)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Berkah Jaya") {
		t.Fatalf("vacancy detail: %d", w.Code)
	}
}

func TestDocumentationPageStatusFilter(t *testing.T) {
	gdb := setupTestDB(t)
	mux := pagesMux(gdb)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []models.Documentation{
		{Title: "Panduan aktif", FilePath: "docs/a.pdf", Size: 1, Status: true, CreatedAt: base},
		{Title: "Panduan arsip", FilePath: "docs/b.pdf", Size: 1, Status: false, CreatedAt: base.Add(time.Hour)},
	}
	if err := gdb.Create(&docs).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := do(t, mux, http.MethodGet, "/dokumentasi", nil, 0)
	body := w.Body.String()
	if w.Code != http.StatusOK || !strings.Contains(body, "Panduan aktif") || strings.Contains(body, "Panduan arsip") {
		t.Fatalf("default listing should show active documents only (%d)", w.Code)
	}

	w = do(t, mux, http.MethodGet, "/dokumentasi?status=false", nil, 0)
	body = w.Body.String()
	if w.Code != http.StatusOK || !strings.Contains(body, "Panduan arsip") || strings.Contains(body, "Panduan aktif") {
		t.Fatalf("status=false should list inactive documents (%d)", w.Code)
	}
	if strings.Contains(body, "state-empty") {
		t.Fatal("status=false must not fall back to the empty state")
	}
}
