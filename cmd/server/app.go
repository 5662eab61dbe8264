package main

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/auth"
	"github.com/kerjaberkah/portal/gate"
	"github.com/kerjaberkah/portal/httpx"
	"github.com/kerjaberkah/portal/i18n"
	"github.com/kerjaberkah/portal/internal/middleware"
	"github.com/kerjaberkah/portal/internal/policy"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates a new application with all routes and global middleware configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, verifier auth.Verifier, allowedOrigins []string, logger *slog.Logger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	app.handler = middleware.Chain(app.mux,
		middleware.RequestID(),
		middleware.Recover(logger),
		middleware.CORS(allowedOrigins),
		middleware.RequestLogger(logger),
		middleware.Metrics(),
		auth.Middleware(verifier),
		withPreferences,
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	ch := a.routerCfg.ContentHandler
	vh := a.routerCfg.VisitorHandler
	rh := a.routerCfg.RegistrationHandler
	jh := a.routerCfg.JobHandler
	ah := a.routerCfg.AuthHandler
	ph := a.routerCfg.PageHandler

	// ─────────────────────────────────────────────────────────────────────────
	// Operational
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.ready)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	// ─────────────────────────────────────────────────────────────────────────
	// Public content
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /api/news", ch.ListNews)
	a.mux.HandleFunc("GET /api/news/categories", ch.NewsCategories)
	a.mux.HandleFunc("GET /api/news/{id}", ch.GetNews)
	a.mux.HandleFunc("GET /api/documentation", ch.ListDocumentation)
	a.mux.HandleFunc("GET /api/documentation/categories", ch.DocumentationCategories)
	a.mux.HandleFunc("GET /api/documentation/{id}", ch.GetDocumentation)
	a.mux.HandleFunc("GET /api/sliders", ch.ListSliders)
	a.mux.HandleFunc("GET /api/highlight", ch.Highlight)
	a.mux.HandleFunc("GET /api/galleries", ch.ListGalleries)
	a.mux.HandleFunc("GET /api/menus", ch.ListMenus)
	a.mux.HandleFunc("GET /api/footer", ch.ListFooter)

	// ─────────────────────────────────────────────────────────────────────────
	// Content administration (news:*, documentation:*, ... held by Admin)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("POST /api/news", a.requirePermission("news", gate.ActionCreate, ch.CreateNews))
	a.mux.Handle("PUT /api/news/{id}", a.requirePermission("news", gate.ActionUpdate, ch.UpdateNews))
	a.mux.Handle("DELETE /api/news/{id}", a.requirePermission("news", gate.ActionDelete, ch.DeleteNews))
	a.mux.Handle("PUT /api/news/{id}/cover", a.requirePermission("news", gate.ActionUpdate, ch.ReplaceNewsCover))
	a.mux.Handle("POST /api/documentation", a.requirePermission("documentation", gate.ActionCreate, ch.CreateDocumentation))
	a.mux.Handle("PUT /api/documentation/{id}", a.requirePermission("documentation", gate.ActionUpdate, ch.UpdateDocumentation))
	a.mux.Handle("DELETE /api/documentation/{id}", a.requirePermission("documentation", gate.ActionDelete, ch.DeleteDocumentation))
	a.mux.Handle("DELETE /api/sliders/{id}", a.requirePermission("slider", gate.ActionDelete, ch.DeleteSlider))
	a.mux.Handle("DELETE /api/galleries/{id}", a.requirePermission("gallery", gate.ActionDelete, ch.DeleteGallery))
	a.mux.Handle("POST /api/uploads/presign", a.requirePermission("upload", gate.ActionCreate, ch.PresignUpload))

	// ─────────────────────────────────────────────────────────────────────────
	// Visitor analytics
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("POST /api/visitors", vh.Record)
	a.mux.Handle("GET /api/visitors/stats", a.requirePermission("visitor", gate.ActionList, vh.Stats))
	a.mux.Handle("GET /api/visitors/summary", a.requirePermission("visitor", gate.ActionList, vh.Summary))

	// ─────────────────────────────────────────────────────────────────────────
	// Registration and authentication
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("POST /api/register/worker", rh.RegisterWorker)
	a.mux.HandleFunc("POST /api/register/company", rh.RegisterCompany)
	a.mux.HandleFunc("POST /api/auth/login", ah.Login)
	a.mux.Handle("POST /api/auth/logout", auth.RequireAuth(http.HandlerFunc(ah.Logout)))
	a.mux.Handle("GET /api/auth/me", auth.RequireAuth(http.HandlerFunc(ah.Me)))

	// ─────────────────────────────────────────────────────────────────────────
	// Kerja Berkah: role check here, ownership check in the handler
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /api/vacancies", jh.ListVacancies)
	a.mux.HandleFunc("GET /api/vacancies/{id}", jh.GetVacancy)
	a.mux.Handle("POST /api/vacancies", a.requirePermission("vacancy", gate.ActionCreate, jh.CreateVacancy))
	a.mux.Handle("PUT /api/vacancies/{id}", a.requirePermission("vacancy", gate.ActionUpdate, jh.UpdateVacancy))
	a.mux.Handle("DELETE /api/vacancies/{id}", a.requirePermission("vacancy", gate.ActionDelete, jh.DeleteVacancy))

	a.mux.HandleFunc("GET /api/workers", jh.ListWorkers)
	a.mux.HandleFunc("GET /api/workers/{id}", jh.GetWorker)
	a.mux.Handle("PUT /api/workers/{id}", a.requirePermission("worker", gate.ActionUpdate, jh.UpdateWorker))
	a.mux.Handle("DELETE /api/workers/{id}", a.requireAdmin(jh.DeleteWorker))

	a.mux.HandleFunc("GET /api/companies/{id}", jh.GetCompany)
	a.mux.Handle("PUT /api/companies/{id}", a.requirePermission("company", gate.ActionUpdate, jh.UpdateCompany))

	// ─────────────────────────────────────────────────────────────────────────
	// Pages
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /{$}", ph.Home)
	a.mux.HandleFunc("GET /berita", ph.NewsList)
	a.mux.HandleFunc("GET /berita/{id}", ph.NewsDetail)
	a.mux.HandleFunc("GET /dokumentasi", ph.DocumentationList)
	a.mux.HandleFunc("GET /kerja-berkah/lowongan", ph.VacancyList)
	a.mux.HandleFunc("GET /kerja-berkah/lowongan/{id}", ph.VacancyDetail)
	a.mux.HandleFunc("/", a.notFound)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// requireAdmin wraps a handler to require the "*:*" permission.
func (a *App) requireAdmin(h http.HandlerFunc) http.Handler {
	return a.routerCfg.AuthGate.RequireAdmin()(h)
}

// requirePermission wraps a handler to require a resource permission.
func (a *App) requirePermission(resourceType string, action gate.Action, h http.HandlerFunc) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)(h)
}

// withPreferences picks the UI language from ?lang=, the lang cookie or
// Accept-Language, in that order.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Operational handlers
// ─────────────────────────────────────────────────────────────────────────────

func (a *App) health(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready also checks the database.
func (a *App) ready(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "not found")
		return
	}
	a.routerCfg.PageHandler.NotFound(w, r)
}
