package policy

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/internal/handlers"
	"github.com/kerjaberkah/portal/internal/services"
)

// Dependencies are the process-wide clients the handlers are built on.
type Dependencies struct {
	Media   services.Media
	Locator services.Locator
	Auth    handlers.AuthClient
	RoleTTL time.Duration
	Logger  *slog.Logger
}

// RouterConfig holds configured handlers and middleware for the application.
type RouterConfig struct {
	// AuthGate provides authorization checks and middleware
	AuthGate *AuthGate

	ContentHandler      *handlers.ContentHandler
	VisitorHandler      *handlers.VisitorHandler
	RegistrationHandler *handlers.RegistrationHandler
	JobHandler          *handlers.JobHandler
	AuthHandler         *handlers.AuthHandler
	PageHandler         *handlers.PageHandler
}

// NewRouterConfig wires the authorization gate, policies, services and
// handlers.
//
// Example usage in the route setup:
//
//	cfg := policy.NewRouterConfig(db, deps)
//
//	// Role check at the route, ownership check in the handler
//	mux.Handle("PUT /api/vacancies/{id}", cfg.AuthGate.RequirePermission("vacancy", gate.ActionUpdate)(
//		http.HandlerFunc(cfg.JobHandler.UpdateVacancy)))
//
//	// Admin-only routes
//	mux.Handle("DELETE /api/sliders/{id}", cfg.AuthGate.RequireAdmin()(http.HandlerFunc(cfg.ContentHandler.DeleteSlider)))
func NewRouterConfig(db *gorm.DB, deps Dependencies) *RouterConfig {
	ttl := deps.RoleTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	authGate := NewAuthGate(db, ttl)

	// Owners manage their own profiles and vacancies; administrators manage all.
	isAdmin := func(ctx context.Context, userID uint64) bool {
		return authGate.Gate.IsSuperAdmin(ctx, userID)
	}
	owned := NewAdminBypassPolicy(NewOwnershipPolicy(), isAdmin)
	authGate.RegisterPolicy(handlers.ResourceVacancy, owned)
	authGate.RegisterPolicy(handlers.ResourceWorker, owned)
	authGate.RegisterPolicy(handlers.ResourceCompany, owned)

	log := deps.Logger
	content := services.NewContentService(db, deps.Media, log)
	jobs := services.NewJobService(db, deps.Media, log)

	return &RouterConfig{
		AuthGate:            authGate,
		ContentHandler:      handlers.NewContentHandler(content, log),
		VisitorHandler:      handlers.NewVisitorHandler(services.NewVisitorService(db, deps.Locator, log), log),
		RegistrationHandler: handlers.NewRegistrationHandler(services.NewRegistrationService(db, log), log),
		JobHandler:          handlers.NewJobHandler(jobs, authGate, log),
		AuthHandler:         handlers.NewAuthHandler(deps.Auth, db, log),
		PageHandler:         handlers.NewPageHandler(content, jobs, log),
	}
}
