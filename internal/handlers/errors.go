package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kerjaberkah/portal/gate"
	"github.com/kerjaberkah/portal/httpx"
	"github.com/kerjaberkah/portal/internal/middleware"
	"github.com/kerjaberkah/portal/internal/services"
	"github.com/kerjaberkah/portal/validation"
)

// Authorizer is the slice of policy.AuthGate the handlers use.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
	Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool
}

// writeError maps service and gate errors onto the status taxonomy.
// Anything unrecognised is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, notFound, failed string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, notFound)
	case errors.Is(err, services.ErrAlreadyRegistered):
		httpx.JSONError(w, http.StatusConflict, services.ErrAlreadyRegistered.Error())
	case errors.Is(err, services.ErrInvalidInput):
		httpx.JSONError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, gate.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, gate.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden")
	default:
		log.ErrorContext(r.Context(), failed,
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		httpx.JSONError(w, http.StatusInternalServerError, failed)
	}
}

// pathID validates the {id} route segment before anything touches the store.
func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := validation.ParseID(r.PathValue("id"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// firstParam returns the first non-empty query value among names.
func firstParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, n := range names {
		if v := q.Get(n); v != "" {
			return v
		}
	}
	return ""
}

func isNotFound(err error) bool { return errors.Is(err, services.ErrNotFound) }

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }
