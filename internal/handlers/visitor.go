package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kerjaberkah/portal/httpx"
	"github.com/kerjaberkah/portal/internal/services"
	"github.com/kerjaberkah/portal/validation"
)

type VisitorHandler struct {
	svc *services.VisitorService
	log *slog.Logger
}

func NewVisitorHandler(svc *services.VisitorService, log *slog.Logger) *VisitorHandler {
	return &VisitorHandler{svc: svc, log: log}
}

type recordVisitRequest struct {
	PageURL string `json:"page_url"`
	IP      string `json:"ip"`
}

type recordVisitResponse struct {
	ID      uint64  `json:"id,string"`
	Country *string `json:"country"`
}

func (h *VisitorHandler) Record(w http.ResponseWriter, r *http.Request) {
	var in recordVisitRequest
	if !decodeValid(w, r, &in, func(in *recordVisitRequest, v validation.Violations) {
		validation.Required("page_url", in.PageURL, v)
		validation.MaxLen("page_url", in.PageURL, 1000, v)
	}) {
		return
	}
	ip := services.ClientIP(in.IP, r.Header.Get("X-Forwarded-For"))
	visit, err := h.svc.Record(r.Context(), in.PageURL, ip)
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to record visit")
		return
	}
	httpx.JSON(w, http.StatusCreated, recordVisitResponse{ID: visit.ID, Country: visit.Country})
}

func (h *VisitorHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := make(validation.Violations)
	start, err := validation.ParseDate(q.Get("startDate"))
	if err != nil {
		v["startDate"] = "invalid_date"
	}
	end, err := validation.ParseDate(q.Get("endDate"))
	if err != nil {
		v["endDate"] = "invalid_date"
	}
	if v.Empty() && !start.IsZero() && !end.IsZero() && end.Before(start) {
		v["endDate"] = "before_start"
	}
	if !v.Empty() {
		httpx.JSONViolations(w, "invalid date range", v)
		return
	}
	stats, err := h.svc.Stats(r.Context(), services.StatsFilter{Start: start, End: end, Page: q.Get("page")})
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch visitor stats")
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *VisitorHandler) Summary(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1970 || y > 9999 {
			httpx.JSONViolations(w, "invalid year", map[string]string{"year": "invalid_year"})
			return
		}
		year = y
	}
	summary, err := h.svc.Summary(r.Context(), year)
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch visitor summary")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
