package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kerjaberkah/portal/auth"
	"github.com/kerjaberkah/portal/gate"
	"github.com/kerjaberkah/portal/httpx"
	"github.com/kerjaberkah/portal/internal/models"
	"github.com/kerjaberkah/portal/internal/services"
	"github.com/kerjaberkah/portal/validation"
)

// Resource types checked against the gate.
const (
	ResourceVacancy = "vacancy"
	ResourceWorker  = "worker"
	ResourceCompany = "company"
)

// JobHandler serves the Kerja Berkah vacancy, worker and company endpoints.
type JobHandler struct {
	svc   *services.JobService
	authz Authorizer
	log   *slog.Logger
}

func NewJobHandler(svc *services.JobService, authz Authorizer, log *slog.Logger) *JobHandler {
	return &JobHandler{svc: svc, authz: authz, log: log}
}

// ─────────────────────────────────────────────────────────────────────────────
// Vacancies
// ─────────────────────────────────────────────────────────────────────────────

func (h *JobHandler) ListVacancies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.VacancyFilter{
		Status:   q.Get("status"),
		Search:   firstParam(r, "search", "q"),
		Type:     q.Get("type"),
		Location: q.Get("location"),
	}
	if raw := q.Get("company_id"); raw != "" {
		id, err := validation.ParseID(raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid company_id")
			return
		}
		f.CompanyID = id
	}
	vacancies, err := h.svc.ListVacancies(r.Context(), f)
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch vacancies")
		return
	}
	httpx.JSON(w, http.StatusOK, vacancies)
}

// GetVacancy hides inactive vacancies from everyone but their managers.
func (h *JobHandler) GetVacancy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.svc.GetVacancy(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, "vacancy not found", "failed to fetch vacancy")
		return
	}
	if !v.Status && !h.authz.Can(r.Context(), gate.ActionUpdate, ResourceVacancy, v) {
		httpx.JSONError(w, http.StatusNotFound, "vacancy not found")
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *JobHandler) CreateVacancy(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in services.VacancyInput
	if !decodeValid(w, r, &in, validateVacancy) {
		return
	}
	company, err := h.svc.CompanyForUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			httpx.JSONError(w, http.StatusForbidden, "company profile required")
			return
		}
		writeError(w, r, h.log, err, "", "failed to create vacancy")
		return
	}
	v, err := h.svc.CreateVacancy(r.Context(), company.ID, in)
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to create vacancy")
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *JobHandler) UpdateVacancy(w http.ResponseWriter, r *http.Request) {
	v, ok := h.ownedVacancy(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in services.VacancyInput
	if !decodeValid(w, r, &in, validateVacancy) {
		return
	}
	updated, err := h.svc.UpdateVacancy(r.Context(), v, in)
	if err != nil {
		writeError(w, r, h.log, err, "vacancy not found", "failed to update vacancy")
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *JobHandler) DeleteVacancy(w http.ResponseWriter, r *http.Request) {
	v, ok := h.ownedVacancy(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.svc.DeleteVacancy(r.Context(), v.ID); err != nil {
		writeError(w, r, h.log, err, "vacancy not found", "failed to delete vacancy")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobHandler) ownedVacancy(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Vacancy, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	v, err := h.svc.GetVacancy(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, "vacancy not found", "failed to fetch vacancy")
		return nil, false
	}
	if err := h.authz.Authorize(r.Context(), action, ResourceVacancy, v); err != nil {
		writeError(w, r, h.log, err, "", "")
		return nil, false
	}
	return v, true
}

func validateVacancy(in *services.VacancyInput, v validation.Violations) {
	validation.Required("title", in.Title, v)
	validation.MaxLen("title", in.Title, 255, v)
	if in.Type != "" {
		validation.OneOf("type", in.Type, models.VacancyTypes, v)
	}
	if in.SalaryMin < 0 {
		v["salary_min"] = "must_not_be_negative"
	}
	if in.SalaryMax < 0 {
		v["salary_max"] = "must_not_be_negative"
	}
	if in.SalaryMax > 0 && in.SalaryMin > in.SalaryMax {
		v["salary_max"] = "below_minimum"
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Workers
// ─────────────────────────────────────────────────────────────────────────────

func (h *JobHandler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.WorkerFilter{
		Search:   firstParam(r, "search", "q"),
		Location: q.Get("location"),
		Skill:    q.Get("skill"),
	}
	if raw := q.Get("experience"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid experience")
			return
		}
		f.MinExperience = n
	}
	workers, err := h.svc.ListWorkers(r.Context(), f)
	if err != nil {
		writeError(w, r, h.log, err, "", "failed to fetch workers")
		return
	}
	httpx.JSON(w, http.StatusOK, workers)
}

func (h *JobHandler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	worker, err := h.svc.GetWorker(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, "worker not found", "failed to fetch worker")
		return
	}
	httpx.JSON(w, http.StatusOK, worker)
}

func (h *JobHandler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	worker, err := h.svc.GetWorker(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, "worker not found", "failed to fetch worker")
		return
	}
	if err := h.authz.Authorize(r.Context(), gate.ActionUpdate, ResourceWorker, worker); err != nil {
		writeError(w, r, h.log, err, "", "")
		return
	}
	var in services.WorkerInput
	if !decodeValid(w, r, &in, func(in *services.WorkerInput, v validation.Violations) {
		validation.Required("name", in.Name, v)
		validation.MaxLen("name", in.Name, 255, v)
		validation.NonNegativeInt("experience_years", in.ExperienceYears, v)
	}) {
		return
	}
	updated, err := h.svc.UpdateWorker(r.Context(), id, in)
	if err != nil {
		writeError(w, r, h.log, err, "worker not found", "failed to update worker")
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *JobHandler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteWorker(r.Context(), id); err != nil {
		writeError(w, r, h.log, err, "worker not found", "failed to delete worker")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Companies
// ─────────────────────────────────────────────────────────────────────────────

func (h *JobHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetCompany(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, "company not found", "failed to fetch company")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *JobHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetCompany(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, "company not found", "failed to fetch company")
		return
	}
	if err := h.authz.Authorize(r.Context(), gate.ActionUpdate, ResourceCompany, c); err != nil {
		writeError(w, r, h.log, err, "", "")
		return
	}
	var in services.CompanyInput
	if !decodeValid(w, r, &in, func(in *services.CompanyInput, v validation.Violations) {
		validation.Required("name", in.Name, v)
		validation.MaxLen("name", in.Name, 255, v)
	}) {
		return
	}
	updated, err := h.svc.UpdateCompany(r.Context(), id, in)
	if err != nil {
		writeError(w, r, h.log, err, "company not found", "failed to update company")
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}
