package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kerjaberkah/portal/httpx"
	"github.com/kerjaberkah/portal/internal/services"
	"github.com/kerjaberkah/portal/validation"
)

type RegistrationHandler struct {
	svc *services.RegistrationService
	log *slog.Logger
}

func NewRegistrationHandler(svc *services.RegistrationService, log *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, log: log}
}

func (h *RegistrationHandler) RegisterWorker(w http.ResponseWriter, r *http.Request) {
	var in services.WorkerRegistration
	if !decodeValid(w, r, &in, func(in *services.WorkerRegistration, v validation.Violations) {
		validation.Email("email", in.Email, v)
		validation.Required("name", in.Name, v)
		validation.MaxLen("name", in.Name, 255, v)
		validation.NonNegativeInt("experience_years", in.ExperienceYears, v)
	}) {
		return
	}
	reg, err := h.svc.RegisterWorker(r.Context(), in)
	h.reply(w, r, reg, err)
}

func (h *RegistrationHandler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	var in services.CompanyRegistration
	if !decodeValid(w, r, &in, func(in *services.CompanyRegistration, v validation.Violations) {
		validation.Email("email", in.Email, v)
		validation.Required("name", in.Name, v)
		validation.MaxLen("name", in.Name, 255, v)
	}) {
		return
	}
	reg, err := h.svc.RegisterCompany(r.Context(), in)
	h.reply(w, r, reg, err)
}

func (h *RegistrationHandler) reply(w http.ResponseWriter, r *http.Request, reg *services.Registration, err error) {
	if err != nil {
		// duplicates surface as 409 through writeError
		writeError(w, r, h.log, err, "", "registration failed")
		return
	}
	httpx.JSON(w, http.StatusCreated, reg)
}
