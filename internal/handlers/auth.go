package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/auth"
	"github.com/kerjaberkah/portal/httpx"
	"github.com/kerjaberkah/portal/internal/authapi"
	"github.com/kerjaberkah/portal/internal/models"
	"github.com/kerjaberkah/portal/validation"
)

// AuthClient is the part of *authapi.Client the handlers need.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (authapi.Token, error)
	Forget(token string)
}

type AuthHandler struct {
	client AuthClient
	db     *gorm.DB
	log    *slog.Logger
}

func NewAuthHandler(client AuthClient, db *gorm.DB, log *slog.Logger) *AuthHandler {
	return &AuthHandler{client: client, db: db, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login forwards the credentials to the auth API and relays its token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decodeValid(w, r, &in, func(in *loginRequest, v validation.Violations) {
		validation.Email("email", in.Email, v)
		validation.Required("password", in.Password, v)
	}) {
		return
	}
	token, err := h.client.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, authapi.ErrInvalidCredentials) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, h.log, err, "", "login failed")
		return
	}
	httpx.JSON(w, http.StatusOK, token)
}

// Logout drops the cached identity of the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.TokenFromContext(r.Context()); ok {
		h.client.Forget(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the local account of the caller with its roles.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var user models.User
	err := h.db.WithContext(r.Context()).Preload("Roles").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, h.log, err, "", "failed to fetch user")
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
