// internal/admin/handler.go
package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gymgate/pkg/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.handleLogin)
	r.With(h.RequireAuth).Put("/password", h.handleChangePassword)
	return r
}

// RequireAuth gates a route on a valid admin bearer token.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			httpx.RespondError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if err := h.service.Verify(token); err != nil {
			httpx.RespondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.service.Login(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidPassword) || errors.Is(err, ErrNoAdmin) {
			httpx.RespondError(w, http.StatusUnauthorized, "authentication failed")
			return
		}
		httpx.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"token":  token,
	})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.NewPassword == "" {
		httpx.RespondError(w, http.StatusBadRequest, "new password must not be empty")
		return
	}

	if err := h.service.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			httpx.RespondError(w, http.StatusUnauthorized, "current password does not match")
			return
		}
		httpx.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "password changed",
	})
}
