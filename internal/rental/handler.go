// internal/rental/handler.go
package rental

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gymgate/internal/member"
	"gymgate/pkg/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/lockers/available", h.handleAvailableLockers)
	r.Post("/{memberID}/locker", h.handleRentLocker)
	r.Delete("/{memberID}/locker", h.handleReturnLocker)
	r.Post("/{memberID}/uniform", h.handleRentUniform)
	r.Delete("/{memberID}/uniform", h.handleReturnUniform)
	return r
}

func (h *Handler) handleRentLocker(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	var req struct {
		LockerNumber int    `json:"locker_number"`
		LockerType   string `json:"locker_type"`
		Months       int    `json:"months"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	locker, err := h.service.RentLocker(r.Context(), id, req.LockerNumber, req.LockerType, req.Months)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, map[string]any{
		"status":        "success",
		"locker_rental": locker,
	})
}

func (h *Handler) handleReturnLocker(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	if err := h.service.ReturnLocker(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) handleRentUniform(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	var req struct {
		UniformType string `json:"uniform_type"`
		Months      int    `json:"months"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	uniform, err := h.service.RentUniform(r.Context(), id, req.UniformType, req.Months)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, map[string]any{
		"status":         "success",
		"uniform_rental": uniform,
	})
}

func (h *Handler) handleReturnUniform(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	if err := h.service.ReturnUniform(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) handleAvailableLockers(w http.ResponseWriter, r *http.Request) {
	lockers, err := h.service.AvailableLockers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{"available_lockers": lockers})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, member.ErrNotFound), errors.Is(err, ErrNoRental):
		httpx.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyRenting), errors.Is(err, ErrLockerTaken),
		errors.Is(err, ErrInvalidLockerNumber), errors.Is(err, ErrInvalidTerm):
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		httpx.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
