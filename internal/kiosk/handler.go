// internal/kiosk/handler.go
package kiosk

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"gymgate/internal/attendance"
	"gymgate/internal/member"
	"gymgate/pkg/httpx"
)

type Handler struct {
	facade  *Facade
	limiter *rate.Limiter
}

func NewHandler(facade *Facade, limiter *rate.Limiter) *Handler {
	return &Handler{facade: facade, limiter: limiter}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.rateLimit)
	r.Post("/search-by-phone", h.handleSearchByPhone)
	r.Post("/checkin/{memberID}", h.handleCheckIn)
	r.Post("/checkout/{memberID}", h.handleCheckOut)
	return r
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			httpx.RespondError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleSearchByPhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Accept a full number but match on the last four digits only.
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.TrimSpace(req.PhoneNumber))
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}

	candidates, err := h.facade.SearchByPhoneTail(r.Context(), digits)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if len(candidates) == 0 {
		httpx.RespondJSON(w, http.StatusOK, map[string]any{
			"status":  "not_found",
			"message": "no registered member",
		})
		return
	}

	status := "success"
	if len(candidates) > 1 {
		status = "duplicate"
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"count":   len(candidates),
		"members": candidates,
	})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	result, err := h.facade.CheckIn(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	result, err := h.facade.CheckOut(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, member.ErrNotFound):
		httpx.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMemberSuspended), errors.Is(err, ErrMembershipExpired):
		httpx.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, ErrNotCheckedIn),
		errors.Is(err, ErrInvalidPhoneTail):
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		httpx.RespondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		httpx.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
