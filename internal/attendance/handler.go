// internal/attendance/handler.go
package attendance

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gymgate/internal/member"
	"gymgate/pkg/httpx"
)

// Handler serves the admin-facing attendance endpoints. Kiosk
// self-service goes through the kiosk façade instead.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/today", h.handleListToday)
	r.Put("/{sessionID}/checkout", h.handleCheckout)
	r.Get("/member/{memberID}", h.handleMemberMonth)
	return r
}

func (h *Handler) handleListToday(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 50)

	sessions, total, err := h.service.ListToday(r.Context(), page, size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{
		"total":    total,
		"page":     page,
		"size":     size,
		"checkins": sessions,
	})
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	session, err := h.service.Close(r.Context(), id, time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{
		"status":           "success",
		"session":          session,
		"duration_minutes": int(session.Duration().Minutes()),
	})
}

func (h *Handler) handleMemberMonth(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	year := queryInt(r, "year", 0)
	month := queryInt(r, "month", 0)
	if year == 0 || month < 1 || month > 12 {
		httpx.RespondError(w, http.StatusBadRequest, "year and month are required")
		return
	}

	sessions, err := h.service.ListForMonth(r.Context(), id, year, month)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{"checkins": sessions})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, member.ErrNotFound):
		httpx.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyClosed), errors.Is(err, ErrAlreadyCheckedIn):
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		httpx.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
