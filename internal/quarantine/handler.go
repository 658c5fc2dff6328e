// internal/quarantine/handler.go
package quarantine

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

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
	r.Get("/", h.handleList)
	r.Post("/restore-all", h.handleRestoreAll)
	r.Delete("/purge-expired", h.handlePurgeExpired)
	r.Post("/{memberID}/restore", h.handleRestore)
	r.Delete("/{memberID}", h.handlePurge)
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)

	records, total, err := h.service.List(r.Context(), page, size, r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"page":    page,
		"size":    size,
		"members": records,
	})
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	if err := h.service.Restore(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "member restored",
	})
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	if err := h.service.Purge(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "member permanently deleted",
	})
}

func (h *Handler) handleRestoreAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.RestoreAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("%d members restored", count),
		"count":   count,
	})
}

func (h *Handler) handlePurgeExpired(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.PurgeExpired(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("%d members permanently deleted", count),
		"count":   count,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, member.ErrNotFound):
		httpx.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, member.ErrDuplicatePhone):
		httpx.RespondError(w, http.StatusConflict, err.Error())
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
