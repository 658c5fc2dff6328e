// internal/member/handler.go
package member

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gymgate/pkg/httpx"
)

// SoftDeleter moves a member into quarantine; wired to the quarantine
// lifecycle service.
type SoftDeleter interface {
	SoftDelete(ctx context.Context, memberID uuid.UUID) error
}

type Handler struct {
	service Service
	deleter SoftDeleter
}

func NewHandler(service Service, deleter SoftDeleter) *Handler {
	return &Handler{service: service, deleter: deleter}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{memberID}", h.handleGet)
	r.Put("/{memberID}", h.handleUpdate)
	r.Delete("/{memberID}", h.handleDelete)
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var params CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.service.Create(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Page:   queryInt(r, "page", 1),
		Size:   queryInt(r, "size", 20),
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status"),
	}

	members, total, err := h.service.List(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"page":    params.Page,
		"size":    params.Size,
		"members": members,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, m)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	var params UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, m)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	if err := h.deleter.SoftDelete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "member moved to quarantine",
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicatePhone):
		httpx.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidPhone):
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
