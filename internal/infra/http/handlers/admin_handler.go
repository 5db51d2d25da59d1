package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/optira-energie/comparateur-api/internal/entity"
)

// AdminHandler serves the back-office listing and status workflow. No
// funnel traffic comes through here.
type AdminHandler struct {
	Repo entity.ProspectRepositoryInterface
}

func NewAdminHandler(repo entity.ProspectRepositoryInterface) *AdminHandler {
	return &AdminHandler{Repo: repo}
}

// HandleList (GET /api/prospects?limit=). Newest first.
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeErrorResponse(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive number")
			return
		}
		limit = n
	}

	prospects, err := h.Repo.List(r.Context(), limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list prospects")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prospects": prospects,
		"count":     len(prospects),
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus (PATCH /api/prospects/{id}/status). Only the
// back-office statuses are reachable here; draft and new belong to the
// funnel lifecycle.
func (h *AdminHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON invalide")
		return
	}

	status := entity.ProspectStatus(req.Status)
	if !status.IsBackOffice() {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_STATUS", "status must be one of contacted, converted, lost")
		return
	}

	if err := h.Repo.UpdateStatus(r.Context(), id, status); err != nil {
		writeUseCaseError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
