package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/optira-energie/comparateur-api/internal/entity"
	"github.com/optira-energie/comparateur-api/internal/infra/http/middleware"
	"github.com/optira-energie/comparateur-api/internal/usecase"
)

type ProspectHandler struct {
	Sessions    *usecase.ProspectSessionUseCase
	rateLimiter *RateLimiter
}

func NewProspectHandler(sessions *usecase.ProspectSessionUseCase) *ProspectHandler {
	return &ProspectHandler{
		Sessions:    sessions,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min par IP
	}
}

// HandleCreate (POST /api/prospects, X-Session-ID header). 201 on a fresh
// draft, 200 with the same id when the session already owns one.
func (h *ProspectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
		return
	}

	sessionID := r.Header.Get("X-Session-ID")

	out, err := h.Sessions.Create(r.Context(), usecase.CreateProspectInput{
		SessionID: sessionID,
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
		middleware.RecordProspectCreated()
	}
	writeJSON(w, status, out)
}

// HandleGet (GET /api/prospects/{id}). A stale or tampered id is a normal
// branch: 404 and the client restarts the funnel.
func (h *ProspectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Sessions.Get(r.Context(), id)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// HandleUpdateStep (PUT /api/prospects/{id}/steps/{step}).
func (h *ProspectHandler) HandleUpdateStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_STEP", "step must be a number")
		return
	}

	var patch usecase.ProspectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON invalide")
		return
	}

	out, err := h.Sessions.UpdateStep(r.Context(), id, patch, step)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	middleware.RecordStepSaved(step)
	writeJSON(w, http.StatusOK, out)
}

type finalizeResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
}

// HandleFinalize (POST /api/prospects/{id}/finalize). The last patch rides
// along; 409 when the prospect was already submitted.
func (h *ProspectHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch usecase.ProspectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON invalide")
		return
	}

	p, err := h.Sessions.Finalize(r.Context(), id, patch, getClientIP(r))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	middleware.RecordProspectFinalized()
	writeJSON(w, http.StatusOK, finalizeResponse{
		ID:          p.ID,
		RedirectURL: "/merci?prospectId=" + p.ID,
	})
}

// HandleReset (DELETE /api/sessions/{sessionId}). Frees the session so a
// new funnel run can start from scratch.
func (h *ProspectHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	if err := h.Sessions.ResetSession(r.Context(), sessionID); err != nil {
		writeUseCaseError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeUseCaseError maps the use case error taxonomy onto HTTP statuses.
func writeUseCaseError(w http.ResponseWriter, err error) {
	var verrs usecase.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"errors": verrs,
		})
		return
	}

	if errors.Is(err, entity.ErrProspectNotFound) {
		writeErrorResponse(w, http.StatusNotFound, "not_found", "Prospect introuvable")
		return
	}
	if errors.Is(err, entity.ErrFileNotFound) {
		writeErrorResponse(w, http.StatusNotFound, "not_found", "Fichier introuvable")
		return
	}

	var derr *usecase.DomainError
	if errors.As(err, &derr) {
		status := http.StatusBadRequest
		if derr.Code == "ALREADY_FINALIZED" {
			status = http.StatusConflict
		}
		writeErrorResponse(w, status, derr.Code, derr.Message)
		return
	}

	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Une erreur est survenue")
}
