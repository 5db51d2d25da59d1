package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/optira-energie/comparateur-api/internal/infra/http/middleware"
	"github.com/optira-energie/comparateur-api/internal/infra/integration/registry"
)

type CompanySearcher interface {
	Search(ctx context.Context, query string) ([]registry.CompanyMatch, error)
}

// CompanySearchHandler proxies autocompletion queries to the public
// business registry so the browser never talks to it directly.
type CompanySearchHandler struct {
	Registry CompanySearcher
}

func NewCompanySearchHandler(reg CompanySearcher) *CompanySearchHandler {
	return &CompanySearchHandler{Registry: reg}
}

type companySearchResponse struct {
	Companies []registry.CompanyMatch `json:"companies"`
	Error     string                  `json:"error,omitempty"`
	Details   string                  `json:"details,omitempty"`
}

// Handle (GET /api/search-companies?q=). A registry outage degrades to an
// empty list with 200; the funnel must keep moving with manual entry.
func (h *CompanySearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	// Rune count, not bytes: "éco" is a valid 3-character query.
	if utf8.RuneCountInString(query) < 3 {
		writeErrorResponse(w, http.StatusBadRequest, "QUERY_TOO_SHORT", "Le paramètre q doit contenir au moins 3 caractères")
		return
	}

	matches, err := h.Registry.Search(r.Context(), query)
	if err != nil {
		log.Printf("company search failed for %q: %v", query, err)
		middleware.RecordRegistryError()
		writeJSON(w, http.StatusOK, companySearchResponse{
			Companies: []registry.CompanyMatch{},
			Error:     "search_unavailable",
			Details:   "La recherche d'entreprises est momentanément indisponible",
		})
		return
	}

	writeJSON(w, http.StatusOK, companySearchResponse{Companies: matches})
}
