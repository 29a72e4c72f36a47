package api

import (
	"context"
	"math"
	"net/http"

	"github.com/okian/contestboard/internal/domain/types"
)

// DirectoryDependencies defines the interface for company and name lookups.
type DirectoryDependencies interface {
	Companies(ctx context.Context) ([]types.Company, error)
	Suggest(ctx context.Context, query, company string, limit int) ([]string, error)
}

// DirectoryHandler handles company list and name suggestion requests.
type DirectoryHandler struct {
	deps DirectoryDependencies
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(deps DirectoryDependencies) *DirectoryHandler {
	return &DirectoryHandler{deps: deps}
}

// HandleGetCompanies handles GET /companies requests.
func (h *DirectoryHandler) HandleGetCompanies(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_companies"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	companies, err := h.deps.Companies(r.Context())
	if err != nil {
		respondError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

// HandleGetSuggest handles GET /suggest?q=Q&company=X&limit=N requests.
func (h *DirectoryHandler) HandleGetSuggest(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_suggest"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Suggestions are capped by the service; any positive limit is accepted.
	n, err := parseLimit(op, r, math.MaxInt)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	names, err := h.deps.Suggest(r.Context(), q.Get("q"), q.Get("company"), n)
	if err != nil {
		respondError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, names)
}
