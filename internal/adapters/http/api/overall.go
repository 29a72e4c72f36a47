package api

import (
	"context"
	"net/http"

	"github.com/okian/contestboard/internal/domain/types"
)

// OverallDependencies defines the interface for the cross-contest ordering.
type OverallDependencies interface {
	Overall(ctx context.Context, f types.Filter, limit int) ([]Entry, error)
}

// OverallHandler handles overall standings requests.
type OverallHandler struct {
	deps     OverallDependencies
	maxLimit int
}

// NewOverallHandler creates a new overall handler.
func NewOverallHandler(deps OverallDependencies, maxLimit int) *OverallHandler {
	return &OverallHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetOverall handles GET /overall?company=X&q=Y&limit=N requests.
func (h *OverallHandler) HandleGetOverall(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_overall"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := parseLimit(op, r, h.maxLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := types.Filter{Company: q.Get("company"), Search: q.Get("q")}
	entries, err := h.deps.Overall(r.Context(), f, n)
	if err != nil {
		respondError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
