package api

import (
	"context"
	"net/http"

	"github.com/okian/contestboard/internal/domain/types"
)

// RefreshDependencies defines the interface for reloading the source sheet.
type RefreshDependencies interface {
	Refresh(ctx context.Context) (types.Snapshot, error)
}

// RefreshHandler handles manual reload requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// HandlePostRefresh handles POST /refresh requests.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Refresh(r.Context())
	if err != nil {
		respondError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
