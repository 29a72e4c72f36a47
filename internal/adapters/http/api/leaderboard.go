package api

import (
	"context"
	"net/http"

	"github.com/okian/contestboard/internal/domain/model"
)

// LeaderboardDependencies defines the interface for contest standings.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, contest model.ContestType, limit int) ([]Entry, error)
	Report(ctx context.Context, contest model.ContestType) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard and report requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?contest=C&limit=N requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	contest, err := parseContest(op, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	n, err := parseLimit(op, r, h.maxLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), contest, n)
	if err != nil {
		respondError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetReport handles GET /report?contest=C requests.
func (h *LeaderboardHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	contest, err := parseContest(op, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	entries, err := h.deps.Report(r.Context(), contest)
	if err != nil {
		respondError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
