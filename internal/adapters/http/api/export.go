package api

import (
	"errors"
	"net/http"

	"github.com/okian/contestboard/internal/adapters/export"
	"github.com/okian/contestboard/pkg/logger"
	"github.com/okian/contestboard/pkg/metrics"
)

// ExportHandler serves contest standings as a spreadsheet.
type ExportHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps LeaderboardDependencies, maxLimit int) *ExportHandler {
	return &ExportHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetExport handles GET /export.xlsx?contest=C&limit=N requests.
// view=report exports the fixed-size report view instead of the leaderboard
// and rejects limit.
func (h *ExportHandler) HandleGetExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_export"
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

	reportView := r.URL.Query().Get("view") == "report"
	if reportView && r.URL.Query().Has("limit") {
		respondError(w, r, WrapKind(op, ErrBadRequest, errors.New("limit does not apply to the report view")))
		return
	}

	var entries []Entry
	if reportView {
		entries, err = h.deps.Report(r.Context(), contest)
	} else {
		entries, err = h.deps.Leaderboard(r.Context(), contest, n)
	}
	if err != nil {
		respondError(w, r, Wrap(op, err))
		return
	}

	file, err := export.Standings(contest, entries)
	if err != nil {
		respondError(w, r, WrapKind(op, ErrExport, err))
		return
	}
	defer func() { _ = file.Close() }()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(contest)+`"`)
	if err := file.Write(w); err != nil {
		logger.Named("api").Error(r.Context(), "write export", logger.Error(err))
		return
	}
	metrics.RecordExport(contest.String())
}
