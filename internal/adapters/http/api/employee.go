package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/contestboard/internal/domain/types"
)

// EmployeeDependencies defines the interface for personal reports.
type EmployeeDependencies interface {
	Employee(ctx context.Context, name, company string) (types.Report, error)
}

// EmployeeHandler handles personal report requests.
type EmployeeHandler struct {
	deps EmployeeDependencies
}

// NewEmployeeHandler creates a new employee handler.
func NewEmployeeHandler(deps EmployeeDependencies) *EmployeeHandler {
	return &EmployeeHandler{deps: deps}
}

// HandleGetEmployee handles GET /employees/{name}?company=X requests.
func (h *EmployeeHandler) HandleGetEmployee(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_employee"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/employees/"))
	if name == "" {
		respondError(w, r, WrapKind(op, ErrBadRequest, errors.New("missing employee name")))
		return
	}
	report, err := h.deps.Employee(r.Context(), name, r.URL.Query().Get("company"))
	if err != nil {
		respondError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
