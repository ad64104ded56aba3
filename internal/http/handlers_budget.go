package http

import (
	"net/http"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/services"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = core.PeriodOf(time.Now())
	} else if _, err := time.Parse("2006-01", month); err != nil {
		writeError(w, http.StatusBadRequest, "invalid month parameter: "+month)
		return
	}

	statuses, err := s.budgets.Statuses(r.Context(), month)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]budgetStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, s.buildBudgetStatusResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := req.toBudget()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.budgets.Create(r.Context(), budget)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// A fresh budget has no spending yet.
	writeJSON(w, http.StatusCreated, s.buildBudgetStatusResponse(services.BudgetStatus{
		Budget:    created,
		Remaining: created.Amount.Major(),
	}))
}
