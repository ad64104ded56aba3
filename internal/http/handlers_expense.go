package http

import (
	"context"
	"net/http"
	"strings"

	"saldo/internal/cache"
	"saldo/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.cachedExpenses(r.Context(), rng)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, buildExpenseResponses(rows))
}

func (s *Server) cachedExpenses(ctx context.Context, rng core.Range) ([]core.Expense, error) {
	key := rangeKey("expenses", rng)
	if rows, state := s.expensesCache.Get(key); state == cache.Hit {
		s.logger.DebugContext(ctx, "Expenses cache hit", "key", key, "count", len(rows))
		return rows, nil
	}

	s.expensesCache.Begin(key)
	rows, err := s.catalog.ListExpenses(ctx, rng)
	if err != nil {
		s.expensesCache.Abort(key)
		return nil, err
	}
	s.expensesCache.Put(key, rows)
	return rows, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := req.toInput(s.formatter.Code())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.expenses.Create(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateTransactionCaches()
	writeJSON(w, http.StatusCreated, buildExpenseResponse(created))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing expense id")
		return
	}

	if err := s.expenses.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateTransactionCaches()
	w.WriteHeader(http.StatusNoContent)
}
