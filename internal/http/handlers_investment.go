package http

import (
	"context"
	"net/http"

	"saldo/internal/cache"
	"saldo/internal/core"
)

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.cachedInvestments(r.Context(), rng)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.buildInvestmentResponses(rows))
}

func (s *Server) cachedInvestments(ctx context.Context, rng core.Range) ([]core.InvestmentTransaction, error) {
	key := rangeKey("investments", rng)
	if rows, state := s.investmentsCache.Get(key); state == cache.Hit {
		s.logger.DebugContext(ctx, "Investments cache hit", "key", key, "count", len(rows))
		return rows, nil
	}

	s.investmentsCache.Begin(key)
	rows, err := s.investments.List(ctx, rng)
	if err != nil {
		s.investmentsCache.Abort(key)
		return nil, err
	}
	s.investmentsCache.Put(key, rows)
	return rows, nil
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req createInvestmentRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.investments.Create(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateTransactionCaches()
	writeJSON(w, http.StatusCreated, s.buildInvestmentResponse(created))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.investments.Accounts(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, buildAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}
