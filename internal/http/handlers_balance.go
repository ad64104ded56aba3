package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"saldo/internal/cache"
	"saldo/internal/core"
)

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.cachedBalance(r.Context(), rng)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.buildBalanceResponse(data))
}

func (s *Server) cachedBalance(ctx context.Context, rng core.Range) (core.BalanceData, error) {
	key := rangeKey("balance", rng)
	if data, state := s.balanceCache.Get(key); state == cache.Hit {
		s.logger.DebugContext(ctx, "Balance cache hit", "key", key)
		return data, nil
	}

	s.balanceCache.Begin(key)
	data, err := s.balances.Balance(ctx, rng)
	if err != nil {
		s.balanceCache.Abort(key)
		return core.BalanceData{}, err
	}
	s.balanceCache.Put(key, data)
	return data, nil
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	typ := core.CategoryType(strings.TrimSpace(r.URL.Query().Get("type")))
	if typ != "" && !typ.Valid() {
		writeError(w, http.StatusBadRequest, "invalid category type: "+string(typ))
		return
	}

	cats, err := s.catalog.ListCategories(r.Context(), typ)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, buildCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	top := s.topCategories
	if v := strings.TrimSpace(r.URL.Query().Get("top")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid top parameter: "+v)
			return
		}
		top = n
	}

	totals, err := s.cachedCategoryTotals(r.Context(), rng)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// Rank a copy; the cached slice keeps insertion order.
	ranked := make([]core.CategoryTotal, len(totals))
	copy(ranked, totals)
	core.SortByAmount(ranked)
	ranked = core.TopN(ranked, top)

	writeJSON(w, http.StatusOK, s.buildCategoryTotalResponses(ranked))
}

func (s *Server) cachedCategoryTotals(ctx context.Context, rng core.Range) ([]core.CategoryTotal, error) {
	key := rangeKey("categorytotals", rng)
	if totals, state := s.totalsCache.Get(key); state == cache.Hit {
		s.logger.DebugContext(ctx, "Category totals cache hit", "key", key)
		return totals, nil
	}

	s.totalsCache.Begin(key)
	totals, err := s.balances.CategoryTotals(ctx, rng)
	if err != nil {
		s.totalsCache.Abort(key)
		return nil, err
	}
	s.totalsCache.Put(key, totals)
	return totals, nil
}
