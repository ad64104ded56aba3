package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service and storage sentinels onto HTTP statuses.
// Anything unmapped is a 500 with a generic body; the detail goes to the log.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrUnknownCategory),
		errors.Is(err, services.ErrUnknownAccount),
		errors.Is(err, services.ErrUnknownLinkedExpense),
		errors.Is(err, services.ErrIncompatibleCategory):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyAccount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseRange reads optional start/end query parameters. Each accepts RFC3339
// or a plain date; a date-only end bound covers the whole day. Absent
// parameters leave the bound open.
func parseRange(r *http.Request) (core.Range, error) {
	var rng core.Range

	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		t, _, err := parseTimeParam(v)
		if err != nil {
			return core.Range{}, err
		}
		rng.Start = t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		t, dateOnly, err := parseTimeParam(v)
		if err != nil {
			return core.Range{}, err
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Second)
		}
		rng.End = t
	}

	if err := rng.Validate(); err != nil {
		return core.Range{}, err
	}
	return rng, nil
}

func parseTimeParam(v string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), true, nil
	}
	if t, err = time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, errors.New("invalid time parameter: " + v)
}

// rangeKey builds the cache key for a family and range. Open bounds encode
// as empty parts so "last 30 days" and "all time" never collide.
func rangeKey(family string, rng core.Range) string {
	start, end := "", ""
	if !rng.Start.IsZero() {
		start = rng.Start.UTC().Format(time.RFC3339)
	}
	if !rng.End.IsZero() {
		end = rng.End.UTC().Format(time.RFC3339)
	}
	return family + ":" + start + ":" + end
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	return r.RemoteAddr
}
