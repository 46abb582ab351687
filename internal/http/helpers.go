package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/404Simon/splitify/internal/core"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP statuses. Validation failures
// are the caller's fault (422), missing records 404, lost write races
// 409; anything unrecognized is a 500 and gets logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrStorageConflict),
		errors.Is(err, core.ErrScheduleExhausted):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyParticipantSet),
		errors.Is(err, core.ErrDuplicateParticipant),
		errors.Is(err, core.ErrCrossGroupParticipant),
		errors.Is(err, core.ErrSelfTransaction),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidFrequency):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

// pathID parses the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// userID reads the authenticated caller's id set by the fronting proxy.
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing or invalid X-User-ID header"})
		return 0, false
	}
	return id, true
}

// parseAmount converts a request amount string, reporting 422 on bad
// input.
func parseAmount(w http.ResponseWriter, s string) (core.Money, bool) {
	amount, err := core.ParseAmount(s)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return core.Money{}, false
	}
	return amount, true
}
