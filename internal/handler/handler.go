package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/savesmart/internal/auth"
	"github.com/dukerupert/savesmart/internal/model"
)

const maxJSONBody = 1 << 20

func parseIDParam(r *http.Request) (int64, error) {
	return parsePathID(r, "id")
}

func parsePathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// requireUser writes a 401 and returns false when the request has no user.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := auth.RequireUser(r.Context())
	if errors.Is(err, auth.ErrNotLoggedIn) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return 0, false
	}
	return userID, true
}

// parseDate validates a YYYY-MM-DD date, defaulting to today when empty.
func parseDate(s string, now time.Time) (string, bool) {
	if s == "" {
		return now.Format(model.DateLayout), true
	}
	if _, err := time.Parse(model.DateLayout, s); err != nil {
		return "", false
	}
	return s, true
}

func queryInt64(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v, err == nil
}
