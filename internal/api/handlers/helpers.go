package handlers

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// userID reads the authenticated user from the gateway-set header.
// Authentication itself is out of scope here; an empty id means
// anonymous.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
