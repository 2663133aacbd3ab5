package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

// writeOptional writes v, or 404 when the value is absent or unreadable.
func writeOptional[T any](w http.ResponseWriter, v *T, what string) {
	if v == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": what + " unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRPCBody))
	return dec.Decode(v)
}
