// Package handlers serves the dashboard JSON API over the monitor store,
// the generator state and the tracking backend.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pysugar/api-tracker/internal/backend"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Handlers] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// writeBackendError maps a backend failure to a response. Backend 404s pass
// through; everything else is a bad gateway.
func writeBackendError(w http.ResponseWriter, err error) {
	var se *backend.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}
