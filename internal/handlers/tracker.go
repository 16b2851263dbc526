package handlers

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/api-tracker/internal/tracker"
	"github.com/pysugar/api-tracker/internal/version"
)

// EndpointsHandler returns the documentation tree in the fixed categories
func EndpointsHandler(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		structure, err := t.DocStructure(r.Context())
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, structure)
	}
}

// DocHandler returns a single documentation record
func DocHandler(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := t.OpenDoc(r.Context(), chi.URLParam(r, "docId"))
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

// CallsHandler refreshes and returns the session's calls. With ?group=host
// the calls are grouped by host.
func CallsHandler(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls, err := t.Refresh(r.Context())
		if err != nil {
			writeBackendError(w, err)
			return
		}
		if r.URL.Query().Get("group") == "host" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"sessionId": t.SessionID(),
				"hosts":     tracker.Group(calls),
				"count":     len(calls),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"sessionId": t.SessionID(),
			"calls":     calls,
			"count":     len(calls),
		})
	}
}

// CallDetailsHandler returns one call from the last refresh
func CallDetailsHandler(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call, err := t.Details(chi.URLParam(r, "callId"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, call)
	}
}

// ClearCallsHandler clears the session's calls
func ClearCallsHandler(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := t.Clear(r.Context()); err != nil {
			writeBackendError(w, err)
			return
		}
		writeOK(w)
	}
}

// RunHandler runs a Python file from disk, or inline code, on the backend
func RunHandler(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string `json:"path"`
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var (
			result interface{}
			err    error
		)
		switch {
		case req.Path != "":
			result, err = t.RunFile(r.Context(), req.Path)
		case req.Code != "":
			result, err = t.RunCode(r.Context(), "inline", req.Code)
		default:
			writeError(w, http.StatusBadRequest, "path or code is required")
			return
		}
		if errors.Is(err, tracker.ErrNotPython) || errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// VersionHandler reports build information
func VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":   version.Version,
			"commit":    version.Commit,
			"buildTime": version.BuildTime,
		})
	}
}
