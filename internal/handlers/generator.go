package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pysugar/api-tracker/internal/generator"
)

type generatorStateRequest struct {
	Workflow          *generator.Workflow          `json:"workflow"`
	SelectedStepID    string                       `json:"selectedStepId"`
	InterpretedParams []generator.InterpretedParam `json:"interpretedParams"`
	Language          string                       `json:"selectedLanguage"`
}

// GetGeneratorStateHandler returns the saved generator state, or 204 when
// nothing younger than 24 hours is stored
func GetGeneratorStateHandler(p *generator.Persister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, ok := p.Load()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"workflow":          state.Workflow,
			"selectedStepId":    state.SelectedStepID,
			"interpretedParams": state.InterpretedParams,
			"selectedLanguage":  state.Language,
			"lastUpdated":       state.LastUpdated.UnixMilli(),
		})
	}
}

// SaveGeneratorStateHandler queues a debounced save of the posted state
func SaveGeneratorStateHandler(d *generator.DebouncedSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generatorStateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Workflow == nil {
			writeError(w, http.StatusBadRequest, "workflow is required")
			return
		}
		if req.SelectedStepID != "" {
			if _, ok := req.Workflow.Step(req.SelectedStepID); !ok {
				writeError(w, http.StatusBadRequest, "selectedStepId does not match a workflow step")
				return
			}
		}

		d.Schedule(req.Workflow, req.SelectedStepID, req.InterpretedParams, req.Language)
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"scheduled": true,
		})
	}
}

// ClearGeneratorStateHandler drops any queued save and the stored state
func ClearGeneratorStateHandler(d *generator.DebouncedSaver, p *generator.Persister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Stop()
		p.Clear()
		writeOK(w)
	}
}
