package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pysugar/api-tracker/internal/monitor"
)

// GetLogsHandler returns the most recent log entries
func GetLogsHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs := m.Logs(queryInt(r, "limit", 100))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"logs":  logs,
			"count": len(logs),
		})
	}
}

// ClearLogsHandler empties the log buffer and, with ?history=true, the persisted history
func ClearLogsHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.ClearLogs()
		if r.URL.Query().Get("history") == "true" {
			if err := m.ClearHistory(); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to clear history: "+err.Error())
				return
			}
		}
		writeOK(w)
	}
}

// GetLogHistoryHandler pages through persisted log entries
func GetLogHistoryHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		size := queryInt(r, "size", 50)
		if size > 500 {
			size = 500
		}
		search := r.URL.Query().Get("q")

		logs, total := m.History(page, size, search)
		if logs == nil {
			logs = []monitor.LogEntry{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"logs":  logs,
			"total": total,
			"page":  page,
			"size":  size,
		})
	}
}

// GetActivitiesHandler returns the most recent activities
func GetActivitiesHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activities := m.Activities(queryInt(r, "limit", 50))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"activities": activities,
			"count":      len(activities),
		})
	}
}

// AddActivityHandler appends an activity posted by a client
func AddActivityHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type        monitor.Category `json:"type"`
			Title       string           `json:"title"`
			Description string           `json:"description"`
			Metadata    monitor.Metadata `json:"metadata"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Type == "" || req.Title == "" {
			writeError(w, http.StatusBadRequest, "type and title are required")
			return
		}
		if !req.Type.Valid() {
			writeError(w, http.StatusBadRequest, "unknown activity type: "+string(req.Type))
			return
		}

		m.AddActivity(monitor.ActivityEntry{
			Type:        req.Type,
			Title:       req.Title,
			Description: req.Description,
			Metadata:    req.Metadata,
		})
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"recorded": m.IsEnabled(),
		})
	}
}

// ClearActivitiesHandler empties the activity feed
func ClearActivitiesHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.ClearActivities()
		writeOK(w)
	}
}

// GetMetricsHandler returns the aggregate metrics
func GetMetricsHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, m.Metrics())
	}
}

// UpdateMetricsHandler merges a partial metrics record
func UpdateMetricsHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch monitor.MetricsPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		m.UpdateMetrics(patch)
		writeJSON(w, http.StatusOK, m.Metrics())
	}
}

// ResetMetricsHandler restores the initial metrics
func ResetMetricsHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.ResetMetrics()
		writeJSON(w, http.StatusOK, m.Metrics())
	}
}

// GetLoggingStatusHandler returns the current logging status
func GetLoggingStatusHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"enabled": m.IsEnabled(),
		})
	}
}

// ToggleLoggingHandler enables or disables logging
func ToggleLoggingHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		m.SetLogging(*req.Enabled)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"enabled": m.IsEnabled(),
		})
	}
}

// LogHandler records a log entry at the requested level
func LogHandler(m *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Level      monitor.Level  `json:"level"`
			Message    string         `json:"message"`
			Details    string         `json:"details"`
			Method     string         `json:"method"`
			Endpoint   string         `json:"endpoint"`
			StatusCode int            `json:"statusCode"`
			Duration   int64          `json:"duration"`
			Attrs      []monitor.Attr `json:"attrs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		d := monitor.Details{
			Method:     req.Method,
			Endpoint:   req.Endpoint,
			StatusCode: req.StatusCode,
			Duration:   req.Duration,
			Stack:      req.Details,
			Attrs:      req.Attrs,
		}
		if req.Endpoint != "" && req.StatusCode != 0 {
			m.LogAPIRequest(req.Endpoint, req.Method, req.StatusCode, req.Duration, d)
		} else {
			if req.Message == "" {
				writeError(w, http.StatusBadRequest, "message is required")
				return
			}
			m.Log(req.Level, req.Message, d)
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"recorded": m.IsEnabled(),
		})
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
