// Package backend is the client for the tracking backend that intercepts,
// executes and stores the API calls made by user scripts.
package backend

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// LanguagePython is the only language the backend executes
const LanguagePython = "python"

// APICall is one HTTP call intercepted by the backend
type APICall struct {
	ID        string            `json:"id"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Status    int               `json:"status"`
	Response  string            `json:"response"`
	Headers   map[string]string `json:"headers"`
	Timestamp float64           `json:"timestamp"` // epoch seconds
	Error     string            `json:"error,omitempty"`
}

// Time converts the epoch-seconds timestamp
func (c APICall) Time() time.Time {
	sec := int64(c.Timestamp)
	nsec := int64((c.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// Host returns the host part of the call URL, or "unknown"
func (c APICall) Host() string {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

// Failed reports whether the call errored or returned >= 400
func (c APICall) Failed() bool {
	return c.Error != "" || c.Status >= 400
}

// RunRequest is the body of POST /run
type RunRequest struct {
	Code      string `json:"code"`
	Language  string `json:"language"`
	SessionID string `json:"session_id"`
}

// RunResult is the reply of POST /run
type RunResult struct {
	Status   string    `json:"status"`
	Output   string    `json:"output"`
	APICalls []APICall `json:"api_calls"`
}

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsSessionNotFound reports whether err is a 404 from a session-scoped endpoint
func IsSessionNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == 404
}
