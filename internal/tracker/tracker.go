// Package tracker holds the tracking session and the operations the editor
// surface exposes: run the current file, refresh, clear and inspect calls.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pysugar/api-tracker/internal/backend"
	"github.com/pysugar/api-tracker/internal/docs"
	"github.com/pysugar/api-tracker/internal/monitor"
)

var (
	// ErrNotPython is returned when asked to run a non-Python file
	ErrNotPython = errors.New("only Python files can be run")
	// ErrCallNotFound is returned by Details for an unknown call id
	ErrCallNotFound = errors.New("call not found")
)

// Backend is the subset of the backend client the tracker uses
type Backend interface {
	CreateSession(ctx context.Context) (string, error)
	RunCode(ctx context.Context, sessionID, code string) (*backend.RunResult, error)
	Calls(ctx context.Context, sessionID string) ([]backend.APICall, error)
	ClearCalls(ctx context.Context, sessionID string) error
	DocStructure(ctx context.Context) (map[string][]docs.Endpoint, error)
	Doc(ctx context.Context, docID string) (*docs.Doc, error)
}

// Tracker owns one backend session and the calls last fetched for it
type Tracker struct {
	backend Backend
	monitor *monitor.Monitor

	mu        sync.RWMutex
	sessionID string
	calls     []backend.APICall
}

// New creates a Tracker. mon may be nil.
func New(b Backend, mon *monitor.Monitor) *Tracker {
	return &Tracker{backend: b, monitor: mon}
}

// Observer returns a backend.ObserveFunc that records backend calls in mon
func Observer(mon *monitor.Monitor) backend.ObserveFunc {
	return func(method, path string, status int, elapsed time.Duration, err error) {
		if status == 0 {
			mon.LogError(fmt.Sprintf("%s %s failed: %v", method, path, err), monitor.Details{
				Method:   method,
				Endpoint: path,
			})
			return
		}
		mon.LogAPIRequest(path, method, status, elapsed.Milliseconds(), monitor.Details{})
	}
}

// SessionID returns the current session id, empty before the first call
func (t *Tracker) SessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

// SetSessionID resumes a session created earlier, e.g. by a previous process.
// A stale id is replaced on first use.
func (t *Tracker) SetSessionID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id != t.sessionID {
		t.sessionID = id
		t.calls = nil
	}
}

// Session returns the current session id, creating a session if needed
func (t *Tracker) Session(ctx context.Context) (string, error) {
	t.mu.RLock()
	id := t.sessionID
	t.mu.RUnlock()
	if id != "" {
		return id, nil
	}
	return t.newSession(ctx)
}

func (t *Tracker) newSession(ctx context.Context) (string, error) {
	id, err := t.backend.CreateSession(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create tracking session: %w", err)
	}

	t.mu.Lock()
	t.sessionID = id
	t.calls = nil
	t.mu.Unlock()

	log.Printf("[Tracker] Session created: %s", id)
	t.info("Tracking session created", monitor.Details{Attrs: []monitor.Attr{{Key: "sessionId", Value: id}}})
	return id, nil
}

// withSession runs fn with a valid session. When the backend no longer knows
// the session, a new one is created and fn is retried once.
func (t *Tracker) withSession(ctx context.Context, fn func(sessionID string) error) error {
	id, err := t.Session(ctx)
	if err != nil {
		return err
	}
	err = fn(id)
	if !backend.IsSessionNotFound(err) {
		return err
	}

	log.Printf("[Tracker] Session %s unknown to backend, creating a new one", id)
	t.mu.Lock()
	if t.sessionID == id {
		t.sessionID = ""
	}
	t.mu.Unlock()

	id, err = t.Session(ctx)
	if err != nil {
		return err
	}
	return fn(id)
}

// Refresh fetches the calls recorded for the session
func (t *Tracker) Refresh(ctx context.Context) ([]backend.APICall, error) {
	var calls []backend.APICall
	err := t.withSession(ctx, func(sessionID string) error {
		var err error
		calls, err = t.backend.Calls(ctx, sessionID)
		return err
	})
	if err != nil {
		t.fail("Failed to fetch API calls", err)
		return nil, err
	}

	t.mu.Lock()
	t.calls = calls
	t.mu.Unlock()
	return copyCalls(calls), nil
}

// Clear deletes the session's calls on the backend and locally
func (t *Tracker) Clear(ctx context.Context) error {
	err := t.withSession(ctx, func(sessionID string) error {
		return t.backend.ClearCalls(ctx, sessionID)
	})
	if err != nil {
		t.fail("Failed to clear API calls", err)
		return err
	}

	t.mu.Lock()
	t.calls = nil
	t.mu.Unlock()
	t.info("Cleared tracked API calls", monitor.Details{})
	return nil
}

// RunFile executes a Python file on the backend and records its calls
func (t *Tracker) RunFile(ctx context.Context, path string) (*backend.RunResult, error) {
	if !IsPythonFile(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotPython)
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t.RunCode(ctx, filepath.Base(path), string(code))
}

// RunCode executes Python source on the backend. name labels the activity.
func (t *Tracker) RunCode(ctx context.Context, name, code string) (*backend.RunResult, error) {
	start := time.Now()
	var result *backend.RunResult
	err := t.withSession(ctx, func(sessionID string) error {
		var err error
		result, err = t.backend.RunCode(ctx, sessionID, code)
		return err
	})
	if err != nil {
		t.fail("Failed to run "+name, err)
		return nil, err
	}

	t.mu.Lock()
	t.calls = append([]backend.APICall(nil), result.APICalls...)
	t.mu.Unlock()

	if t.monitor != nil {
		t.monitor.AddActivity(monitor.ActivityEntry{
			Type:        monitor.CategoryCodeExecution,
			Title:       "Code Executed",
			Description: fmt.Sprintf("Ran %s: %d API calls captured", name, len(result.APICalls)),
			Metadata: monitor.Metadata{
				Duration: time.Since(start).Milliseconds(),
				Attrs: []monitor.Attr{
					{Key: "file", Value: name},
					{Key: "status", Value: result.Status},
				},
			},
		})
	}
	log.Printf("[Tracker] Ran %s: status=%s, %d calls", name, result.Status, len(result.APICalls))
	return result, nil
}

// Calls returns the calls from the last refresh or run
func (t *Tracker) Calls() []backend.APICall {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyCalls(t.calls)
}

// Details returns a cached call by id
func (t *Tracker) Details(id string) (backend.APICall, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.calls {
		if c.ID == id {
			return c, nil
		}
	}
	return backend.APICall{}, fmt.Errorf("%s: %w", id, ErrCallNotFound)
}

// DocStructure returns the documentation tree bucketed into the known categories
func (t *Tracker) DocStructure(ctx context.Context) (map[string][]docs.Endpoint, error) {
	structure, err := t.backend.DocStructure(ctx)
	if err != nil {
		t.fail("Failed to load API documentation", err)
		return nil, err
	}
	return docs.Organize(structure), nil
}

// OpenDoc returns one documentation record
func (t *Tracker) OpenDoc(ctx context.Context, docID string) (*docs.Doc, error) {
	doc, err := t.backend.Doc(ctx, docID)
	if err != nil {
		t.fail("Failed to open documentation "+docID, err)
		return nil, err
	}
	return doc, nil
}

// HostGroup is the calls made to one host, newest first
type HostGroup struct {
	Host  string            `json:"host"`
	Calls []backend.APICall `json:"calls"`
}

// Group groups calls by host for tree display. Hosts are sorted by name.
func Group(calls []backend.APICall) []HostGroup {
	byHost := make(map[string][]backend.APICall)
	for _, c := range calls {
		byHost[c.Host()] = append(byHost[c.Host()], c)
	}

	groups := make([]HostGroup, 0, len(byHost))
	for host, hostCalls := range byHost {
		sort.SliceStable(hostCalls, func(i, j int) bool {
			return hostCalls[i].Timestamp > hostCalls[j].Timestamp
		})
		groups = append(groups, HostGroup{Host: host, Calls: hostCalls})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Host < groups[j].Host })
	return groups
}

// IsPythonFile reports whether path names a Python source file
func IsPythonFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".py")
}

func (t *Tracker) info(message string, d monitor.Details) {
	if t.monitor != nil {
		t.monitor.LogInfo(message, d)
	}
}

func (t *Tracker) fail(message string, err error) {
	log.Printf("[Tracker] %s: %v", message, err)
	if t.monitor != nil {
		t.monitor.LogError(message, monitor.Details{Stack: err.Error()})
	}
}

func copyCalls(calls []backend.APICall) []backend.APICall {
	out := make([]backend.APICall, len(calls))
	copy(out, calls)
	return out
}
