package monitor

import (
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MaxLogEntries limits the in-memory log buffer
	MaxLogEntries = 1000
	// MaxActivities limits the in-memory activity feed
	MaxActivities = 500
	// MaxDetailsSize limits stored stack/details text to 64KB
	MaxDetailsSize = 64 * 1024
)

var levelTitles = map[Level]string{
	LevelError:   "Error",
	LevelWarning: "Warning",
	LevelInfo:    "Info",
	LevelSuccess: "Success",
}

// Monitor is the session-lifetime record of everything logged by the
// application: a bounded log buffer, a bounded activity feed and the
// metrics derived from status-bearing entries.
type Monitor struct {
	enabled atomic.Bool

	mu         sync.RWMutex
	logs       []LogEntry
	activities []ActivityEntry
	metrics    Metrics

	maxLogs       int
	maxActivities int
	now           func() time.Time
	history       *gorm.DB
	writes        sync.WaitGroup
}

// Option configures a Monitor
type Option func(*Monitor)

// WithCapacity overrides the buffer capacities
func WithCapacity(logs, activities int) Option {
	return func(m *Monitor) {
		if logs > 0 {
			m.maxLogs = logs
		}
		if activities > 0 {
			m.maxActivities = activities
		}
	}
}

// WithClock replaces time.Now as the timestamp source
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithHistory also writes every recorded entry to the given database
func WithHistory(db *gorm.DB) Option {
	return func(m *Monitor) { m.history = db }
}

// New creates a Monitor with logging enabled
func New(opts ...Option) *Monitor {
	m := &Monitor{
		maxLogs:       MaxLogEntries,
		maxActivities: MaxActivities,
		now:           time.Now,
		metrics:       defaultMetrics(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logs = make([]LogEntry, 0, m.maxLogs)
	m.activities = make([]ActivityEntry, 0, m.maxActivities)
	m.enabled.Store(true)

	if m.history != nil {
		m.migrateHistory()
	}
	return m
}

// SetLogging enables or disables recording of log and activity entries
func (m *Monitor) SetLogging(enabled bool) {
	m.enabled.Store(enabled)
	log.Printf("[Monitor] Logging %s", map[bool]string{true: "enabled", false: "disabled"}[enabled])
}

// IsEnabled returns whether logging is enabled
func (m *Monitor) IsEnabled() bool {
	return m.enabled.Load()
}

// LogError records an error entry and its activity
func (m *Monitor) LogError(message string, d Details) { m.logLevel(LevelError, message, d) }

// LogWarning records a warning entry and its activity
func (m *Monitor) LogWarning(message string, d Details) { m.logLevel(LevelWarning, message, d) }

// LogInfo records an info entry and its activity
func (m *Monitor) LogInfo(message string, d Details) { m.logLevel(LevelInfo, message, d) }

// LogSuccess records a success entry and its activity
func (m *Monitor) LogSuccess(message string, d Details) { m.logLevel(LevelSuccess, message, d) }

// Log records an entry at an arbitrary level. Unknown levels are logged as info.
func (m *Monitor) Log(level Level, message string, d Details) {
	if !level.Valid() {
		level = LevelInfo
	}
	m.logLevel(level, message, d)
}

func (m *Monitor) logLevel(level Level, message string, d Details) {
	if !m.IsEnabled() {
		return
	}
	entry := m.newEntry(level, message, d)
	activity := ActivityEntry{
		Type:        Category(level),
		Title:       levelTitles[level],
		Description: message,
		Metadata:    d.metadata(),
	}
	m.record(&entry, &activity)
}

// LogAPIRequest records one API call. The level follows the status code:
// >= 400 is an error, >= 300 a warning, anything else info.
func (m *Monitor) LogAPIRequest(endpoint, method string, statusCode int, duration int64, d Details) {
	if !m.IsEnabled() {
		return
	}

	level := LevelInfo
	switch {
	case statusCode >= 400:
		level = LevelError
	case statusCode >= 300:
		level = LevelWarning
	}

	d.Endpoint = endpoint
	d.Method = method
	d.StatusCode = statusCode
	d.Duration = duration

	message := fmt.Sprintf("%s %s - %d", method, endpoint, statusCode)
	entry := m.newEntry(level, message, d)

	title := "API Request Successful"
	if statusCode >= 400 {
		title = "API Request Failed"
	}
	activity := ActivityEntry{
		Type:        CategoryAPIRequest,
		Title:       title,
		Description: message,
		Metadata:    d.metadata(),
	}
	m.record(&entry, &activity)
}

// AddActivity appends an activity without creating a log entry
func (m *Monitor) AddActivity(a ActivityEntry) {
	if !m.IsEnabled() {
		return
	}
	m.record(nil, &a)
}

// UpdateMetrics merges p into the current metrics
func (m *Monitor) UpdateMetrics(p MetricsPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.TotalRequests != nil {
		m.metrics.TotalRequests = *p.TotalRequests
	}
	if p.SuccessfulRequests != nil {
		m.metrics.SuccessfulRequests = *p.SuccessfulRequests
	}
	if p.ErrorRequests != nil {
		m.metrics.ErrorRequests = *p.ErrorRequests
	}
	if p.AverageResponseTime != nil {
		m.metrics.AverageResponseTime = *p.AverageResponseTime
	}
	if p.SecurityScans != nil {
		m.metrics.SecurityScans = *p.SecurityScans
	}
	if p.Uptime != nil {
		m.metrics.Uptime = *p.Uptime
	}
	if p.Trends != nil {
		m.metrics.Trends = *p.Trends
	}
}

// ResetMetrics restores the metrics to their initial values
func (m *Monitor) ResetMetrics() {
	m.mu.Lock()
	m.metrics = defaultMetrics()
	m.mu.Unlock()
	log.Printf("[Monitor] Metrics reset")
}

// ClearLogs empties the log buffer. Activities and metrics are untouched.
func (m *Monitor) ClearLogs() {
	m.mu.Lock()
	m.logs = m.logs[:0]
	m.mu.Unlock()
}

// ClearActivities empties the activity feed. Logs and metrics are untouched.
func (m *Monitor) ClearActivities() {
	m.mu.Lock()
	m.activities = m.activities[:0]
	m.mu.Unlock()
}

// Logs returns up to limit entries, most recent first. limit <= 0 returns all.
func (m *Monitor) Logs(limit int) []LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.logs) {
		limit = len(m.logs)
	}
	out := make([]LogEntry, limit)
	copy(out, m.logs[:limit])
	return out
}

// Activities returns up to limit activities, most recent first. limit <= 0 returns all.
func (m *Monitor) Activities(limit int) []ActivityEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.activities) {
		limit = len(m.activities)
	}
	out := make([]ActivityEntry, limit)
	copy(out, m.activities[:limit])
	return out
}

// Metrics returns a snapshot of the aggregate metrics
func (m *Monitor) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}

func (m *Monitor) newEntry(level Level, message string, d Details) LogEntry {
	details := d.Stack
	if len(details) > MaxDetailsSize {
		details = details[:MaxDetailsSize] + "...[truncated]"
	}
	return LogEntry{
		Level:      level,
		Message:    message,
		Method:     d.Method,
		Endpoint:   d.Endpoint,
		StatusCode: d.StatusCode,
		Duration:   d.Duration,
		Details:    details,
	}
}

// record inserts the entry and the activity (either may be nil) in one step
// so the two buffers move in lockstep.
func (m *Monitor) record(entry *LogEntry, activity *ActivityEntry) {
	now := m.now()

	m.mu.Lock()
	if entry != nil {
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = now
		}
		m.logs = prepend(m.logs, *entry, m.maxLogs)
		if entry.StatusCode != 0 {
			m.applyMetrics(entry.StatusCode, entry.Duration)
		}
	}
	if activity != nil {
		if activity.ID == "" {
			activity.ID = uuid.New().String()
		}
		if activity.Timestamp.IsZero() {
			activity.Timestamp = now
		}
		m.activities = prepend(m.activities, *activity, m.maxActivities)
		if activity.Type == CategorySecurityScan {
			m.metrics.SecurityScans++
		}
	}
	m.mu.Unlock()

	if m.history != nil {
		m.persist(entry, activity)
	}
}

// applyMetrics must be called with mu held
func (m *Monitor) applyMetrics(statusCode int, duration int64) {
	m.metrics.TotalRequests++
	switch {
	case statusCode >= 200 && statusCode < 300:
		m.metrics.SuccessfulRequests++
	case statusCode >= 400:
		m.metrics.ErrorRequests++
	}

	if duration != 0 {
		total := m.metrics.TotalRequests
		sum := float64(m.metrics.AverageResponseTime)*float64(total-1) + float64(duration)
		m.metrics.AverageResponseTime = int64(math.Round(sum / float64(total)))
	}
}

// prepend inserts v at index 0 and truncates the slice to limit
func prepend[T any](list []T, v T, limit int) []T {
	if len(list) < limit {
		list = append(list, v)
	}
	copy(list[1:], list[:len(list)-1])
	list[0] = v
	return list
}
