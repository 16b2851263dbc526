package monitor

import "time"

// Level is the severity of a LogEntry.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
)

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelError, LevelWarning, LevelInfo, LevelSuccess:
		return true
	}
	return false
}

// Category tags an ActivityEntry in the activity feed.
type Category string

const (
	CategoryAPIRequest    Category = "api_request"
	CategorySecurityScan  Category = "security_scan"
	CategoryCodeExecution Category = "code_execution"
	CategoryError         Category = "error"
	CategorySuccess       Category = "success"
	CategoryWarning       Category = "warning"
	CategoryInfo          Category = "info"
)

// Valid reports whether c is one of the seven known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAPIRequest, CategorySecurityScan, CategoryCodeExecution,
		CategoryError, CategorySuccess, CategoryWarning, CategoryInfo:
		return true
	}
	return false
}

// LogEntry is one immutable record in the log buffer.
// Zero StatusCode and Duration mean the value was not supplied.
type LogEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Level      Level     `json:"level"`
	Message    string    `json:"message"`
	Method     string    `json:"method,omitempty"`
	Endpoint   string    `json:"endpoint,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	Duration   int64     `json:"duration,omitempty"` // milliseconds
	Details    string    `json:"details,omitempty"`
}

// Attr is a single typed key/value pair attached to an activity.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is the closed schema of what an activity may carry.
// Anything outside the known fields goes into Attrs.
type Metadata struct {
	Endpoint   string `json:"endpoint,omitempty"`
	Method     string `json:"method,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Duration   int64  `json:"duration,omitempty"`
	Attrs      []Attr `json:"attrs,omitempty"`
}

// Attr returns the value stored under key and whether it was present.
func (m Metadata) Attr(key string) (string, bool) {
	for _, a := range m.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// ActivityEntry is one record in the activity feed.
type ActivityEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        Category  `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Metadata    Metadata  `json:"metadata"`
}

// Details are the optional fields of a log call. They fill the optional
// LogEntry fields and become the metadata of the correlated activity.
type Details struct {
	Method     string `json:"method,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Duration   int64  `json:"duration,omitempty"`
	Stack      string `json:"stack,omitempty"`
	Attrs      []Attr `json:"attrs,omitempty"`
}

func (d Details) metadata() Metadata {
	md := Metadata{
		Endpoint:   d.Endpoint,
		Method:     d.Method,
		StatusCode: d.StatusCode,
		Duration:   d.Duration,
	}
	if len(d.Attrs) > 0 {
		md.Attrs = append(md.Attrs, d.Attrs...)
	}
	if d.Stack != "" {
		md.Attrs = append(md.Attrs, Attr{Key: "details", Value: d.Stack})
	}
	return md
}

// Trends holds human-readable trend strings such as "+12%" or "-35ms".
type Trends struct {
	Requests     string `json:"requests"`
	Success      string `json:"success"`
	Errors       string `json:"errors"`
	ResponseTime string `json:"responseTime"`
}

// Metrics is the aggregate derived from status-bearing log entries.
type Metrics struct {
	// TotalRequests counts every status-bearing entry recorded since the last
	// reset. It is not bounded by the log buffer, so it can exceed len(Logs).
	TotalRequests       int64   `json:"totalRequests"`
	SuccessfulRequests  int64   `json:"successfulRequests"`
	ErrorRequests       int64   `json:"errorRequests"`
	AverageResponseTime int64   `json:"averageResponseTime"` // milliseconds
	SecurityScans       int64   `json:"securityScans"`
	Uptime              float64 `json:"uptime"` // percent
	Trends              Trends  `json:"trends"`
}

// MetricsPatch is a partial Metrics. Nil fields are left untouched;
// a non-nil Trends replaces the whole trends record.
type MetricsPatch struct {
	TotalRequests       *int64   `json:"totalRequests,omitempty"`
	SuccessfulRequests  *int64   `json:"successfulRequests,omitempty"`
	ErrorRequests       *int64   `json:"errorRequests,omitempty"`
	AverageResponseTime *int64   `json:"averageResponseTime,omitempty"`
	SecurityScans       *int64   `json:"securityScans,omitempty"`
	Uptime              *float64 `json:"uptime,omitempty"`
	Trends              *Trends  `json:"trends,omitempty"`
}

func defaultMetrics() Metrics {
	return Metrics{
		Uptime: 100,
		Trends: Trends{
			Requests:     "+0%",
			Success:      "+0%",
			Errors:       "+0%",
			ResponseTime: "+0ms",
		},
	}
}
