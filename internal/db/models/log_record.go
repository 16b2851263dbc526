package models

// LogRecord is the persisted copy of a monitor log entry
type LogRecord struct {
	ID         string `gorm:"primaryKey" json:"id"`
	Timestamp  int64  `gorm:"index" json:"timestamp"` // unix millis
	Level      string `gorm:"index" json:"level"`
	Message    string `json:"message"`
	Method     string `json:"method,omitempty"`
	Endpoint   string `gorm:"index" json:"endpoint,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Duration   int64  `json:"duration,omitempty"` // milliseconds
	Details    string `gorm:"type:text" json:"details,omitempty"`
}

// ActivityRecord is the persisted copy of an activity feed entry
type ActivityRecord struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Timestamp   int64  `gorm:"index" json:"timestamp"`
	Type        string `gorm:"index" json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Metadata    string `gorm:"type:text" json:"metadata"` // JSON encoded
}
