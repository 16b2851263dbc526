package monitor

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/pysugar/api-tracker/internal/db/models"
)

func (m *Monitor) migrateHistory() {
	if err := m.history.AutoMigrate(&models.LogRecord{}, &models.ActivityRecord{}); err != nil {
		log.Printf("[Monitor] Failed to migrate history tables: %v", err)
		m.history = nil
	}
}

// persist writes the entries to the history tables (async, non-blocking)
func (m *Monitor) persist(entry *LogEntry, activity *ActivityEntry) {
	var logRec *models.LogRecord
	var actRec *models.ActivityRecord

	if entry != nil {
		logRec = &models.LogRecord{
			ID:         entry.ID,
			Timestamp:  entry.Timestamp.UnixMilli(),
			Level:      string(entry.Level),
			Message:    entry.Message,
			Method:     entry.Method,
			Endpoint:   entry.Endpoint,
			StatusCode: entry.StatusCode,
			Duration:   entry.Duration,
			Details:    entry.Details,
		}
	}
	if activity != nil {
		metadata, err := json.Marshal(activity.Metadata)
		if err != nil {
			log.Printf("[Monitor] Failed to encode activity metadata: %v", err)
			metadata = []byte("{}")
		}
		actRec = &models.ActivityRecord{
			ID:          activity.ID,
			Timestamp:   activity.Timestamp.UnixMilli(),
			Type:        string(activity.Type),
			Title:       activity.Title,
			Description: activity.Description,
			Metadata:    string(metadata),
		}
	}

	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		if logRec != nil {
			if err := m.history.Create(logRec).Error; err != nil {
				log.Printf("[Monitor] Failed to save log: %v", err)
			}
		}
		if actRec != nil {
			if err := m.history.Create(actRec).Error; err != nil {
				log.Printf("[Monitor] Failed to save activity: %v", err)
			}
		}
	}()
}

// Flush waits for queued history writes to finish
func (m *Monitor) Flush() {
	m.writes.Wait()
}

// History returns persisted log entries with pagination, newest first.
// Without a history database it pages through the in-memory buffer.
func (m *Monitor) History(page, pageSize int, search string) ([]LogEntry, int64) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	if m.history == nil {
		return m.memoryHistory(offset, pageSize, search)
	}

	var records []models.LogRecord
	var total int64

	query := m.history.Model(&models.LogRecord{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("message LIKE ? OR endpoint LIKE ? OR details LIKE ?", pattern, pattern, pattern)
	}
	query.Count(&total)

	if err := query.Order("timestamp DESC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		log.Printf("[Monitor] Failed to get history: %v", err)
		return nil, 0
	}

	out := make([]LogEntry, 0, len(records))
	for _, r := range records {
		out = append(out, LogEntry{
			ID:         r.ID,
			Timestamp:  time.UnixMilli(r.Timestamp),
			Level:      Level(r.Level),
			Message:    r.Message,
			Method:     r.Method,
			Endpoint:   r.Endpoint,
			StatusCode: r.StatusCode,
			Duration:   r.Duration,
			Details:    r.Details,
		})
	}
	return out, total
}

// ClearHistory deletes all persisted log and activity records
func (m *Monitor) ClearHistory() error {
	if m.history == nil {
		return nil
	}
	if err := m.history.Exec("DELETE FROM log_records").Error; err != nil {
		log.Printf("[Monitor] Failed to clear log history: %v", err)
		return err
	}
	if err := m.history.Exec("DELETE FROM activity_records").Error; err != nil {
		log.Printf("[Monitor] Failed to clear activity history: %v", err)
		return err
	}
	log.Printf("[Monitor] History cleared")
	return nil
}

func (m *Monitor) memoryHistory(offset, pageSize int, search string) ([]LogEntry, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []LogEntry
	for _, e := range m.logs {
		if search == "" || containsFold(e.Message, search) || containsFold(e.Endpoint, search) || containsFold(e.Details, search) {
			matched = append(matched, e)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []LogEntry{}, total
	}
	end := offset + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]LogEntry, end-offset)
	copy(out, matched[offset:end])
	return out, total
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
