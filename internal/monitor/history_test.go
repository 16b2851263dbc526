package monitor

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pysugar/api-tracker/internal/db/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:monitor-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite memory db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return db
}

func waitForHistory(m *Monitor, expected int64) ([]LogEntry, int64) {
	for i := 0; i < 40; i++ {
		logs, total := m.History(1, 100, "")
		if total >= expected {
			return logs, total
		}
		time.Sleep(20 * time.Millisecond)
	}
	return m.History(1, 100, "")
}

func TestHistory_PersistsEntries(t *testing.T) {
	db := newTestDB(t)
	m := New(WithHistory(db))

	m.LogAPIRequest("/repos/octocat/hello", "GET", 200, 12, Details{})
	m.LogError("rate limited", Details{StatusCode: 429})

	logs, total := waitForHistory(m, 2)
	if total != 2 {
		t.Fatalf("expected 2 persisted logs, got %d", total)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs on first page, got %d", len(logs))
	}

	var activities int64
	for i := 0; i < 40; i++ {
		db.Model(&models.ActivityRecord{}).Count(&activities)
		if activities >= 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if activities != 2 {
		t.Errorf("expected 2 persisted activities, got %d", activities)
	}
}

func TestHistory_Search(t *testing.T) {
	db := newTestDB(t)
	m := New(WithHistory(db))

	m.LogAPIRequest("/repos", "GET", 200, 1, Details{})
	m.LogAPIRequest("/users", "GET", 200, 1, Details{})
	_, _ = waitForHistory(m, 2)

	logs, total := m.History(1, 10, "users")
	if total != 1 || len(logs) != 1 {
		t.Fatalf("expected one match for 'users', got total=%d len=%d", total, len(logs))
	}
	if logs[0].Endpoint != "/users" {
		t.Errorf("unexpected match: %+v", logs[0])
	}
}

func TestHistory_ClearHistory(t *testing.T) {
	db := newTestDB(t)
	m := New(WithHistory(db))

	m.LogInfo("one", Details{})
	_, _ = waitForHistory(m, 1)

	if err := m.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if _, total := m.History(1, 10, ""); total != 0 {
		t.Errorf("expected empty history, got %d", total)
	}
}

func TestHistory_MemoryFallback(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m.LogInfo(fmt.Sprintf("entry %d", i), Details{})
	}

	logs, total := m.History(2, 2, "")
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(logs) != 2 || logs[0].Message != "entry 2" {
		t.Errorf("page 2 = %+v", logs)
	}

	logs, total = m.History(1, 10, "ENTRY 4")
	if total != 1 || logs[0].Message != "entry 4" {
		t.Errorf("search result = %+v (total %d)", logs, total)
	}

	logs, _ = m.History(9, 10, "")
	if len(logs) != 0 {
		t.Errorf("out-of-range page returned %d entries", len(logs))
	}
}

func TestFlush_WaitsForQueuedWrites(t *testing.T) {
	db := newTestDB(t)
	m := New(WithHistory(db))

	for i := 0; i < 5; i++ {
		m.LogAPIRequest("/user", "GET", 200, 10, Details{})
	}
	m.Flush()

	var logs, activities int64
	db.Model(&models.LogRecord{}).Count(&logs)
	db.Model(&models.ActivityRecord{}).Count(&activities)
	if logs != 5 || activities != 5 {
		t.Fatalf("after Flush: logs=%d activities=%d, want 5/5", logs, activities)
	}
}
