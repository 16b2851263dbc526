package db

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pysugar/api-tracker/internal/db/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:kv-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestKVStore_SetGetDelete(t *testing.T) {
	kv := NewKVStore(newTestDB(t))

	if _, ok, err := kv.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want not found", ok, err)
	}

	if err := kv.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set("k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	val, ok, err := kv.Get("k")
	if err != nil || !ok || val != "v2" {
		t.Fatalf("Get(k) = %q ok=%v err=%v, want v2", val, ok, err)
	}

	if err := kv.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get("k"); ok {
		t.Fatalf("key still present after Delete")
	}
	if err := kv.Delete("k"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
}

func TestInitDB_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")
	db, err := InitDB(path)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if !db.Migrator().HasTable(&models.Setting{}) {
		t.Fatalf("settings table not migrated")
	}
}
