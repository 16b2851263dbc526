package cli

import (
	"fmt"
	"log"

	"github.com/pysugar/api-tracker/internal/backend"
	"github.com/pysugar/api-tracker/internal/config"
	"github.com/pysugar/api-tracker/internal/db"
	"github.com/pysugar/api-tracker/internal/monitor"
	"github.com/pysugar/api-tracker/internal/tracker"
	"gorm.io/gorm"
)

// sessionKey stores the tracking session so consecutive commands share it
const sessionKey = "tracker.session_id"

// app is the set of services one command runs against
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	kv      *db.KVStore
	monitor *monitor.Monitor
	client  *backend.Client
	tracker *tracker.Tracker
}

func newApp(cfg *config.Config) (*app, error) {
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	kv := db.NewKVStore(database)

	mon := monitor.New(monitor.WithHistory(database))
	if !cfg.LoggingEnabled {
		mon.SetLogging(false)
	}

	client := backend.NewClient(cfg.BackendURL,
		backend.WithToken(cfg.BackendToken),
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithVerbose(cfg.Verbose),
		backend.WithObserver(tracker.Observer(mon)),
	)
	tr := tracker.New(client, mon)

	if id, ok, err := kv.Get(sessionKey); err != nil {
		log.Printf("[CLI] Failed to read saved session: %v", err)
	} else if ok {
		tr.SetSessionID(id)
	}

	return &app{
		cfg:     cfg,
		db:      database,
		kv:      kv,
		monitor: mon,
		client:  client,
		tracker: tr,
	}, nil
}

// saveSession remembers the current session for the next command
func (a *app) saveSession() {
	id := a.tracker.SessionID()
	if id == "" {
		return
	}
	if err := a.kv.Set(sessionKey, id); err != nil {
		log.Printf("[CLI] Failed to save session: %v", err)
	}
}

func (a *app) close() {
	a.saveSession()
	a.monitor.Flush()
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
