package generator

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

const (
	// StorageKey is the single key the state is stored under
	StorageKey = "endpoint_generator_state"
	// MaxAge is how long a saved state stays valid
	MaxAge = 24 * time.Hour
)

// KV is the durable storage medium
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// record is the stored form; lastUpdated is unix millis
type record struct {
	State
	LastUpdated int64 `json:"lastUpdated"`
}

// Persister saves and restores the generator state. Storage and encoding
// failures are logged and never returned to the caller.
type Persister struct {
	kv  KV
	now func() time.Time
}

// NewPersister creates a Persister on top of kv
func NewPersister(kv KV) *Persister {
	return &Persister{kv: kv, now: time.Now}
}

// WithClock replaces time.Now; used by tests to move through the TTL
func (p *Persister) WithClock(now func() time.Time) *Persister {
	p.now = now
	return p
}

// Save overwrites the stored state with the given fields and a fresh timestamp
func (p *Persister) Save(workflow *Workflow, selectedStepID string, params []InterpretedParam, language string) {
	rec := record{
		State: State{
			Workflow:          workflow,
			SelectedStepID:    selectedStepID,
			InterpretedParams: params,
			Language:          language,
		},
		LastUpdated: p.now().UnixMilli(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[Generator] Failed to encode state: %v", err)
		return
	}
	if err := p.kv.Set(StorageKey, string(data)); err != nil {
		log.Printf("[Generator] Failed to save state: %v", err)
	}
}

// Load returns the stored state. A state older than MaxAge is deleted and
// reported as absent, as is a state that cannot be decoded.
func (p *Persister) Load() (*State, bool) {
	raw, ok, err := p.kv.Get(StorageKey)
	if err != nil {
		log.Printf("[Generator] Failed to read state: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Printf("[Generator] Discarding malformed state: %v", err)
		return nil, false
	}

	updated := time.UnixMilli(rec.LastUpdated)
	if p.now().Sub(updated) > MaxAge {
		log.Printf("[Generator] Saved state expired (last updated %s)", updated.Format(time.RFC3339))
		p.Clear()
		return nil, false
	}

	state := rec.State
	state.LastUpdated = updated
	return &state, true
}

// Clear deletes the stored state
func (p *Persister) Clear() {
	if err := p.kv.Delete(StorageKey); err != nil {
		log.Printf("[Generator] Failed to clear state: %v", err)
	}
}

// MemoryKV is an in-process KV, used when no database is configured
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV creates an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
