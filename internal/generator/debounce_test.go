package generator

import (
	"sync"
	"testing"
	"time"
)

// countingKV records how many writes reached storage
type countingKV struct {
	*MemoryKV
	mu     sync.Mutex
	writes int
}

func (c *countingKV) Set(key, value string) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.MemoryKV.Set(key, value)
}

func (c *countingKV) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func TestDebouncedSaver_CoalescesBursts(t *testing.T) {
	kv := &countingKV{MemoryKV: NewMemoryKV()}
	p := NewPersister(kv)
	d := NewDebouncedSaver(p, 30*time.Millisecond)

	for _, step := range []string{"step-1", "step-2", "step-1", "step-2"} {
		d.Schedule(sampleWorkflow(), step, nil, "python")
	}

	deadline := time.Now().Add(time.Second)
	for kv.Writes() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)

	if got := kv.Writes(); got != 1 {
		t.Fatalf("expected exactly one write, got %d", got)
	}
	state, ok := p.Load()
	if !ok || state.SelectedStepID != "step-2" {
		t.Fatalf("expected last scheduled state to win, got %+v", state)
	}
}

func TestDebouncedSaver_Flush(t *testing.T) {
	kv := &countingKV{MemoryKV: NewMemoryKV()}
	p := NewPersister(kv)
	d := NewDebouncedSaver(p, time.Hour)

	d.Schedule(sampleWorkflow(), "step-1", nil, "go")
	if !d.Pending() {
		t.Fatalf("expected pending save")
	}
	d.Flush()

	if kv.Writes() != 1 {
		t.Fatalf("Flush did not write")
	}
	if d.Pending() {
		t.Fatalf("save still pending after Flush")
	}
	d.Flush()
	if kv.Writes() != 1 {
		t.Fatalf("empty Flush wrote again")
	}
}

func TestDebouncedSaver_Stop(t *testing.T) {
	kv := &countingKV{MemoryKV: NewMemoryKV()}
	d := NewDebouncedSaver(NewPersister(kv), 20*time.Millisecond)

	d.Schedule(sampleWorkflow(), "step-1", nil, "python")
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	if kv.Writes() != 0 {
		t.Fatalf("stopped saver wrote %d times", kv.Writes())
	}
}
