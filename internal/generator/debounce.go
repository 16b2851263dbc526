package generator

import (
	"sync"
	"time"
)

// SaveDelay is the quiet period before a scheduled save is written
const SaveDelay = time.Second

type pendingSave struct {
	workflow       *Workflow
	selectedStepID string
	params         []InterpretedParam
	language       string
}

// DebouncedSaver coalesces bursts of state changes into one Save.
// Scheduling a save replaces any save that has not fired yet.
type DebouncedSaver struct {
	p     *Persister
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *pendingSave
	gen     uint64
}

// NewDebouncedSaver creates a saver that writes through p after delay
func NewDebouncedSaver(p *Persister, delay time.Duration) *DebouncedSaver {
	if delay <= 0 {
		delay = SaveDelay
	}
	return &DebouncedSaver{p: p, delay: delay}
}

// Schedule queues a save, cancelling the previously queued one
func (d *DebouncedSaver) Schedule(workflow *Workflow, selectedStepID string, params []InterpretedParam, language string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = &pendingSave{
		workflow:       workflow,
		selectedStepID: selectedStepID,
		params:         params,
		language:       language,
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a save is queued
func (d *DebouncedSaver) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush writes the queued save now, if there is one
func (d *DebouncedSaver) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	ps := d.pending
	d.pending = nil
	d.gen++
	d.mu.Unlock()

	if ps != nil {
		d.p.Save(ps.workflow, ps.selectedStepID, ps.params, ps.language)
	}
}

// Stop drops the queued save without writing it
func (d *DebouncedSaver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.gen++
}

func (d *DebouncedSaver) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	ps := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	d.p.Save(ps.workflow, ps.selectedStepID, ps.params, ps.language)
}
