package notifier

import "sync"

// Scheduler queues work for later execution on the UI-owning thread.
// It must not block waiting for the work to run.
type Scheduler func(work func())

// Dispatcher runs native backend calls on the UI loop when one is registered
// and inline on the calling goroutine otherwise.
type Dispatcher struct {
	mu       sync.RWMutex
	schedule Scheduler
}

// NewDispatcher creates a Dispatcher. A nil scheduler runs work inline.
func NewDispatcher(schedule Scheduler) *Dispatcher {
	return &Dispatcher{schedule: schedule}
}

// SetScheduler registers the UI loop scheduler. Passing nil unregisters it.
func (d *Dispatcher) SetScheduler(schedule Scheduler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schedule = schedule
}

// HasScheduler reports whether a UI loop is registered.
func (d *Dispatcher) HasScheduler() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.schedule != nil
}

// Run executes work. With a scheduler registered it returns as soon as the
// work is queued and does not wait for completion.
func (d *Dispatcher) Run(work func()) {
	d.mu.RLock()
	schedule := d.schedule
	d.mu.RUnlock()

	if schedule == nil {
		work()
		return
	}
	schedule(work)
}
