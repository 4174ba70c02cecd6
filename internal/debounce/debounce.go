// Package debounce delays an action until a quiet period has elapsed since
// the last trigger, with an explicit Flush for navigation and teardown paths.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once no Trigger has happened for delay. Every Trigger
// cancels and rearms the timer. fn never runs concurrently with itself.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu       sync.Mutex
	idle     *sync.Cond // signalled when inFlight drops to zero
	timer    *time.Timer
	pending  bool
	inFlight int // timer-started runs not yet finished
	gen      uint64
	stopped  bool

	run sync.Mutex
}

// New returns a Debouncer for fn. A non-positive delay defaults to 2s.
func New(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	d := &Debouncer{delay: delay, fn: fn}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger marks a change and (re)arms the timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.inFlight++
	d.mu.Unlock()

	d.exec()

	d.mu.Lock()
	d.inFlight--
	if d.inFlight == 0 {
		d.idle.Broadcast()
	}
	d.mu.Unlock()
}

// Flush runs a pending action synchronously and reports whether an action
// ran or was awaited. When the timer has already started fn, Flush waits
// for it to finish, so on return every earlier Trigger has been acted on.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	ran := d.pending
	if ran {
		d.pending = false
		if d.timer != nil {
			d.timer.Stop()
		}
		d.mu.Unlock()
		d.exec()
		d.mu.Lock()
	}
	if d.inFlight > 0 {
		ran = true
	}
	for d.inFlight > 0 {
		d.idle.Wait()
	}
	d.mu.Unlock()
	return ran
}

// Stop cancels any pending action without running it. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) exec() {
	d.run.Lock()
	defer d.run.Unlock()
	d.fn()
}
