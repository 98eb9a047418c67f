// Package debounce coalesces bursts of calls into a leading and a trailing
// invocation.
//
// A call on an idle [Debouncer] runs the function immediately. Calls that
// arrive while the wait window is open restart the window and remember
// their argument; when the window finally closes with a remembered
// argument, the function runs once more with the last one. Intermediate
// arguments are dropped.
//
//	d := debounce.New(100*time.Millisecond, func(size geom.Dimensions) {
//	    graph.SetBounds(...)
//	})
//	defer d.Cancel()
package debounce

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Debouncer wraps a function of one argument. It is safe for concurrent use.
type Debouncer[T any] struct {
	wait  time.Duration
	fn    func(T)
	clock clock.WithDelayedExecution

	mu       sync.Mutex
	timer    clock.Timer
	gen      uint64
	pending  bool
	last     T
	canceled bool
}

// Option configures a Debouncer.
type Option[T any] func(*Debouncer[T])

// WithClock replaces the real clock, typically with a fake one in tests.
func WithClock[T any](c clock.WithDelayedExecution) Option[T] {
	return func(d *Debouncer[T]) { d.clock = c }
}

// New returns a debouncer calling fn at most once per quiet period of wait.
func New[T any](wait time.Duration, fn func(T), opts ...Option[T]) *Debouncer[T] {
	d := &Debouncer[T]{wait: wait, fn: fn, clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call schedules fn with v. Calls after Cancel are ignored.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	if d.canceled {
		d.mu.Unlock()
		return
	}
	if d.timer == nil {
		d.schedule()
		d.mu.Unlock()
		d.fn(v)
		return
	}
	d.timer.Stop()
	d.schedule()
	d.last, d.pending = v, true
	d.mu.Unlock()
}

// schedule must be called with mu held.
func (d *Debouncer[T]) schedule() {
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() { d.expire(gen) })
}

func (d *Debouncer[T]) expire(gen uint64) {
	d.mu.Lock()
	// a stopped timer may still fire
	if d.canceled || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.gen++
	d.timer = nil
	if !d.pending {
		d.mu.Unlock()
		return
	}
	v := d.last
	d.pending = false
	var zero T
	d.last = zero
	d.mu.Unlock()
	d.fn(v)
}

// Flush runs a pending trailing call now.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.mu.Unlock()
	d.expire(gen)
}

// Pending reports whether a trailing call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Cancel stops the timer and drops any pending call. The debouncer ignores
// all later calls.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
	d.canceled = true
}
