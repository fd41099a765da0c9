// Package debounce coalesces bursts of change notifications per key into a single call
// fired after a quiet period.
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type entry struct {
	timer *clock.Timer
	// seq identifies the timer that owns the entry; a fired timer whose seq no longer
	// matches was replaced and must not emit.
	seq uint64
}

// Debouncer keeps at most one pending timer per key. Triggering a pending key restarts its
// timer; keys never coalesce with each other.
type Debouncer struct {
	clock    clock.Clock
	duration time.Duration
	fire     func(key string)

	mu      sync.Mutex
	entries map[string]entry
	seq     uint64
	stopped bool
}

func New(clk clock.Clock, duration time.Duration, fire func(key string)) *Debouncer {
	if clk == nil {
		clk = clock.New()
	}
	return &Debouncer{
		clock:    clk,
		duration: duration,
		fire:     fire,
		entries:  make(map[string]entry),
	}
}

// Trigger moves key to pending, or restarts its quiet period if it already is.
// It reports whether a pending timer was replaced.
func (d *Debouncer) Trigger(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}

	prev, replaced := d.entries[key]
	if replaced {
		prev.timer.Stop()
	}

	d.seq++
	seq := d.seq
	d.entries[key] = entry{
		seq:   seq,
		timer: d.clock.AfterFunc(d.duration, func() { d.expire(key, seq) }),
	}
	return replaced
}

func (d *Debouncer) expire(key string, seq uint64) {
	d.mu.Lock()
	e, ok := d.entries[key]
	if !ok || e.seq != seq || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.entries, key)
	d.mu.Unlock()

	d.fire(key)
}

// Pending returns the number of keys waiting for their quiet period to elapse.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Stop cancels every pending timer and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.entries {
		e.timer.Stop()
	}
	d.entries = make(map[string]entry)
	d.stopped = true
}
