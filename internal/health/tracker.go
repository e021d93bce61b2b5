// Package health tracks agent readiness and exposes it over HTTP and gRPC.
package health

import (
	"sync"
	"time"
)

// Tracker holds the process readiness flag.
type Tracker struct {
	mu        sync.RWMutex
	ready     bool
	since     time.Time
	listeners []func(ready bool)
}

// NewTracker returns a tracker in the not-ready state.
func NewTracker() *Tracker {
	return &Tracker{since: time.Now()}
}

// Ready reports the current state.
func (t *Tracker) Ready() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// Since returns when the state last changed.
func (t *Tracker) Since() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.since
}

// MarkReady flips the tracker to ready.
func (t *Tracker) MarkReady() { t.set(true) }

// MarkNotReady flips the tracker to not ready.
func (t *Tracker) MarkNotReady() { t.set(false) }

// OnChange registers fn to run after every state change. fn is also called
// once immediately with the current state.
func (t *Tracker) OnChange(fn func(ready bool)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	ready := t.ready
	t.mu.Unlock()
	fn(ready)
}

func (t *Tracker) set(ready bool) {
	t.mu.Lock()
	if t.ready == ready {
		t.mu.Unlock()
		return
	}
	t.ready = ready
	t.since = time.Now()
	listeners := append([]func(bool){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(ready)
	}
}
