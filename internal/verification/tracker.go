package verification

import (
	"context"
	"sync"
)

// Handle is a cancellable reference to one inline poll loop.
type Handle struct {
	Key        string
	RequestID  string
	Generation uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// Context is cancelled once the handle is superseded or invalidated.
func (h *Handle) Context() context.Context { return h.ctx }

// Tracker keeps at most one live Handle per key. Beginning a new handle or
// invalidating the key cancels the previous one.
type Tracker struct {
	mu         sync.Mutex
	active     map[string]*Handle
	generation uint64
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]*Handle)}
}

// Begin registers requestID as the current loop for key, cancelling any
// previous loop. The handle's context derives from parent.
func (t *Tracker) Begin(parent context.Context, key, requestID string) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.active[key]; ok {
		prev.cancel()
	}
	t.generation++
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{Key: key, RequestID: requestID, Generation: t.generation, ctx: ctx, cancel: cancel}
	t.active[key] = h
	return h
}

// Invalidate cancels and forgets the loop for key, if any.
func (t *Tracker) Invalidate(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h, ok := t.active[key]; ok {
		h.cancel()
		delete(t.active, key)
	}
}

// IsCurrent reports whether h is still the live loop for its key.
func (t *Tracker) IsCurrent(h *Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.active[h.Key]
	return ok && cur.Generation == h.Generation && h.ctx.Err() == nil
}

// Finish releases h if it is still current.
func (t *Tracker) Finish(h *Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.active[h.Key]; ok && cur.Generation == h.Generation {
		delete(t.active, h.Key)
	}
	h.cancel()
}

// Active returns the number of live loops.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
