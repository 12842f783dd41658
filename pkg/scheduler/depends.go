package scheduler

import (
	"context"
	"fmt"
	"sync"
)

// Depends is a set of one-shot latches, one per step name in a group,
// created at group start and discarded at group end (spec.md §3, §4.6).
// It ports original_source/src/step_depends.rs's tokio::sync::watch-channel
// latch to the idiomatic Go equivalent: an unbuffered channel closed
// exactly once by MarkDone, observed by closing-channel select in WaitFor.
type Depends struct {
	mu      sync.Mutex
	latches map[string]chan struct{}
	done    map[string]bool
}

// NewDepends creates one latch per name in names.
func NewDepends(names []string) *Depends {
	d := &Depends{
		latches: make(map[string]chan struct{}, len(names)),
		done:    make(map[string]bool, len(names)),
	}
	for _, n := range names {
		d.latches[n] = make(chan struct{})
	}
	return d
}

// IsDone reports whether step is already marked done.
func (d *Depends) IsDone(step string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done[step]
}

// WaitFor blocks until step is marked done, the context is cancelled, or
// step is not a known member of this group (a configuration error
// surfaced per spec.md §4.6, not silently ignored).
func (d *Depends) WaitFor(ctx context.Context, step string) error {
	d.mu.Lock()
	ch, ok := d.latches[step]
	d.mu.Unlock()
	if !ok {
		return &ConfigError{Step: step, Msg: "unknown dependency name"}
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for dependency %q: %w", step, ctx.Err())
	}
}

// MarkDone closes step's latch, releasing every waiter. Idempotent.
func (d *Depends) MarkDone(step string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done[step] {
		return
	}
	d.done[step] = true
	if ch, ok := d.latches[step]; ok {
		close(ch)
	}
}
