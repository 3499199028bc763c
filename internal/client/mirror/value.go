// Package mirror keeps the client's optimistic view of cart quantities and
// favorite flags in step with the server.
package mirror

import (
	"context"
	"sync"
	"time"
)

type State int

const (
	StateSynced State = iota
	StatePending
	StateReverted
)

func (s State) String() string {
	switch s {
	case StateSynced:
		return "synced"
	case StatePending:
		return "pending"
	case StateReverted:
		return "reverted"
	}
	return "unknown"
}

// Ticket identifies one mutation. Only the newest ticket may settle a Value.
type Ticket uint64

// Value holds the last server-confirmed value and the value on display.
// Starting a mutation cancels the previous one, so a late response cannot
// overwrite a newer optimistic value.
type Value[T comparable] struct {
	mu        sync.Mutex
	server    T
	displayed T
	state     State
	seq       Ticket
	cancel    context.CancelFunc
	timeout   time.Duration
}

// NewValue starts Synced at initial. timeout bounds each mutation's context;
// zero means no bound.
func NewValue[T comparable](initial T, timeout time.Duration) *Value[T] {
	return &Value[T]{server: initial, displayed: initial, timeout: timeout}
}

// Seed replaces both values with a fresh server read and abandons any
// mutation in flight.
func (v *Value[T]) Seed(server T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
	v.seq++
	v.server = server
	v.displayed = server
	v.state = StateSynced
}

// Begin displays next immediately and returns the ticket and request context
// for the mutation.
func (v *Value[T]) Begin(ctx context.Context, next T) (Ticket, context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.beginLocked(ctx, next)
}

// TryBegin is Begin unless a mutation is already pending
func (v *Value[T]) TryBegin(ctx context.Context, next T) (Ticket, context.Context, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StatePending {
		return 0, nil, false
	}
	t, reqCtx := v.beginLocked(ctx, next)
	return t, reqCtx, true
}

func (v *Value[T]) beginLocked(ctx context.Context, next T) (Ticket, context.Context) {
	v.stopLocked()
	v.seq++

	var reqCtx context.Context
	if v.timeout > 0 {
		reqCtx, v.cancel = context.WithTimeout(ctx, v.timeout)
	} else {
		reqCtx, v.cancel = context.WithCancel(ctx)
	}
	v.displayed = next
	v.state = StatePending
	return v.seq, reqCtx
}

// Commit records the server's answer. It reports false for a superseded ticket.
func (v *Value[T]) Commit(t Ticket, server T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t != v.seq || v.state != StatePending {
		return false
	}
	v.stopLocked()
	v.server = server
	v.displayed = server
	v.state = StateSynced
	return true
}

// Rollback restores the last server-confirmed value. It reports false for a
// superseded ticket.
func (v *Value[T]) Rollback(t Ticket) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t != v.seq || v.state != StatePending {
		return false
	}
	v.stopLocked()
	v.displayed = v.server
	v.state = StateReverted
	return true
}

func (v *Value[T]) stopLocked() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *Value[T]) Displayed() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.displayed
}

func (v *Value[T]) Server() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.server
}

func (v *Value[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
