package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Handler has the same shape as a Kafka message handler so in-process and
// broker delivery share one code path.
type Handler func(ctx context.Context, key, value []byte) error

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Dispatcher delivers events synchronously to registered handlers.
// It is used when no broker is configured.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewDispatcher(handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

// Register adds a handler
func (d *Dispatcher) Register(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Publish encodes the event once and hands it to every handler
func (d *Dispatcher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers...)
	d.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, []byte(event.AggregateID), value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
