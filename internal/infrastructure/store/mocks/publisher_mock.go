package mocks

import (
	"context"
	"sync"

	"github.com/example/plant-shop/internal/events"
)

// MockPublisher records published events
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (p *MockPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return p.Err
}

// Types returns the event types in publish order
func (p *MockPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		types = append(types, e.EventType)
	}
	return types
}
