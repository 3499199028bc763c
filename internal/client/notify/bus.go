// Package notify carries transient user-facing notifications from controls
// to whatever renders them.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
)

// Notification types
const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeInfo    = "info"
)

const DefaultDuration = 3 * time.Second

type Notification struct {
	Type     string
	Message  string
	Duration time.Duration
}

// Notifier is what controls depend on
type Notifier interface {
	Show(n Notification)
}

// Bus is owned by the application and closed when it shuts down. Subscribers
// run synchronously on the caller of Show and must not call back into the bus.
type Bus struct {
	mu     sync.Mutex
	bus    EventBus.Bus
	topics map[string]func(Notification)
	nextID int
	closed bool
}

func New() *Bus {
	return &Bus{bus: EventBus.New(), topics: make(map[string]func(Notification))}
}

// Each subscriber gets its own topic so unsubscribing removes exactly that
// subscriber.
func (b *Bus) Subscribe(fn func(Notification)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("notify: bus closed")
	}

	b.nextID++
	topic := fmt.Sprintf("notification:%d", b.nextID)
	if err := b.bus.Subscribe(topic, fn); err != nil {
		return nil, err
	}
	b.topics[topic] = fn

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic) })
	}, nil
}

func (b *Bus) unsubscribe(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn, ok := b.topics[topic]
	if !ok {
		return
	}
	delete(b.topics, topic)
	_ = b.bus.Unsubscribe(topic, fn)
}

// Show delivers n to every subscriber. A zero Duration gets DefaultDuration.
func (b *Bus) Show(n Notification) {
	if n.Duration <= 0 {
		n.Duration = DefaultDuration
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	topics := make([]string, 0, len(b.topics))
	for topic := range b.topics {
		topics = append(topics, topic)
	}
	b.mu.Unlock()

	for _, topic := range topics {
		b.bus.Publish(topic, n)
	}
}

func (b *Bus) Success(msg string) { b.Show(Notification{Type: TypeSuccess, Message: msg}) }

func (b *Bus) Error(msg string) { b.Show(Notification{Type: TypeError, Message: msg}) }

// Close drops every subscriber; later Show calls are no-ops
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, fn := range b.topics {
		_ = b.bus.Unsubscribe(topic, fn)
	}
	b.topics = nil
}
