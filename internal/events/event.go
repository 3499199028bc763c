package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Aggregate types
const (
	AggregateCart     = "Cart"
	AggregateFavorite = "Favorite"
	AggregatePlant    = "Plant"
)

// Event types
const (
	CartItemUpdated = "CartItemUpdated"
	CartItemRemoved = "CartItemRemoved"
	FavoriteToggled = "FavoriteToggled"
	PlantUpdated    = "PlantUpdated"
	PlantDeleted    = "PlantDeleted"
)

// Event represents a domain event after a successful write
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
}

// New builds an event with a fresh ID and the JSON encoding of data
func New(aggregateID, aggregateType, eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          raw,
		Timestamp:     time.Now(),
	}, nil
}

// Decode unmarshals the event payload into v
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// CartItemChanged is the payload of CartItemUpdated and CartItemRemoved
type CartItemChanged struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"cart_count"`
	ChangedAt time.Time `json:"changed_at"`
}

// FavoriteChanged is the payload of FavoriteToggled
type FavoriteChanged struct {
	UserID     string    `json:"user_id"`
	ProductID  string    `json:"product_id"`
	IsFavorite bool      `json:"is_favorite"`
	ChangedAt  time.Time `json:"changed_at"`
}

// PlantChanged is the payload of PlantUpdated and PlantDeleted
type PlantChanged struct {
	PlantID    string    `json:"plant_id"`
	CommonName string    `json:"commonName,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

// Publisher delivers events to interested consumers
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
