package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EncodesPayload(t *testing.T) {
	event, err := New("plant-1", AggregatePlant, PlantDeleted, PlantChanged{PlantID: "plant-1"})

	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "plant-1", event.AggregateID)
	assert.Equal(t, PlantDeleted, event.EventType)

	var payload PlantChanged
	require.NoError(t, event.Decode(&payload))
	assert.Equal(t, "plant-1", payload.PlantID)
}

func TestDispatcher_DeliversToAllHandlers(t *testing.T) {
	var got []Event
	record := func(ctx context.Context, key, value []byte) error {
		var e Event
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		assert.Equal(t, e.AggregateID, string(key))
		got = append(got, e)
		return nil
	}

	d := NewDispatcher(record)
	d.Register(record)

	event, err := New("user-1", AggregateFavorite, FavoriteToggled, FavoriteChanged{UserID: "user-1", IsFavorite: true})
	require.NoError(t, err)

	require.NoError(t, d.Publish(context.Background(), event))
	require.Len(t, got, 2)
	assert.Equal(t, event.ID, got[0].ID)
	assert.Equal(t, event.ID, got[1].ID)
}

func TestDispatcher_JoinsHandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	d := NewDispatcher(
		func(context.Context, []byte, []byte) error { calls++; return boom },
		func(context.Context, []byte, []byte) error { calls++; return nil },
	)

	event, err := New("p", AggregatePlant, PlantUpdated, PlantChanged{PlantID: "p"})
	require.NoError(t, err)

	err = d.Publish(context.Background(), event)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
