package catalog

import (
	"context"
	"testing"

	"github.com/example/plant-shop/internal/domain/domainerr"
	"github.com/example/plant-shop/internal/events"
	"github.com/example/plant-shop/internal/infrastructure/store/mocks"
	"github.com/example/plant-shop/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogService() (*Service, *mocks.MemoryStore, *mocks.MockPublisher) {
	st := mocks.NewMemoryStore()
	pub := mocks.NewMockPublisher()
	return NewService(st, pub), st, pub
}

// ============================================
// Get / List Tests
// ============================================

func TestService_Get(t *testing.T) {
	service, st, _ := newTestCatalogService()
	id := st.AddPlant(model.Plant{CommonName: "Monstera", ScientificName: "Monstera deliciosa", Price: 30})

	plant, err := service.Get(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "Monstera", plant.CommonName)
}

func TestService_Get_NotFound(t *testing.T) {
	service, _, _ := newTestCatalogService()

	_, err := service.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrPlantNotFound)
	assert.True(t, domainerr.IsNotFound(err))
}

func TestService_List_SortedByName(t *testing.T) {
	service, st, _ := newTestCatalogService()
	st.AddPlant(model.Plant{CommonName: "Pothos"})
	st.AddPlant(model.Plant{CommonName: "Aloe"})

	plants, err := service.List(context.Background())

	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "Aloe", plants[0].CommonName)
}

// ============================================
// Search Tests
// ============================================

func TestService_Search(t *testing.T) {
	service, st, _ := newTestCatalogService()
	st.AddPlant(model.Plant{CommonName: "Snake Plant", ScientificName: "Dracaena trifasciata"})
	st.AddPlant(model.Plant{CommonName: "Dragon Tree", ScientificName: "Dracaena marginata"})
	st.AddPlant(model.Plant{CommonName: "Fern", ScientificName: "Nephrolepis exaltata"})

	tests := []struct {
		name  string
		term  string
		count int
		err   error
	}{
		{"scientific name", "dracaena", 2, nil},
		{"common name mixed case", "sNaKe", 1, nil},
		{"no matches", "cactus", 0, ErrNoMatches},
		{"blank term", "   ", 0, ErrEmptySearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plants, err := service.Search(context.Background(), tt.term)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, plants, tt.count)
		})
	}
}

// ============================================
// Create / Update / Delete Tests
// ============================================

func TestService_Create(t *testing.T) {
	service, st, _ := newTestCatalogService()

	plant, err := service.Create(context.Background(), model.Plant{
		CommonName:     " Peace Lily ",
		ScientificName: "Spathiphyllum",
		Price:          12.5,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, plant.ID)
	assert.Equal(t, "Peace Lily", plant.CommonName)

	stored, err := st.GetPlant(context.Background(), plant.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.5, stored.Price)
}

func TestService_Create_Invalid(t *testing.T) {
	service, _, _ := newTestCatalogService()

	_, err := service.Create(context.Background(), model.Plant{ScientificName: "x"})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = service.Create(context.Background(), model.Plant{CommonName: "x", ScientificName: "y", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestService_Update_EmitsEvent(t *testing.T) {
	service, st, pub := newTestCatalogService()
	id := st.AddPlant(model.Plant{CommonName: "Fern", ScientificName: "Nephrolepis", Price: 8})
	name := "Boston Fern"

	plant, err := service.Update(context.Background(), id, model.PlantPatch{CommonName: &name})

	require.NoError(t, err)
	assert.Equal(t, "Boston Fern", plant.CommonName)
	assert.Equal(t, 8.0, plant.Price)
	assert.Equal(t, []string{events.PlantUpdated}, pub.Types())
}

func TestService_Update_NotFound(t *testing.T) {
	service, _, pub := newTestCatalogService()
	price := 3.0

	_, err := service.Update(context.Background(), "missing", model.PlantPatch{Price: &price})

	assert.ErrorIs(t, err, ErrPlantNotFound)
	assert.Empty(t, pub.Events)
}

func TestService_Delete_EmitsPlantDeleted(t *testing.T) {
	service, st, pub := newTestCatalogService()
	id := st.AddPlant(model.Plant{CommonName: "Aloe"})

	require.NoError(t, service.Delete(context.Background(), id))

	_, err := service.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrPlantNotFound)
	require.Len(t, pub.Events, 1)

	var payload events.PlantChanged
	require.NoError(t, pub.Events[0].Decode(&payload))
	assert.Equal(t, id, payload.PlantID)
	assert.Equal(t, events.PlantDeleted, pub.Events[0].EventType)
}

func TestService_Delete_NotFound(t *testing.T) {
	service, _, _ := newTestCatalogService()

	assert.ErrorIs(t, service.Delete(context.Background(), "missing"), ErrPlantNotFound)
}
