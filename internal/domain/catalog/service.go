// Package catalog serves plant data. Cart lines and favorites read the live
// catalog at query time, so updates here are visible to them immediately.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/plant-shop/internal/domain/domainerr"
	"github.com/example/plant-shop/internal/events"
	"github.com/example/plant-shop/internal/infrastructure/store"
	"github.com/example/plant-shop/internal/model"
)

var (
	ErrPlantNotFound  = domainerr.NotFound("Plant not found")
	ErrNoMatches      = domainerr.NotFound("No plants found")
	ErrEmptySearch    = domainerr.Validation("searchInput is required")
	ErrInvalidName    = domainerr.Validation("All required fields must be provided")
	ErrInvalidPrice   = domainerr.Validation("price must be 0 or greater")
	ErrInvalidPlantID = domainerr.Validation("Valid plant id is required")
)

type Service struct {
	plants    store.PlantStore
	publisher events.Publisher
}

func NewService(plants store.PlantStore, pub events.Publisher) *Service {
	return &Service{plants: plants, publisher: pub}
}

func (s *Service) Get(ctx context.Context, id string) (*model.Plant, error) {
	if !s.plants.ValidID(id) {
		return nil, ErrPlantNotFound
	}
	plant, err := s.plants.GetPlant(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlantNotFound
	}
	return plant, err
}

func (s *Service) List(ctx context.Context) ([]model.Plant, error) {
	return s.plants.ListPlants(ctx)
}

// Banners lists the home screen banner images
func (s *Service) Banners(ctx context.Context) ([]model.Banner, error) {
	return s.plants.ListBanners(ctx)
}

// Search matches term case-insensitively against common and scientific names
func (s *Service) Search(ctx context.Context, term string) ([]model.Plant, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptySearch
	}
	plants, err := s.plants.SearchPlants(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(plants) == 0 {
		return nil, ErrNoMatches
	}
	return plants, nil
}

func (s *Service) Create(ctx context.Context, plant model.Plant) (*model.Plant, error) {
	plant.CommonName = strings.TrimSpace(plant.CommonName)
	plant.ScientificName = strings.TrimSpace(plant.ScientificName)
	if plant.CommonName == "" || plant.ScientificName == "" {
		return nil, ErrInvalidName
	}
	if plant.Price < 0 {
		return nil, ErrInvalidPrice
	}

	plant.ID = ""
	if err := s.plants.CreatePlant(ctx, &plant); err != nil {
		return nil, err
	}
	return &plant, nil
}

func (s *Service) Update(ctx context.Context, id string, patch model.PlantPatch) (*model.Plant, error) {
	if !s.plants.ValidID(id) {
		return nil, ErrInvalidPlantID
	}
	if patch.CommonName != nil && strings.TrimSpace(*patch.CommonName) == "" {
		return nil, ErrInvalidName
	}
	if patch.ScientificName != nil && strings.TrimSpace(*patch.ScientificName) == "" {
		return nil, ErrInvalidName
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, ErrInvalidPrice
	}

	plant, err := s.plants.UpdatePlant(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlantNotFound
	}
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, id, events.AggregatePlant, events.PlantUpdated, events.PlantChanged{
		PlantID:    id,
		CommonName: plant.CommonName,
		ChangedAt:  time.Now(),
	})
	return plant, nil
}

// Delete removes the plant. Carts and favorites still referencing it are
// cleaned up by whoever consumes PlantDeleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.plants.ValidID(id) {
		return ErrInvalidPlantID
	}
	err := s.plants.DeletePlant(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPlantNotFound
	}
	if err != nil {
		return err
	}

	events.Emit(ctx, s.publisher, id, events.AggregatePlant, events.PlantDeleted, events.PlantChanged{
		PlantID:   id,
		ChangedAt: time.Now(),
	})
	return nil
}
