// Package favorite manages the per-user favorites set stored on the user.
package favorite

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
	ErrInvalidUser    = domainerr.Validation("Valid userId is required")
	ErrInvalidProduct = domainerr.Validation("Valid product_id is required")
	ErrUserNotFound   = domainerr.NotFound("User not found")
)

type Set struct {
	users     store.UserStore
	plants    store.PlantStore
	publisher events.Publisher
}

func NewSet(users store.UserStore, plants store.PlantStore, pub events.Publisher) *Set {
	return &Set{users: users, plants: plants, publisher: pub}
}

func (s *Set) validate(userID, productID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	if !s.plants.ValidID(productID) {
		return ErrInvalidProduct
	}
	return nil
}

// Toggle flips membership and returns the new state. The product is not
// required to exist in the catalog.
func (s *Set) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	if err := s.validate(userID, productID); err != nil {
		return false, err
	}
	isFavorite, err := s.users.ToggleFavorite(ctx, userID, productID)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, err
	}

	events.Emit(ctx, s.publisher, userID, events.AggregateFavorite, events.FavoriteToggled, events.FavoriteChanged{
		UserID:     userID,
		ProductID:  productID,
		IsFavorite: isFavorite,
		ChangedAt:  time.Now(),
	})
	return isFavorite, nil
}

func (s *Set) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	ids, err := s.ids(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == productID {
			return true, nil
		}
	}
	return false, nil
}

// List resolves the favorites against the catalog. Ids without a plant are skipped.
func (s *Set) List(ctx context.Context, userID string) ([]model.Plant, error) {
	ids, err := s.ids(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Plant{}, nil
	}
	return s.plants.GetPlantsByIDs(ctx, ids)
}

// PurgeProduct drops the product from every user's set
func (s *Set) PurgeProduct(ctx context.Context, productID string) (int64, error) {
	if strings.TrimSpace(productID) == "" {
		return 0, ErrInvalidProduct
	}
	return s.users.RemoveFavoriteEverywhere(ctx, productID)
}

func (s *Set) ids(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	ids, err := s.users.FavoriteIDs(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return ids, err
}
