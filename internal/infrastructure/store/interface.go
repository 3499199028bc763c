package store

import (
	"context"
	"errors"

	"github.com/example/plant-shop/internal/model"
)

var (
	// ErrNotFound is returned when the addressed record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrOutOfRange is returned when an atomic adjustment would leave the allowed bounds
	ErrOutOfRange = errors.New("quantity out of range")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("duplicate key")
)

// PlantStore is the catalog collection
type PlantStore interface {
	// ValidID reports whether id is well-formed for this backend
	ValidID(id string) bool
	GetPlant(ctx context.Context, id string) (*model.Plant, error)
	// GetPlantsByIDs returns the plants that exist; unknown or malformed ids are skipped
	GetPlantsByIDs(ctx context.Context, ids []string) ([]model.Plant, error)
	ListPlants(ctx context.Context) ([]model.Plant, error)
	SearchPlants(ctx context.Context, term string) ([]model.Plant, error)
	CreatePlant(ctx context.Context, plant *model.Plant) error
	UpdatePlant(ctx context.Context, id string, patch model.PlantPatch) (*model.Plant, error)
	DeletePlant(ctx context.Context, id string) error
	ListBanners(ctx context.Context) ([]model.Banner, error)
}

// CartStore holds one entry per (user, product)
type CartStore interface {
	// UpsertCartEntry overwrites quantity and name snapshot, creating the entry if absent
	UpsertCartEntry(ctx context.Context, userID, productID string, quantity int, commonName string) (*model.CartEntry, error)
	// AdjustCartEntry atomically adds delta to the quantity. The result must stay in
	// [0, max]; otherwise ErrOutOfRange and nothing is written. A result of zero deletes
	// the entry and the returned entry carries Quantity 0. A missing entry is created
	// when delta > 0 and reported as ErrNotFound when delta < 0.
	AdjustCartEntry(ctx context.Context, userID, productID string, delta, max int, commonName string) (*model.CartEntry, error)
	DeleteCartEntry(ctx context.Context, userID, productID string) error
	GetCartEntry(ctx context.Context, userID, productID string) (*model.CartEntry, error)
	ListCartEntries(ctx context.Context, userID string) ([]model.CartEntry, error)
	// CartProductIDs returns the distinct product ids referenced by any cart
	CartProductIDs(ctx context.Context) ([]string, error)
	DeleteCartEntriesByProduct(ctx context.Context, productID string) (int64, error)
}

// UserStore holds users and their embedded favorite sets
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)

	// ToggleFavorite flips membership atomically and returns the new state
	ToggleFavorite(ctx context.Context, userID, productID string) (bool, error)
	// FavoriteIDs returns the user's favorite set, ErrNotFound for an unknown user
	FavoriteIDs(ctx context.Context, userID string) ([]string, error)
	// FavoriteProductIDs returns the distinct product ids favorited by any user
	FavoriteProductIDs(ctx context.Context) ([]string, error)
	RemoveFavoriteEverywhere(ctx context.Context, productID string) (int64, error)
}

// Store bundles every collection of a backend
type Store interface {
	PlantStore
	CartStore
	UserStore
	Close(ctx context.Context) error
}
