package command

import "github.com/example/plant-shop/internal/model"

// Cart Commands
type UpdateCart struct {
	UserID    string
	ProductID string
	CartCount int
}

type AdjustCart struct {
	UserID    string
	ProductID string
	Delta     int
}

// Favorite Commands
type ToggleFavorite struct {
	UserID    string
	ProductID string
}

// Plant Commands
type CreatePlant struct {
	Plant model.Plant
}

type UpdatePlant struct {
	PlantID string
	Patch   model.PlantPatch
}

type DeletePlant struct {
	PlantID string
}

// User Commands
type Register struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfile struct {
	UserID string
	Update model.ProfileUpdate
}

// CartResult is the outcome of a cart write. Entry is nil when the write
// removed the line.
type CartResult struct {
	Message string           `json:"message"`
	Entry   *model.CartEntry `json:"cartItem,omitempty"`
}

// FavoriteResult is the outcome of a favorite toggle
type FavoriteResult struct {
	Message    string `json:"message"`
	IsFavorite bool   `json:"isFavorite"`
}
