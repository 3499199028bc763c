package command

import (
	"context"

	"github.com/example/plant-shop/internal/domain/cart"
	"github.com/example/plant-shop/internal/domain/catalog"
	"github.com/example/plant-shop/internal/domain/favorite"
	"github.com/example/plant-shop/internal/domain/user"
	"github.com/example/plant-shop/internal/model"
)

// Response messages shared with existing clients
const (
	MsgCartUpdated     = "Cart item updated successfully"
	MsgCartRemoved     = "Cart item removed successfully"
	MsgFavoriteAdded   = "Added to Favorites"
	MsgFavoriteRemoved = "Removed from Favorites"
	MsgPlantAdded      = "Plant added successfully"
	MsgPlantDeleted    = "Plant deleted successfully"
	MsgUserRegistered  = "User registered successfully"
)

// Handler runs every write against the domain services
type Handler struct {
	ledger    *cart.Ledger
	favorites *favorite.Set
	catalog   *catalog.Service
	users     *user.Service
}

func NewHandler(
	ledger *cart.Ledger,
	favorites *favorite.Set,
	catalogSvc *catalog.Service,
	users *user.Service,
) *Handler {
	return &Handler{
		ledger:    ledger,
		favorites: favorites,
		catalog:   catalogSvc,
		users:     users,
	}
}

// UpdateCart sets an absolute quantity; zero removes the line
func (h *Handler) UpdateCart(ctx context.Context, cmd UpdateCart) (*CartResult, error) {
	entry, err := h.ledger.SetQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.CartCount)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &CartResult{Message: MsgCartRemoved}, nil
	}
	return &CartResult{Message: MsgCartUpdated, Entry: entry}, nil
}

// AdjustCart applies a relative change in one atomic store operation
func (h *Handler) AdjustCart(ctx context.Context, cmd AdjustCart) (*CartResult, error) {
	entry, err := h.ledger.AdjustQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.Delta)
	if err != nil {
		return nil, err
	}
	if entry.Quantity == 0 {
		return &CartResult{Message: MsgCartRemoved, Entry: entry}, nil
	}
	return &CartResult{Message: MsgCartUpdated, Entry: entry}, nil
}

func (h *Handler) ToggleFavorite(ctx context.Context, cmd ToggleFavorite) (*FavoriteResult, error) {
	isFavorite, err := h.favorites.Toggle(ctx, cmd.UserID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	msg := MsgFavoriteRemoved
	if isFavorite {
		msg = MsgFavoriteAdded
	}
	return &FavoriteResult{Message: msg, IsFavorite: isFavorite}, nil
}

func (h *Handler) CreatePlant(ctx context.Context, cmd CreatePlant) (*model.Plant, error) {
	return h.catalog.Create(ctx, cmd.Plant)
}

func (h *Handler) UpdatePlant(ctx context.Context, cmd UpdatePlant) (*model.Plant, error) {
	return h.catalog.Update(ctx, cmd.PlantID, cmd.Patch)
}

// DeletePlant removes the plant. Cart lines and favorites pointing at it are
// purged by the PlantDeleted consumer.
func (h *Handler) DeletePlant(ctx context.Context, cmd DeletePlant) error {
	return h.catalog.Delete(ctx, cmd.PlantID)
}

func (h *Handler) Register(ctx context.Context, cmd Register) (*model.User, error) {
	return h.users.Register(ctx, cmd.Email, cmd.Password)
}

func (h *Handler) UpdateProfile(ctx context.Context, cmd UpdateProfile) (*model.User, error) {
	return h.users.UpdateProfile(ctx, cmd.UserID, cmd.Update)
}
