package query

import (
	"context"

	"github.com/example/plant-shop/internal/domain/cart"
	"github.com/example/plant-shop/internal/domain/catalog"
	"github.com/example/plant-shop/internal/domain/favorite"
	"github.com/example/plant-shop/internal/domain/user"
	"github.com/example/plant-shop/internal/model"
)

// Handler serves reads. Cart and favorite views are joined with the live
// catalog on every call.
type Handler struct {
	ledger    *cart.Ledger
	favorites *favorite.Set
	catalog   *catalog.Service
	users     *user.Service
}

func NewHandler(ledger *cart.Ledger, favorites *favorite.Set, catalogSvc *catalog.Service, users *user.Service) *Handler {
	return &Handler{ledger: ledger, favorites: favorites, catalog: catalogSvc, users: users}
}

// Cart
func (h *Handler) GetCartItem(ctx context.Context, userID, productID string) (*model.CartEntry, error) {
	return h.ledger.GetQuantity(ctx, userID, productID)
}

func (h *Handler) GetCartItems(ctx context.Context, userID string) ([]model.CartLine, error) {
	return h.ledger.ListEntries(ctx, userID)
}

// Favorites
func (h *Handler) GetFavorites(ctx context.Context, userID string) ([]model.Plant, error) {
	return h.favorites.List(ctx, userID)
}

func (h *Handler) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	return h.favorites.IsFavorite(ctx, userID, productID)
}

// Plants
func (h *Handler) GetPlant(ctx context.Context, id string) (*model.Plant, error) {
	return h.catalog.Get(ctx, id)
}

func (h *Handler) ListPlants(ctx context.Context) ([]model.Plant, error) {
	return h.catalog.List(ctx)
}

func (h *Handler) SearchPlants(ctx context.Context, term string) ([]model.Plant, error) {
	return h.catalog.Search(ctx, term)
}

func (h *Handler) ListBanners(ctx context.Context) ([]model.Banner, error) {
	return h.catalog.Banners(ctx)
}

// Users
func (h *Handler) GetUser(ctx context.Context, id string) (*model.User, error) {
	return h.users.Get(ctx, id)
}
