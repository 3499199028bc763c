// Package cart keeps the per-user, per-product quantity ledger.
package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/plant-shop/internal/domain/domainerr"
	"github.com/example/plant-shop/internal/events"
	"github.com/example/plant-shop/internal/infrastructure/store"
	"github.com/example/plant-shop/internal/model"
	"go.uber.org/zap"
)

// Quantity bounds for a single cart entry. An entry at MinQuantity does not exist.
const (
	MinQuantity = 0
	MaxQuantity = 20
)

var (
	ErrInvalidUser        = domainerr.Validation("Valid userId (string) is required")
	ErrInvalidProduct     = domainerr.Validation("Valid product_id is required")
	ErrInvalidQuantity    = domainerr.Validation("cartCount must be a number between 0 and 20")
	ErrMissingIDs         = domainerr.Validation("userId and product_id are required")
	ErrInvalidDelta       = domainerr.Validation("delta must be a non-zero number")
	ErrQuantityOutOfRange = domainerr.Validation("Cart count must stay between 0 and 20")
	ErrEntryNotFound      = domainerr.NotFound("Cart item not found")
	ErrPlantNotFound      = domainerr.NotFound("Product not found")
	ErrCartEmpty          = domainerr.NotFound("No cart items found for this user")
)

// Ledger owns cart entries. Every mutation is one store write; nothing spans
// more than one collection.
type Ledger struct {
	carts     store.CartStore
	plants    store.PlantStore
	publisher events.Publisher
}

func NewLedger(carts store.CartStore, plants store.PlantStore, pub events.Publisher) *Ledger {
	return &Ledger{carts: carts, plants: plants, publisher: pub}
}

func (l *Ledger) validate(userID, productID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	if !l.plants.ValidID(productID) {
		return ErrInvalidProduct
	}
	return nil
}

// SetQuantity overwrites the stored quantity. Zero deletes the entry and
// returns a nil entry.
func (l *Ledger) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*model.CartEntry, error) {
	if err := l.validate(userID, productID); err != nil {
		return nil, err
	}
	if quantity < MinQuantity || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	if quantity == 0 {
		err := l.carts.DeleteCartEntry(ctx, userID, productID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		if err != nil {
			return nil, err
		}
		l.emit(ctx, events.CartItemRemoved, userID, productID, 0)
		return nil, nil
	}

	plant, err := l.lookupPlant(ctx, productID)
	if err != nil {
		return nil, err
	}

	entry, err := l.carts.UpsertCartEntry(ctx, userID, productID, quantity, plant.CommonName)
	if err != nil {
		return nil, err
	}
	l.emit(ctx, events.CartItemUpdated, userID, productID, entry.Quantity)
	return entry, nil
}

// AdjustQuantity applies delta atomically in the store. The resulting
// quantity must stay in [MinQuantity, MaxQuantity]; reaching zero removes the
// entry and the returned entry reports Quantity 0.
func (l *Ledger) AdjustQuantity(ctx context.Context, userID, productID string, delta int) (*model.CartEntry, error) {
	if err := l.validate(userID, productID); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, ErrInvalidDelta
	}

	commonName := ""
	if delta > 0 {
		plant, err := l.lookupPlant(ctx, productID)
		if err != nil {
			return nil, err
		}
		commonName = plant.CommonName
	}

	entry, err := l.carts.AdjustCartEntry(ctx, userID, productID, delta, MaxQuantity, commonName)
	switch {
	case errors.Is(err, store.ErrOutOfRange):
		return nil, ErrQuantityOutOfRange
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrEntryNotFound
	case err != nil:
		return nil, err
	}

	if entry.Quantity == 0 {
		l.emit(ctx, events.CartItemRemoved, userID, productID, 0)
	} else {
		l.emit(ctx, events.CartItemUpdated, userID, productID, entry.Quantity)
	}
	return entry, nil
}

func (l *Ledger) GetQuantity(ctx context.Context, userID, productID string) (*model.CartEntry, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(productID) == "" {
		return nil, ErrMissingIDs
	}
	entry, err := l.carts.GetCartEntry(ctx, userID, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	return entry, err
}

// ListEntries joins the user's entries with the live catalog. Entries whose
// plant no longer exists are left out.
func (l *Ledger) ListEntries(ctx context.Context, userID string) ([]model.CartLine, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	entries, err := l.carts.ListCartEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrCartEmpty
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	plants, err := l.plants.GetPlantsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Plant, len(plants))
	for _, p := range plants {
		byID[p.ID] = p
	}

	lines := make([]model.CartLine, 0, len(entries))
	for _, e := range entries {
		plant, ok := byID[e.ProductID]
		if !ok {
			zap.L().Warn("cart entry references missing plant",
				zap.String("user_id", userID),
				zap.String("product_id", e.ProductID))
			continue
		}
		lines = append(lines, model.NewCartLine(e, plant))
	}
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}
	return lines, nil
}

// PurgeProduct removes every entry for the product across all users
func (l *Ledger) PurgeProduct(ctx context.Context, productID string) (int64, error) {
	if strings.TrimSpace(productID) == "" {
		return 0, ErrInvalidProduct
	}
	return l.carts.DeleteCartEntriesByProduct(ctx, productID)
}

func (l *Ledger) lookupPlant(ctx context.Context, productID string) (*model.Plant, error) {
	plant, err := l.plants.GetPlant(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlantNotFound
	}
	return plant, err
}

func (l *Ledger) emit(ctx context.Context, eventType, userID, productID string, quantity int) {
	events.Emit(ctx, l.publisher, userID, events.AggregateCart, eventType, events.CartItemChanged{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		ChangedAt: time.Now(),
	})
}
