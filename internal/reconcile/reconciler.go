// Package reconcile keeps carts and favorite sets free of products that no
// longer exist in the catalog.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/example/plant-shop/internal/domain/cart"
	"github.com/example/plant-shop/internal/domain/favorite"
	"github.com/example/plant-shop/internal/events"
	"github.com/example/plant-shop/internal/infrastructure/store"
	"go.uber.org/zap"
)

// Report summarises one purge or sweep
type Report struct {
	Scanned          int      `json:"scanned"`
	Orphans          []string `json:"orphans"`
	CartLinesRemoved int64    `json:"cart_lines_removed"`
	FavoritesRemoved int64    `json:"favorites_removed"`
}

type Reconciler struct {
	st        store.Store
	ledger    *cart.Ledger
	favorites *favorite.Set
}

func NewReconciler(st store.Store, ledger *cart.Ledger, favorites *favorite.Set) *Reconciler {
	return &Reconciler{st: st, ledger: ledger, favorites: favorites}
}

// HandleEvent matches events.Handler. Only PlantDeleted triggers work.
func (r *Reconciler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event events.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	if event.AggregateType != events.AggregatePlant || event.EventType != events.PlantDeleted {
		return nil
	}

	var data events.PlantChanged
	if err := event.Decode(&data); err != nil {
		return err
	}
	productID := data.PlantID
	if productID == "" {
		productID = event.AggregateID
	}

	report := &Report{Scanned: 1, Orphans: []string{productID}}
	if err := r.purge(ctx, productID, report); err != nil {
		return err
	}
	zap.L().Info("plant removed from carts and favorites",
		zap.String("plant_id", productID),
		zap.Int64("cart_lines", report.CartLinesRemoved),
		zap.Int64("favorites", report.FavoritesRemoved))
	return nil
}

// Sweep purges every referenced product id that the catalog no longer has.
// It covers deletes whose events were lost.
func (r *Reconciler) Sweep(ctx context.Context) (*Report, error) {
	cartIDs, err := r.st.CartProductIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cart products: %w", err)
	}
	favoriteIDs, err := r.st.FavoriteProductIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list favorite products: %w", err)
	}

	referenced := make(map[string]struct{}, len(cartIDs)+len(favoriteIDs))
	for _, id := range append(cartIDs, favoriteIDs...) {
		referenced[id] = struct{}{}
	}
	ids := make([]string, 0, len(referenced))
	for id := range referenced {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	plants, err := r.st.GetPlantsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load plants: %w", err)
	}
	live := make(map[string]struct{}, len(plants))
	for _, p := range plants {
		live[p.ID] = struct{}{}
	}

	report := &Report{Scanned: len(ids), Orphans: []string{}}
	var errs []error
	for _, id := range ids {
		if _, ok := live[id]; ok {
			continue
		}
		report.Orphans = append(report.Orphans, id)
		if err := r.purge(ctx, id, report); err != nil {
			errs = append(errs, err)
		}
	}

	zap.L().Info("orphan sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int64("cart_lines", report.CartLinesRemoved),
		zap.Int64("favorites", report.FavoritesRemoved))
	return report, errors.Join(errs...)
}

func (r *Reconciler) purge(ctx context.Context, productID string, report *Report) error {
	lines, err := r.ledger.PurgeProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("purge cart lines for %s: %w", productID, err)
	}
	report.CartLinesRemoved += lines

	favs, err := r.favorites.PurgeProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("purge favorites for %s: %w", productID, err)
	}
	report.FavoritesRemoved += favs
	return nil
}
