package mirror

import (
	"context"
	"sync"

	"github.com/example/plant-shop/internal/model"
)

// FavoriteToggle is the heart on a product page. The flip is not idempotent,
// so a second toggle is refused while one is pending.
type FavoriteToggle struct {
	deps      Deps
	productID string
	value     *Value[bool]
}

func NewFavoriteToggle(deps Deps, productID string) *FavoriteToggle {
	return &FavoriteToggle{deps: deps, productID: productID, value: NewValue(false, deps.timeout())}
}

// Load reads membership. Without a session the product is simply not a
// favorite.
func (f *FavoriteToggle) Load(ctx context.Context) error {
	userID, ok := f.deps.userID()
	if !ok {
		f.value.Seed(false)
		return nil
	}
	isFavorite, err := f.deps.API.CheckFavorite(ctx, userID, f.productID)
	if err != nil {
		f.value.Seed(false)
		return err
	}
	f.value.Seed(isFavorite)
	return nil
}

func (f *FavoriteToggle) IsFavorite() bool { return f.value.Displayed() }

func (f *FavoriteToggle) State() State { return f.value.State() }

func (f *FavoriteToggle) Toggle(ctx context.Context) error {
	userID, ok := f.deps.userID()
	if !ok {
		f.deps.failure(MsgLoginForFavorites)
		return ErrNoSession
	}

	ticket, reqCtx, ok := f.value.TryBegin(ctx, !f.value.Displayed())
	if !ok {
		return ErrBusy
	}
	res, err := f.deps.API.ToggleFavorite(reqCtx, userID, f.productID)
	if err != nil {
		if f.value.Rollback(ticket) {
			f.deps.failure(MsgFavoriteFailed)
		}
		return err
	}

	if !f.value.Commit(ticket, res.IsFavorite) {
		return ErrSuperseded
	}
	if res.IsFavorite {
		f.deps.success(MsgFavoriteAdded)
	} else {
		f.deps.success(MsgFavoriteRemoved)
	}
	return nil
}

// FavoritesView is the favorites screen. It keeps no cache between visits;
// every Refresh replaces the list.
type FavoritesView struct {
	deps Deps

	mu     sync.Mutex
	plants []model.Plant
}

func NewFavoritesView(deps Deps) *FavoritesView {
	return &FavoritesView{deps: deps}
}

func (v *FavoritesView) Refresh(ctx context.Context) error {
	userID, ok := v.deps.userID()
	if !ok {
		v.set(nil)
		return nil
	}
	plants, err := v.deps.API.ListFavorites(ctx, userID)
	if err != nil {
		return err
	}
	v.set(plants)
	return nil
}

func (v *FavoritesView) set(plants []model.Plant) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.plants = append([]model.Plant(nil), plants...)
}

func (v *FavoritesView) Plants() []model.Plant {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Plant(nil), v.plants...)
}

func (v *FavoritesView) Contains(productID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range v.plants {
		if p.ID == productID {
			return true
		}
	}
	return false
}
