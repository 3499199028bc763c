package mirror

import (
	"context"
	"sort"
	"sync"

	"github.com/example/plant-shop/internal/client"
	"github.com/example/plant-shop/internal/client/notify"
	"github.com/example/plant-shop/internal/model"
)

// fakeAPI serves a single user's cart and favorites from memory. A hook,
// when set, runs before the operation and can block or fail it.
type fakeAPI struct {
	mu        sync.Mutex
	plants    map[string]model.Plant
	cart      map[string]int
	favorites map[string]bool
	calls     []string

	updateHook func(ctx context.Context, count int) error
	adjustHook func(ctx context.Context, delta int) error
	toggleHook func(ctx context.Context) error
	listErr    error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		plants:    make(map[string]model.Plant),
		cart:      make(map[string]int),
		favorites: make(map[string]bool),
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) notFound() error {
	return &client.StatusError{Code: 404, Message: "not found"}
}

func (f *fakeAPI) GetCartItem(_ context.Context, _, productID string) (*model.CartEntry, error) {
	f.record("get_cart_item")
	f.mu.Lock()
	defer f.mu.Unlock()
	qty, ok := f.cart[productID]
	if !ok {
		return nil, f.notFound()
	}
	return &model.CartEntry{ProductID: productID, Quantity: qty}, nil
}

func (f *fakeAPI) GetCartItems(_ context.Context, userID string) ([]model.CartLine, error) {
	f.record("get_cart_items")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.cart) == 0 {
		return nil, f.notFound()
	}
	lines := make([]model.CartLine, 0, len(f.cart))
	for pid, qty := range f.cart {
		lines = append(lines, model.NewCartLine(model.CartEntry{UserID: userID, ProductID: pid, Quantity: qty}, f.plants[pid]))
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (f *fakeAPI) UpdateCart(ctx context.Context, userID, productID string, count int) (*client.CartResult, error) {
	f.record("update_cart")
	if f.updateHook != nil {
		if err := f.updateHook(ctx, count); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if count == 0 {
		delete(f.cart, productID)
		return &client.CartResult{Message: "Cart item removed successfully"}, nil
	}
	f.cart[productID] = count
	return &client.CartResult{
		Message: "Cart item updated successfully",
		Entry:   &model.CartEntry{UserID: userID, ProductID: productID, Quantity: count},
	}, nil
}

func (f *fakeAPI) AdjustCart(ctx context.Context, userID, productID string, delta int) (*client.CartResult, error) {
	f.record("adjust_cart")
	if f.adjustHook != nil {
		if err := f.adjustHook(ctx, delta); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	qty := f.cart[productID] + delta
	if qty <= 0 {
		delete(f.cart, productID)
		qty = 0
	} else {
		f.cart[productID] = qty
	}
	return &client.CartResult{Entry: &model.CartEntry{UserID: userID, ProductID: productID, Quantity: qty}}, nil
}

func (f *fakeAPI) ToggleFavorite(ctx context.Context, _, productID string) (*client.FavoriteResult, error) {
	f.record("toggle_favorite")
	if f.toggleHook != nil {
		if err := f.toggleHook(ctx); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites[productID] = !f.favorites[productID]
	return &client.FavoriteResult{IsFavorite: f.favorites[productID]}, nil
}

func (f *fakeAPI) CheckFavorite(_ context.Context, _, productID string) (bool, error) {
	f.record("check_favourites")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favorites[productID], nil
}

func (f *fakeAPI) ListFavorites(context.Context, string) ([]model.Plant, error) {
	f.record("favorites")
	f.mu.Lock()
	defer f.mu.Unlock()
	var plants []model.Plant
	for pid, on := range f.favorites {
		if on {
			plants = append(plants, model.Plant{ID: pid, CommonName: f.plants[pid].CommonName})
		}
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i].ID < plants[j].ID })
	return plants, nil
}

// notes records notifications
type notes struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (n *notes) Show(note notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, note)
}

func (n *notes) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.got))
	for i, note := range n.got {
		out[i] = note.Message
	}
	return out
}

func (n *notes) Last() notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.got) == 0 {
		return notify.Notification{}
	}
	return n.got[len(n.got)-1]
}

func always(answer bool) Confirmer {
	return func(context.Context, string) bool { return answer }
}

func newTestDeps(api *fakeAPI, userID string) (Deps, *notes) {
	n := &notes{}
	return Deps{
		API:      api,
		Session:  StaticSession{ID: userID},
		Notifier: n,
		Confirm:  always(true),
	}, n
}
