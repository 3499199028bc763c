package mirror

import (
	"context"
	"errors"
	"time"

	"github.com/example/plant-shop/internal/client"
	"github.com/example/plant-shop/internal/client/notify"
	"github.com/example/plant-shop/internal/model"
)

// Quantity bounds enforced before any request is sent
const (
	MinQuantity = 0
	MaxQuantity = 20
)

// Notification messages
const (
	MsgMaxQuantity       = "You can add a maximum of 20 items to the cart."
	MsgMinQuantity       = "Cart count cannot be less than 0."
	MsgCartFailed        = "Failed to update cart. Please try again."
	MsgLoginRequired     = "User ID not found. Please log in."
	MsgLoginForFavorites = "Please login to add favorites"
	MsgFavoriteFailed    = "Failed to update favorites. Please try again."
	MsgFavoriteAdded     = "Added to Favorites"
	MsgFavoriteRemoved   = "Removed from Favorites"
)

var (
	ErrAtMaximum   = errors.New("quantity already at maximum")
	ErrAtMinimum   = errors.New("quantity already at minimum")
	ErrOutOfRange  = errors.New("quantity out of range")
	ErrNoSession   = errors.New("no user session")
	ErrDeclined    = errors.New("removal not confirmed")
	ErrBusy        = errors.New("a change is already in flight")
	ErrSuperseded  = errors.New("superseded by a newer change")
	ErrUnknownLine = errors.New("product is not in the cart")
)

// API is the subset of the HTTP client the controls use
type API interface {
	GetCartItem(ctx context.Context, userID, productID string) (*model.CartEntry, error)
	GetCartItems(ctx context.Context, userID string) ([]model.CartLine, error)
	UpdateCart(ctx context.Context, userID, productID string, count int) (*client.CartResult, error)
	AdjustCart(ctx context.Context, userID, productID string, delta int) (*client.CartResult, error)
	ToggleFavorite(ctx context.Context, userID, productID string) (*client.FavoriteResult, error)
	CheckFavorite(ctx context.Context, userID, productID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]model.Plant, error)
}

// Session reports the logged-in user, if any
type Session interface {
	UserID() (string, bool)
}

type StaticSession struct {
	ID string
}

func (s StaticSession) UserID() (string, bool) {
	return s.ID, s.ID != ""
}

// Confirmer asks the user to approve a removal
type Confirmer func(ctx context.Context, prompt string) bool

// Deps is shared by every control. A nil Confirm declines every removal and
// a nil Notifier drops notifications.
type Deps struct {
	API      API
	Session  Session
	Notifier notify.Notifier
	Confirm  Confirmer
	Timeout  time.Duration
}

func (d Deps) timeout() time.Duration {
	if d.Timeout == 0 {
		return client.DefaultTimeout
	}
	return d.Timeout
}

func (d Deps) userID() (string, bool) {
	if d.Session == nil {
		return "", false
	}
	return d.Session.UserID()
}

func (d Deps) confirm(ctx context.Context, prompt string) bool {
	if d.Confirm == nil {
		return false
	}
	return d.Confirm(ctx, prompt)
}

func (d Deps) show(kind, msg string) {
	if d.Notifier == nil {
		return
	}
	d.Notifier.Show(notify.Notification{Type: kind, Message: msg})
}

func (d Deps) success(msg string) { d.show(notify.TypeSuccess, msg) }

func (d Deps) failure(msg string) { d.show(notify.TypeError, msg) }
