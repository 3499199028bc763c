package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/plant-shop/internal/client"
	"github.com/example/plant-shop/internal/model"
)

// CartView is the cart screen. Steps go through the atomic adjust endpoint
// and are always followed by a full refetch.
type CartView struct {
	deps Deps

	mu       sync.Mutex
	lines    []model.CartLine
	inflight map[string]bool
}

func NewCartView(deps Deps) *CartView {
	return &CartView{deps: deps, inflight: make(map[string]bool)}
}

// Refresh replaces the local list with the server's. A 404 means an empty cart.
func (v *CartView) Refresh(ctx context.Context) error {
	userID, ok := v.deps.userID()
	if !ok {
		v.replace(nil)
		return ErrNoSession
	}

	lines, err := v.deps.API.GetCartItems(ctx, userID)
	if errors.Is(err, client.ErrNotFound) {
		v.replace(nil)
		return nil
	}
	if err != nil {
		return err
	}
	v.replace(lines)
	return nil
}

func (v *CartView) replace(lines []model.CartLine) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lines = append([]model.CartLine(nil), lines...)
}

func (v *CartView) Lines() []model.CartLine {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.CartLine(nil), v.lines...)
}

func (v *CartView) Quantity(productID string) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexLocked(productID); i >= 0 {
		return v.lines[i].Quantity, true
	}
	return 0, false
}

// Subtotal sums price times quantity. Shipping is free so it is also the total.
func (v *CartView) Subtotal() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	var sum float64
	for _, l := range v.lines {
		sum += l.Price * float64(l.Quantity)
	}
	return sum
}

func (v *CartView) indexLocked(productID string) int {
	for i, l := range v.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (v *CartView) Increase(ctx context.Context, productID string) error {
	qty, ok := v.Quantity(productID)
	if !ok {
		return ErrUnknownLine
	}
	if qty >= MaxQuantity {
		v.deps.failure(MsgMaxQuantity)
		return ErrAtMaximum
	}
	return v.adjust(ctx, productID, 1)
}

// Decrease from one is a removal and needs confirmation
func (v *CartView) Decrease(ctx context.Context, productID string) error {
	qty, ok := v.Quantity(productID)
	if !ok {
		return ErrUnknownLine
	}
	if qty <= 1 && !v.deps.confirm(ctx, v.removePrompt(productID)) {
		return ErrDeclined
	}
	return v.adjust(ctx, productID, -1)
}

// Remove deletes the line after confirmation
func (v *CartView) Remove(ctx context.Context, productID string) error {
	if _, ok := v.Quantity(productID); !ok {
		return ErrUnknownLine
	}
	if !v.deps.confirm(ctx, v.removePrompt(productID)) {
		return ErrDeclined
	}
	return v.mutate(ctx, productID, func(l *model.CartLine) { l.Quantity = 0 },
		func(reqCtx context.Context, userID string) error {
			_, err := v.deps.API.UpdateCart(reqCtx, userID, productID, 0)
			return err
		})
}

func (v *CartView) adjust(ctx context.Context, productID string, delta int) error {
	return v.mutate(ctx, productID, func(l *model.CartLine) { l.Quantity += delta },
		func(reqCtx context.Context, userID string) error {
			_, err := v.deps.API.AdjustCart(reqCtx, userID, productID, delta)
			return err
		})
}

// mutate applies change locally, sends the request, then reconciles. On
// failure the previous line is restored before the refetch so a failed
// refetch still shows the last known state.
func (v *CartView) mutate(ctx context.Context, productID string, change func(*model.CartLine), send func(context.Context, string) error) error {
	userID, ok := v.deps.userID()
	if !ok {
		v.deps.failure(MsgLoginRequired)
		return ErrNoSession
	}

	v.mu.Lock()
	if v.inflight[productID] {
		v.mu.Unlock()
		return ErrBusy
	}
	i := v.indexLocked(productID)
	if i < 0 {
		v.mu.Unlock()
		return ErrUnknownLine
	}
	v.inflight[productID] = true
	before := v.lines[i]
	after := before
	change(&after)
	if after.Quantity <= 0 {
		v.lines = append(v.lines[:i:i], v.lines[i+1:]...)
	} else {
		v.lines[i] = after
	}
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		delete(v.inflight, productID)
		v.mu.Unlock()
	}()

	reqCtx, cancel := context.WithTimeout(ctx, v.deps.timeout())
	err := send(reqCtx, userID)
	cancel()

	if err != nil {
		v.restore(before)
		v.deps.failure(MsgCartFailed)
	} else if after.Quantity <= 0 {
		v.deps.success(fmt.Sprintf("Item removed from cart: %s", before.CommonName))
	} else {
		v.deps.success(fmt.Sprintf("Item updated in cart: %s (%d)", before.CommonName, after.Quantity))
	}

	if rerr := v.Refresh(ctx); rerr != nil && err == nil {
		return rerr
	}
	return err
}

func (v *CartView) restore(line model.CartLine) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexLocked(line.ProductID); i >= 0 {
		v.lines[i] = line
		return
	}
	v.lines = append(v.lines, line)
}

func (v *CartView) removePrompt(productID string) string {
	name := productID
	v.mu.Lock()
	if i := v.indexLocked(productID); i >= 0 && v.lines[i].CommonName != "" {
		name = v.lines[i].CommonName
	}
	v.mu.Unlock()
	return fmt.Sprintf("Remove %s from your cart?", name)
}
