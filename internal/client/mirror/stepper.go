package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/plant-shop/internal/client"
)

// Stepper is the quantity control on a product page. Every change sends the
// absolute quantity with update_cart.
type Stepper struct {
	deps        Deps
	productID   string
	productName string
	value       *Value[int]
}

func NewStepper(deps Deps, productID, productName string) *Stepper {
	return &Stepper{
		deps:        deps,
		productID:   productID,
		productName: productName,
		value:       NewValue(0, deps.timeout()),
	}
}

// Load seeds the control from the server. No session or no cart line reads
// as zero.
func (s *Stepper) Load(ctx context.Context) error {
	userID, ok := s.deps.userID()
	if !ok {
		s.value.Seed(0)
		return nil
	}
	entry, err := s.deps.API.GetCartItem(ctx, userID, s.productID)
	if errors.Is(err, client.ErrNotFound) {
		s.value.Seed(0)
		return nil
	}
	if err != nil {
		return err
	}
	s.value.Seed(entry.Quantity)
	return nil
}

func (s *Stepper) Quantity() int { return s.value.Displayed() }

func (s *Stepper) State() State { return s.value.State() }

func (s *Stepper) Increase(ctx context.Context) error {
	return s.SetQuantity(ctx, s.value.Displayed()+1)
}

func (s *Stepper) Decrease(ctx context.Context) error {
	return s.SetQuantity(ctx, s.value.Displayed()-1)
}

// SetQuantity checks the bounds locally before any request. Going to zero
// from a positive quantity needs confirmation.
func (s *Stepper) SetQuantity(ctx context.Context, n int) error {
	current := s.value.Displayed()
	switch {
	case n > MaxQuantity:
		s.deps.failure(MsgMaxQuantity)
		if current >= MaxQuantity {
			return ErrAtMaximum
		}
		return ErrOutOfRange
	case n < MinQuantity:
		s.deps.failure(MsgMinQuantity)
		if current <= MinQuantity {
			return ErrAtMinimum
		}
		return ErrOutOfRange
	case n == current:
		return nil
	}

	userID, ok := s.deps.userID()
	if !ok {
		s.deps.failure(MsgLoginRequired)
		return ErrNoSession
	}
	if n == 0 && !s.deps.confirm(ctx, fmt.Sprintf("Remove %s from your cart?", s.productName)) {
		return ErrDeclined
	}

	ticket, reqCtx := s.value.Begin(ctx, n)
	res, err := s.deps.API.UpdateCart(reqCtx, userID, s.productID, n)
	if err != nil {
		if !s.value.Rollback(ticket) {
			return ErrSuperseded
		}
		s.deps.failure(MsgCartFailed)
		return err
	}

	confirmed := 0
	if res.Entry != nil {
		confirmed = res.Entry.Quantity
	}
	if !s.value.Commit(ticket, confirmed) {
		return ErrSuperseded
	}
	if confirmed == 0 {
		s.deps.success(fmt.Sprintf("Item removed from cart: %s", s.productName))
	} else {
		s.deps.success(fmt.Sprintf("Item updated in cart: %s (%d)", s.productName, confirmed))
	}
	return nil
}
