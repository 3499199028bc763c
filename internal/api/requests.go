package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/example/plant-shop/internal/domain/cart"
	"github.com/example/plant-shop/internal/domain/domainerr"
	"github.com/example/plant-shop/internal/domain/favorite"
)

const maxBodyBytes = 1 << 20

// Request bodies come from a dynamically typed client, so fields are decoded
// loosely and checked one by one.
type cartRequest struct {
	UserID    any `json:"userId"`
	ProductID any `json:"product_id"`
	CartCount any `json:"cartCount"`
	Delta     any `json:"delta"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errBadBody
	}
	return nil
}

// stringField returns v when it is a non-blank string
func stringField(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// intField returns v when it is a JSON number with no fractional part
func intField(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1e6 {
		return 0, false
	}
	return int(f), true
}

func (req cartRequest) ids(invalidUser, invalidProduct *domainerr.Error) (string, string, error) {
	userID, ok := stringField(req.UserID)
	if !ok {
		return "", "", invalidUser
	}
	productID, ok := stringField(req.ProductID)
	if !ok {
		return "", "", invalidProduct
	}
	return userID, productID, nil
}

func (req cartRequest) cartIDs() (string, string, error) {
	return req.ids(cart.ErrInvalidUser, cart.ErrInvalidProduct)
}

func (req cartRequest) favoriteIDs() (string, string, error) {
	return req.ids(favorite.ErrInvalidUser, favorite.ErrInvalidProduct)
}

func (req cartRequest) cartCount() (int, error) {
	n, ok := intField(req.CartCount)
	if !ok || n < 0 {
		return 0, cart.ErrInvalidQuantity
	}
	return n, nil
}

func (req cartRequest) delta() (int, error) {
	n, ok := intField(req.Delta)
	if !ok || n == 0 {
		return 0, cart.ErrInvalidDelta
	}
	return n, nil
}
