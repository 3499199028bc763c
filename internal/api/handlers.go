package api

import (
	"net/http"
	"strings"

	"github.com/example/plant-shop/internal/api/middleware"
	"github.com/example/plant-shop/internal/command"
	"github.com/example/plant-shop/internal/domain/catalog"
	"github.com/example/plant-shop/internal/model"
	"github.com/example/plant-shop/internal/query"
)

type Handlers struct {
	cmd         *command.Handler
	query       *query.Handler
	requireAuth bool
}

// NewHandlers wires the HTTP layer. With requireAuth set, per-user routes
// only accept a token belonging to the addressed user (or an admin).
func NewHandlers(cmd *command.Handler, q *query.Handler, requireAuth bool) *Handlers {
	return &Handlers{cmd: cmd, query: q, requireAuth: requireAuth}
}

// requireSession rejects anonymous callers before the body is read, so they
// get 401 whatever they sent.
func (h *Handlers) requireSession(w http.ResponseWriter, r *http.Request) bool {
	if !h.requireAuth {
		return true
	}
	if _, ok := middleware.ClaimsFrom(r.Context()); !ok {
		respondMessage(w, http.StatusUnauthorized, middleware.MsgLoginRequired)
		return false
	}
	return true
}

// authorize reports whether the caller may act on userID and writes the
// rejection when it may not.
func (h *Handlers) authorize(w http.ResponseWriter, r *http.Request, userID string) bool {
	if !h.requireSession(w, r) {
		return false
	}
	if !h.requireAuth {
		return true
	}
	claims, _ := middleware.ClaimsFrom(r.Context())
	if claims.UserID != userID && claims.Role != model.RoleAdmin {
		respondMessage(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}

// ============================================
// Cart
// ============================================

func (h *Handlers) UpdateCart(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, productID, err := req.cartIDs()
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := req.cartCount()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !h.authorize(w, r, userID) {
		return
	}

	res, err := h.cmd.UpdateCart(r.Context(), command.UpdateCart{UserID: userID, ProductID: productID, CartCount: count})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handlers) AdjustCart(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, productID, err := req.cartIDs()
	if err != nil {
		writeError(w, r, err)
		return
	}
	delta, err := req.delta()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !h.authorize(w, r, userID) {
		return
	}

	res, err := h.cmd.AdjustCart(r.Context(), command.AdjustCart{UserID: userID, ProductID: productID, Delta: delta})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetCartItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, productID, err := req.cartIDs()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !h.authorize(w, r, userID) {
		return
	}

	entry, err := h.query.GetCartItem(r.Context(), userID, productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (h *Handlers) GetCartItems(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if !h.authorize(w, r, userID) {
		return
	}

	lines, err := h.query.GetCartItems(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lines)
}

// ============================================
// Favorites
// ============================================

func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, productID, err := req.favoriteIDs()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !h.authorize(w, r, userID) {
		return
	}

	res, err := h.cmd.ToggleFavorite(r.Context(), command.ToggleFavorite{UserID: userID, ProductID: productID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handlers) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if !h.authorize(w, r, userID) {
		return
	}

	isFavorite, err := h.query.IsFavorite(r.Context(), userID, r.PathValue("productId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"isFavorite": isFavorite})
}

func (h *Handlers) GetFavorites(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if !h.authorize(w, r, userID) {
		return
	}

	plants, err := h.query.GetFavorites(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plants)
}

// ============================================
// Catalog
// ============================================

func (h *Handlers) ListPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := h.query.ListPlants(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plants)
}

func (h *Handlers) GetPlant(w http.ResponseWriter, r *http.Request) {
	plant, err := h.query.GetPlant(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plant)
}

func (h *Handlers) SearchPlants(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SearchInput any `json:"searchInput"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	term, ok := stringField(req.SearchInput)
	if !ok {
		writeError(w, r, catalog.ErrEmptySearch)
		return
	}

	plants, err := h.query.SearchPlants(r.Context(), strings.TrimSpace(term))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plants)
}

func (h *Handlers) CreatePlant(w http.ResponseWriter, r *http.Request) {
	var plant model.Plant
	if err := decodeJSON(w, r, &plant); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.cmd.CreatePlant(r.Context(), command.CreatePlant{Plant: plant})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message": command.MsgPlantAdded,
		"data":    created,
	})
}

func (h *Handlers) UpdatePlant(w http.ResponseWriter, r *http.Request) {
	var patch model.PlantPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.cmd.UpdatePlant(r.Context(), command.UpdatePlant{PlantID: r.PathValue("id"), Patch: patch})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeletePlant(w http.ResponseWriter, r *http.Request) {
	if err := h.cmd.DeletePlant(r.Context(), command.DeletePlant{PlantID: r.PathValue("id")}); err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, command.MsgPlantDeleted)
}

func (h *Handlers) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.query.ListBanners(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, banners)
}
