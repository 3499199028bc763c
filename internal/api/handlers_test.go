package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/example/plant-shop/internal/auth"
	"github.com/example/plant-shop/internal/command"
	"github.com/example/plant-shop/internal/domain/cart"
	"github.com/example/plant-shop/internal/domain/catalog"
	"github.com/example/plant-shop/internal/domain/favorite"
	"github.com/example/plant-shop/internal/domain/user"
	"github.com/example/plant-shop/internal/infrastructure/store/mocks"
	"github.com/example/plant-shop/internal/model"
	"github.com/example/plant-shop/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	handler http.Handler
	store   *mocks.MemoryStore
	pub     *mocks.MockPublisher
	jwt     *auth.JWTService
}

func newTestServer(requireAuth bool) *testServer {
	st := mocks.NewMemoryStore()
	pub := mocks.NewMockPublisher()
	jwtService := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Hour)

	ledger := cart.NewLedger(st, st, pub)
	favorites := favorite.NewSet(st, st, pub)
	catalogSvc := catalog.NewService(st, pub)
	users := user.NewService(st, jwtService, []string{"admin@example.com"})

	handlers := NewHandlers(
		command.NewHandler(ledger, favorites, catalogSvc, users),
		query.NewHandler(ledger, favorites, catalogSvc, users),
		requireAuth,
	)
	router := NewRouter(RouterConfig{
		Handlers:     handlers,
		AuthHandlers: NewAuthHandlers(handlers, users),
		JWTService:   jwtService,
		Logger:       zap.NewNop(),
	})
	return &testServer{handler: router, store: st, pub: pub, jwt: jwtService}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, _, err := s.jwt.Issue(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, rec)["message"].(string)
}

// ============================================
// Cart Tests
// ============================================

func TestCart_EmptyThenAdded(t *testing.T) {
	s := newTestServer(false)
	p1 := s.store.AddPlant(model.Plant{CommonName: "Fern", Price: 12.5})

	rec := s.do(t, http.MethodGet, "/api/get_cart_items/u1", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, cart.ErrCartEmpty.Error(), messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/api/update_cart", map[string]any{"userId": "u1", "product_id": p1, "cartCount": 3}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[command.CartResult](t, rec)
	assert.Equal(t, command.MsgCartUpdated, res.Message)
	require.NotNil(t, res.Entry)
	assert.Equal(t, 3, res.Entry.Quantity)

	rec = s.do(t, http.MethodGet, "/api/get_cart_items/u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := decodeBody[[]model.CartLine](t, rec)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 12.5, lines[0].Price)
}

func TestCart_ZeroRemovesEntry(t *testing.T) {
	s := newTestServer(false)
	p1 := s.store.AddPlant(model.Plant{CommonName: "Fern"})
	rec := s.do(t, http.MethodPost, "/api/update_cart", map[string]any{"userId": "u1", "product_id": p1, "cartCount": 3}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/update_cart", map[string]any{"userId": "u1", "product_id": p1, "cartCount": 0}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, command.MsgCartRemoved, messageOf(t, rec))
	assert.NotContains(t, rec.Body.String(), "cartItem")

	rec = s.do(t, http.MethodGet, "/api/get_cart_items/u1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/update_cart", map[string]any{"userId": "u1", "product_id": p1, "cartCount": 0}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_UnknownProductCreatesNothing(t *testing.T) {
	s := newTestServer(false)

	rec := s.do(t, http.MethodPost, "/api/update_cart", map[string]any{"userId": "u1", "product_id": "ghost", "cartCount": 2}, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, cart.ErrPlantNotFound.Error(), messageOf(t, rec))
	assert.Equal(t, 0, s.store.CartSize())
}

func TestCart_OverwriteNotAdditive(t *testing.T) {
	s := newTestServer(false)
	p1 := s.store.AddPlant(model.Plant{CommonName: "Fern"})

	for _, n := range []int{5, 2} {
		rec := s.do(t, http.MethodPost, "/api/update_cart", map[string]any{"userId": "u1", "product_id": p1, "cartCount": n}, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/api/get_cart_item", map[string]any{"userId": "u1", "product_id": p1}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[model.CartEntry](t, rec).Quantity)
}

func TestCart_RequestValidation(t *testing.T) {
	s := newTestServer(false)
	p1 := s.store.AddPlant(model.Plant{CommonName: "Fern"})

	tests := []struct {
		name    string
		path    string
		body    any
		message string
	}{
		{"malformed json", "/api/update_cart", `{"userId":`, "Invalid request body"},
		{"numeric user id", "/api/update_cart", map[string]any{"userId": 5, "product_id": p1, "cartCount": 1}, cart.ErrInvalidUser.Error()},
		{"blank user id", "/api/update_cart", map[string]any{"userId": "  ", "product_id": p1, "cartCount": 1}, cart.ErrInvalidUser.Error()},
		{"missing product", "/api/update_cart", map[string]any{"userId": "u1", "cartCount": 1}, cart.ErrInvalidProduct.Error()},
		{"string count", "/api/update_cart", map[string]any{"userId": "u1", "product_id": p1, "cartCount": "3"}, cart.ErrInvalidQuantity.Error()},
		{"fractional count", "/api/update_cart", map[string]any{"userId": "u1", "product_id": p1, "cartCount": 1.5}, cart.ErrInvalidQuantity.Error()},
		{"negative count", "/api/update_cart", map[string]any{"userId": "u1", "product_id": p1, "cartCount": -1}, cart.ErrInvalidQuantity.Error()},
		{"count above max", "/api/update_cart", map[string]any{"userId": "u1", "product_id": p1, "cartCount": 21}, cart.ErrInvalidQuantity.Error()},
		{"zero delta", "/api/adjust_cart", map[string]any{"userId": "u1", "product_id": p1, "delta": 0}, cart.ErrInvalidDelta.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, messageOf(t, rec))
		})
	}
	assert.Equal(t, 0, s.store.CartSize())
}

func TestCart_AdjustBounds(t *testing.T) {
	s := newTestServer(false)
	p1 := s.store.AddPlant(model.Plant{CommonName: "Fern"})

	rec := s.do(t, http.MethodPost, "/api/adjust_cart", map[string]any{"userId": "u1", "product_id": p1, "delta": -1}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/adjust_cart", map[string]any{"userId": "u1", "product_id": p1, "delta": 20}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/adjust_cart", map[string]any{"userId": "u1", "product_id": p1, "delta": 1}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, cart.ErrQuantityOutOfRange.Error(), messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/api/adjust_cart", map[string]any{"userId": "u1", "product_id": p1, "delta": -20}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, command.MsgCartRemoved, messageOf(t, rec))
	assert.Equal(t, 0, s.store.CartSize())
}

func TestCart_ConcurrentAdjustsNeverExceedMax(t *testing.T) {
	s := newTestServer(false)
	p1 := s.store.AddPlant(model.Plant{CommonName: "Fern"})

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.do(t, http.MethodPost, "/api/adjust_cart", map[string]any{"userId": "u1", "product_id": p1, "delta": 1}, "")
		}()
	}
	wg.Wait()

	rec := s.do(t, http.MethodPost, "/api/get_cart_item", map[string]any{"userId": "u1", "product_id": p1}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cart.MaxQuantity, decodeBody[model.CartEntry](t, rec).Quantity)
}

// ============================================
// Favorite Tests
// ============================================

func TestFavorites_ToggleTwice(t *testing.T) {
	s := newTestServer(false)
	u1 := s.store.AddUser(model.User{Email: "u1@example.com"})

	rec := s.do(t, http.MethodPost, "/api/toggle_favorite", map[string]any{"userId": u1, "product_id": "p9"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, command.FavoriteResult{Message: command.MsgFavoriteAdded, IsFavorite: true}, decodeBody[command.FavoriteResult](t, rec))

	rec = s.do(t, http.MethodGet, "/api/check_favourites/"+u1+"/p9", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"isFavorite": true}, decodeBody[map[string]bool](t, rec))

	rec = s.do(t, http.MethodPost, "/api/toggle_favorite", map[string]any{"userId": u1, "product_id": "p9"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[command.FavoriteResult](t, rec).IsFavorite)

	rec = s.do(t, http.MethodGet, "/api/check_favourites/"+u1+"/p9", nil, "")
	assert.Equal(t, map[string]bool{"isFavorite": false}, decodeBody[map[string]bool](t, rec))
}

func TestFavorites_ListJoinsCatalog(t *testing.T) {
	s := newTestServer(false)
	u1 := s.store.AddUser(model.User{Email: "u1@example.com"})
	pid := s.store.AddPlant(model.Plant{CommonName: "Monstera"})
	for _, p := range []string{pid, "dangling"} {
		rec := s.do(t, http.MethodPost, "/api/toggle_favorite", map[string]any{"userId": u1, "product_id": p}, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/user/"+u1+"/favorites", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	plants := decodeBody[[]model.Plant](t, rec)
	require.Len(t, plants, 1)
	assert.Equal(t, "Monstera", plants[0].CommonName)
}

func TestFavorites_UnknownUser(t *testing.T) {
	s := newTestServer(false)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/user/ghost/favorites"},
		{http.MethodGet, "/api/check_favourites/ghost/p1"},
	}
	for _, p := range paths {
		rec := s.do(t, p.method, p.path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, p.path)
	}

	rec := s.do(t, http.MethodPost, "/api/toggle_favorite", map[string]any{"userId": "ghost", "product_id": "p1"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, favorite.ErrUserNotFound.Error(), messageOf(t, rec))
}

func TestFavorites_ConcurrentTogglesNoDuplicates(t *testing.T) {
	s := newTestServer(false)
	u1 := s.store.AddUser(model.User{Email: "u1@example.com"})

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.do(t, http.MethodPost, "/api/toggle_favorite", map[string]any{"userId": u1, "product_id": "p1"}, "")
		}()
	}
	wg.Wait()

	u, err := s.store.GetUser(t.Context(), u1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, u.Favorites)
}

// ============================================
// Catalog Tests
// ============================================

func TestPlants_ReadRoutes(t *testing.T) {
	s := newTestServer(false)
	pid := s.store.AddPlant(model.Plant{CommonName: "Snake Plant", ScientificName: "Dracaena trifasciata"})
	s.store.AddBanner(model.Banner{ID: "b1", FileName: "spring.png", FilePath: "/banners/spring.png"})

	rec := s.do(t, http.MethodGet, "/api/plants_info/"+pid, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pid, decodeBody[model.Plant](t, rec).ID)

	rec = s.do(t, http.MethodGet, "/api/plants_info/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/plants_info", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]model.Plant](t, rec), 1)

	rec = s.do(t, http.MethodPost, "/api/plants_info/search", map[string]any{"searchInput": "dracaena"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]model.Plant](t, rec), 1)

	rec = s.do(t, http.MethodPost, "/api/plants_info/search", map[string]any{"searchInput": "cactus"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/plants_info/search", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, catalog.ErrEmptySearch.Error(), messageOf(t, rec))

	rec = s.do(t, http.MethodGet, "/api/banner_images", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "spring.png", decodeBody[[]model.Banner](t, rec)[0].FileName)
}

func TestPlants_WritesRequireAdmin(t *testing.T) {
	s := newTestServer(false)
	body := map[string]any{"commonName": "Aloe", "scientificName": "Aloe vera", "price": 8}

	rec := s.do(t, http.MethodPost, "/api/plants_info", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/plants_info", body, s.token(t, "u1", model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := s.token(t, "root", model.RoleAdmin)
	rec = s.do(t, http.MethodPost, "/api/plants_info", body, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[struct {
		Message string      `json:"message"`
		Data    model.Plant `json:"data"`
	}](t, rec)
	assert.Equal(t, command.MsgPlantAdded, created.Message)
	require.NotEmpty(t, created.Data.ID)

	rec = s.do(t, http.MethodPut, "/api/plants_info/"+created.Data.ID, map[string]any{"price": 9.5}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 9.5, decodeBody[model.Plant](t, rec).Price)

	rec = s.do(t, http.MethodDelete, "/api/plants_info/"+created.Data.ID, nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, command.MsgPlantDeleted, messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/api/plants_info", map[string]any{"commonName": "Aloe"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, catalog.ErrInvalidName.Error(), messageOf(t, rec))
}

// ============================================
// User Tests
// ============================================

func TestUsers_RegisterLoginProfile(t *testing.T) {
	s := newTestServer(false)
	creds := map[string]any{"email": "Fern@Example.com", "password": "secret1"}

	rec := s.do(t, http.MethodPost, "/api/register", creds, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, command.MsgUserRegistered, messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/api/register", creds, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, user.ErrUserExists.Error(), messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/api/login", map[string]any{"email": "fern@example.com", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, user.ErrInvalidCredentials.Error(), messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/api/login", creds, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeBody[loginResponse](t, rec)
	assert.Equal(t, "Login successful", login.Message)
	assert.Equal(t, "fern@example.com", login.Email)
	assert.NotEmpty(t, login.Token)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "access_token=")

	rec = s.do(t, http.MethodGet, "/api/user/"+login.UserID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Equal(t, model.DefaultPhone, decodeBody[model.User](t, rec).Phone)

	rec = s.do(t, http.MethodPut, "/api/user/"+login.UserID, map[string]any{"phone": "555-0100"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "555-0100", decodeBody[model.User](t, rec).Phone)

	rec = s.do(t, http.MethodGet, "/api/user/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, user.ErrUserNotFound.Error(), messageOf(t, rec))
}

func TestUsers_AdminEmailGetsAdminRole(t *testing.T) {
	s := newTestServer(false)
	creds := map[string]any{"email": "admin@example.com", "password": "secret1"}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/register", creds, "").Code)

	rec := s.do(t, http.MethodPost, "/api/login", creds, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleAdmin, decodeBody[loginResponse](t, rec).Role)
}

// ============================================
// Auth enforcement / misc
// ============================================

func TestRequireAuth_OwnershipChecks(t *testing.T) {
	s := newTestServer(true)
	p1 := s.store.AddPlant(model.Plant{CommonName: "Fern"})
	body := map[string]any{"userId": "u1", "product_id": p1, "cartCount": 1}

	rec := s.do(t, http.MethodPost, "/api/update_cart", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/update_cart", body, s.token(t, "u2", model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/update_cart", body, s.token(t, "u1", model.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/get_cart_items/u1", nil, s.token(t, "root", model.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/plants_info/"+p1, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_AnonymousRejectedBeforeValidation(t *testing.T) {
	s := newTestServer(true)

	tests := []struct {
		path string
		body any
	}{
		{"/api/update_cart", map[string]any{"userId": "u1", "product_id": "p1", "cartCount": -1}},
		{"/api/update_cart", map[string]any{"cartCount": 1}},
		{"/api/adjust_cart", map[string]any{"userId": "u1", "product_id": "p1", "delta": "lots"}},
		{"/api/get_cart_item", map[string]any{"userId": 7}},
		{"/api/toggle_favorite", map[string]any{}},
		{"/api/update_cart", "{not json"},
	}
	for _, tt := range tests {
		rec := s.do(t, http.MethodPost, tt.path, tt.body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %v", tt.path, tt.body)
		assert.Equal(t, "User ID not found. Please log in.", messageOf(t, rec))
	}

	rec := s.do(t, http.MethodPost, "/api/update_cart",
		map[string]any{"userId": "u1", "product_id": "p1", "cartCount": -1},
		s.token(t, "u1", model.RoleCustomer))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailureIsServerError(t *testing.T) {
	s := newTestServer(false)
	s.store.Err = errors.New("connection reset")

	rec := s.do(t, http.MethodGet, "/api/plants_info", nil, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", messageOf(t, rec))
}

func TestMiscRoutes(t *testing.T) {
	s := newTestServer(false)

	rec := s.do(t, http.MethodGet, "/api/test", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test route is working!", messageOf(t, rec))

	rec = s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/update_cart", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
