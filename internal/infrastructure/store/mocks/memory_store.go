package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/plant-shop/internal/infrastructure/store"
	"github.com/example/plant-shop/internal/model"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of store.Store for testing
type MemoryStore struct {
	mu      sync.RWMutex
	plants  map[string]model.Plant
	carts   map[cartKey]model.CartEntry
	users   map[string]*model.User
	banners []model.Banner

	// For tracking calls in tests
	UpsertCalls []UpsertCall
	AdjustCalls []AdjustCall
	DeleteCalls []DeleteCall
	ToggleCalls []ToggleCall

	// Err, when set, is returned by every operation
	Err error
}

type cartKey struct {
	userID    string
	productID string
}

// UpsertCall records parameters passed to UpsertCartEntry
type UpsertCall struct {
	UserID     string
	ProductID  string
	Quantity   int
	CommonName string
}

// AdjustCall records parameters passed to AdjustCartEntry
type AdjustCall struct {
	UserID    string
	ProductID string
	Delta     int
}

// DeleteCall records parameters passed to DeleteCartEntry
type DeleteCall struct {
	UserID    string
	ProductID string
}

// ToggleCall records parameters passed to ToggleFavorite
type ToggleCall struct {
	UserID    string
	ProductID string
}

var _ store.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plants: make(map[string]model.Plant),
		carts:  make(map[cartKey]model.CartEntry),
		users:  make(map[string]*model.User),
	}
}

// AddPlant seeds a plant and returns its id, generating one when empty
func (m *MemoryStore) AddPlant(p model.Plant) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	m.plants[p.ID] = p
	return p.ID
}

// AddUser seeds a user and returns its id, generating one when empty
func (m *MemoryStore) AddUser(u model.User) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	m.users[u.ID] = &u
	return u.ID
}

// RemovePlantOnly deletes a plant without touching carts or favorites,
// leaving dangling references behind.
func (m *MemoryStore) RemovePlantOnly(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plants, id)
}

// CartSize returns the number of stored cart entries across all users
func (m *MemoryStore) CartSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.carts)
}

func (m *MemoryStore) Close(context.Context) error { return nil }

// Plants

func (m *MemoryStore) ValidID(id string) bool {
	return id != "" && !strings.ContainsAny(id, " \t\r\n/")
}

func (m *MemoryStore) GetPlant(_ context.Context, id string) (*model.Plant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.plants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) GetPlantsByIDs(_ context.Context, ids []string) ([]model.Plant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	plants := make([]model.Plant, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := m.plants[id]; ok {
			plants = append(plants, p)
		}
	}
	return plants, nil
}

func (m *MemoryStore) ListPlants(context.Context) ([]model.Plant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	plants := make([]model.Plant, 0, len(m.plants))
	for _, p := range m.plants {
		plants = append(plants, p)
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i].CommonName < plants[j].CommonName })
	return plants, nil
}

func (m *MemoryStore) SearchPlants(ctx context.Context, term string) ([]model.Plant, error) {
	all, err := m.ListPlants(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	var matches []model.Plant
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.CommonName), term) ||
			strings.Contains(strings.ToLower(p.ScientificName), term) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (m *MemoryStore) CreatePlant(_ context.Context, plant *model.Plant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if plant.ID == "" {
		plant.ID = uuid.New().String()
	}
	m.plants[plant.ID] = *plant
	return nil
}

func (m *MemoryStore) UpdatePlant(_ context.Context, id string, patch model.PlantPatch) (*model.Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.plants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&p)
	m.plants[id] = p
	return &p, nil
}

func (m *MemoryStore) DeletePlant(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.plants[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.plants, id)
	return nil
}

// AddBanner seeds a banner image
func (m *MemoryStore) AddBanner(b model.Banner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banners = append(m.banners, b)
}

func (m *MemoryStore) ListBanners(context.Context) ([]model.Banner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]model.Banner{}, m.banners...), nil
}

// Cart

func (m *MemoryStore) UpsertCartEntry(_ context.Context, userID, productID string, quantity int, commonName string) (*model.CartEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls = append(m.UpsertCalls, UpsertCall{
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
		CommonName: commonName,
	})
	if m.Err != nil {
		return nil, m.Err
	}

	now := time.Now()
	key := cartKey{userID, productID}
	entry, ok := m.carts[key]
	if !ok {
		entry = model.CartEntry{UserID: userID, ProductID: productID, CreatedAt: now}
	}
	entry.Quantity = quantity
	entry.CommonName = commonName
	entry.UpdatedAt = now
	m.carts[key] = entry
	return &entry, nil
}

func (m *MemoryStore) AdjustCartEntry(_ context.Context, userID, productID string, delta, max int, commonName string) (*model.CartEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AdjustCalls = append(m.AdjustCalls, AdjustCall{UserID: userID, ProductID: productID, Delta: delta})
	if m.Err != nil {
		return nil, m.Err
	}

	now := time.Now()
	key := cartKey{userID, productID}
	entry, ok := m.carts[key]
	if !ok {
		if delta < 0 {
			return nil, store.ErrNotFound
		}
		entry = model.CartEntry{UserID: userID, ProductID: productID, CreatedAt: now}
	}

	next := entry.Quantity + delta
	if next < 0 || next > max {
		return nil, store.ErrOutOfRange
	}
	entry.Quantity = next
	entry.UpdatedAt = now
	if commonName != "" {
		entry.CommonName = commonName
	}
	if next == 0 {
		delete(m.carts, key)
	} else {
		m.carts[key] = entry
	}
	return &entry, nil
}

func (m *MemoryStore) DeleteCartEntry(_ context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, DeleteCall{UserID: userID, ProductID: productID})
	if m.Err != nil {
		return m.Err
	}

	key := cartKey{userID, productID}
	if _, ok := m.carts[key]; !ok {
		return store.ErrNotFound
	}
	delete(m.carts, key)
	return nil
}

func (m *MemoryStore) GetCartEntry(_ context.Context, userID, productID string) (*model.CartEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	entry, ok := m.carts[cartKey{userID, productID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &entry, nil
}

func (m *MemoryStore) ListCartEntries(_ context.Context, userID string) ([]model.CartEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var entries []model.CartEntry
	for key, entry := range m.carts {
		if key.userID == userID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}

func (m *MemoryStore) CartProductIDs(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	seen := make(map[string]bool)
	var ids []string
	for key := range m.carts {
		if !seen[key.productID] {
			seen[key.productID] = true
			ids = append(ids, key.productID)
		}
	}
	return ids, nil
}

func (m *MemoryStore) DeleteCartEntriesByProduct(_ context.Context, productID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for key := range m.carts {
		if key.productID == productID {
			delete(m.carts, key)
			n++
		}
	}
	return n, nil
}

// Users

func (m *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemoryStore) UpdateProfile(_ context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.Email != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Email == *update.Email {
				return nil, store.ErrDuplicate
			}
		}
		u.Email = *update.Email
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Address != nil {
		u.Address = *update.Address
	}
	if update.Avatar != nil {
		u.Avatar = *update.Avatar
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) ToggleFavorite(_ context.Context, userID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ToggleCalls = append(m.ToggleCalls, ToggleCall{UserID: userID, ProductID: productID})
	if m.Err != nil {
		return false, m.Err
	}

	u, ok := m.users[userID]
	if !ok {
		return false, store.ErrNotFound
	}
	for i, id := range u.Favorites {
		if id == productID {
			u.Favorites = append(u.Favorites[:i], u.Favorites[i+1:]...)
			return false, nil
		}
	}
	u.Favorites = append(u.Favorites, productID)
	return true, nil
}

func (m *MemoryStore) FavoriteIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]string(nil), u.Favorites...), nil
}

func (m *MemoryStore) FavoriteProductIDs(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, u := range m.users {
		for _, id := range u.Favorites {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (m *MemoryStore) RemoveFavoriteEverywhere(_ context.Context, productID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for _, u := range m.users {
		kept := u.Favorites[:0]
		for _, id := range u.Favorites {
			if id != productID {
				kept = append(kept, id)
			}
		}
		if len(kept) != len(u.Favorites) {
			n++
		}
		u.Favorites = kept
	}
	return n, nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Favorites = append([]string(nil), u.Favorites...)
	return &c
}
