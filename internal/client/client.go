// Package client is a typed HTTP client for the plant shop API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/plant-shop/internal/model"
)

const DefaultTimeout = 12 * time.Second

// ErrNotFound matches any 404 StatusError via errors.Is
var ErrNotFound = errors.New("not found")

// StatusError is returned for every non-2xx response
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("plant-shop api: status %d", e.Code)
	}
	return fmt.Sprintf("plant-shop api: status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

type CartResult struct {
	Message string           `json:"message"`
	Entry   *model.CartEntry `json:"cartItem,omitempty"`
}

type FavoriteResult struct {
	Message    string `json:"message"`
	IsFavorite bool   `json:"isFavorite"`
}

type LoginResult struct {
	Token   string `json:"token"`
	Email   string `json:"email"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	token   string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every call; zero or negative disables the bound
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken sends the JWT as a bearer token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after Login
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		return &StatusError{Code: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type cartBody struct {
	UserID    string `json:"userId"`
	ProductID string `json:"product_id"`
	CartCount *int   `json:"cartCount,omitempty"`
	Delta     *int   `json:"delta,omitempty"`
}

// Cart

func (c *Client) GetCartItem(ctx context.Context, userID, productID string) (*model.CartEntry, error) {
	var entry model.CartEntry
	if err := c.do(ctx, http.MethodPost, "/api/get_cart_item", cartBody{UserID: userID, ProductID: productID}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) GetCartItems(ctx context.Context, userID string) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := c.do(ctx, http.MethodGet, "/api/get_cart_items/"+url.PathEscape(userID), nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateCart sets an absolute quantity; zero removes the line
func (c *Client) UpdateCart(ctx context.Context, userID, productID string, count int) (*CartResult, error) {
	var res CartResult
	body := cartBody{UserID: userID, ProductID: productID, CartCount: &count}
	if err := c.do(ctx, http.MethodPost, "/api/update_cart", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AdjustCart applies delta atomically on the server
func (c *Client) AdjustCart(ctx context.Context, userID, productID string, delta int) (*CartResult, error) {
	var res CartResult
	body := cartBody{UserID: userID, ProductID: productID, Delta: &delta}
	if err := c.do(ctx, http.MethodPost, "/api/adjust_cart", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Favorites

func (c *Client) ToggleFavorite(ctx context.Context, userID, productID string) (*FavoriteResult, error) {
	var res FavoriteResult
	if err := c.do(ctx, http.MethodPost, "/api/toggle_favorite", cartBody{UserID: userID, ProductID: productID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CheckFavorite(ctx context.Context, userID, productID string) (bool, error) {
	var res struct {
		IsFavorite bool `json:"isFavorite"`
	}
	path := "/api/check_favourites/" + url.PathEscape(userID) + "/" + url.PathEscape(productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return false, err
	}
	return res.IsFavorite, nil
}

func (c *Client) ListFavorites(ctx context.Context, userID string) ([]model.Plant, error) {
	var plants []model.Plant
	if err := c.do(ctx, http.MethodGet, "/api/user/"+url.PathEscape(userID)+"/favorites", nil, &plants); err != nil {
		return nil, err
	}
	return plants, nil
}

// Catalog

func (c *Client) GetPlant(ctx context.Context, id string) (*model.Plant, error) {
	var plant model.Plant
	if err := c.do(ctx, http.MethodGet, "/api/plants_info/"+url.PathEscape(id), nil, &plant); err != nil {
		return nil, err
	}
	return &plant, nil
}

func (c *Client) ListPlants(ctx context.Context) ([]model.Plant, error) {
	var plants []model.Plant
	if err := c.do(ctx, http.MethodGet, "/api/plants_info", nil, &plants); err != nil {
		return nil, err
	}
	return plants, nil
}

func (c *Client) SearchPlants(ctx context.Context, term string) ([]model.Plant, error) {
	var plants []model.Plant
	body := map[string]string{"searchInput": term}
	if err := c.do(ctx, http.MethodPost, "/api/plants_info/search", body, &plants); err != nil {
		return nil, err
	}
	return plants, nil
}

// Users

func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/register", map[string]string{"email": email, "password": password}, nil)
}

// Login authenticates and keeps the returned token for later calls
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{"email": email, "password": password}, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}
