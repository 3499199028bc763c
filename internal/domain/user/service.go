package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/example/plant-shop/internal/auth"
	"github.com/example/plant-shop/internal/domain/domainerr"
	"github.com/example/plant-shop/internal/infrastructure/store"
	"github.com/example/plant-shop/internal/model"
)

var (
	ErrUserNotFound       = domainerr.NotFound("User not found")
	ErrUserExists         = domainerr.Validation("User already exists")
	ErrEmailTaken         = domainerr.Validation("Email is already in use")
	ErrInvalidEmail       = domainerr.Validation("A valid email is required")
	ErrInvalidPassword    = domainerr.Validation("Password must be between 6 and 72 characters")
	ErrInvalidCredentials = domainerr.Validation("Invalid credentials")
)

// Session is the result of a successful login
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service handles user domain operations
type Service struct {
	users  store.UserStore
	tokens *auth.JWTService
	admins map[string]bool
}

// NewService creates a new user service. Accounts registered with one of
// adminEmails get the admin role.
func NewService(users store.UserStore, tokens *auth.JWTService, adminEmails []string) *Service {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = true
	}
	return &Service{users: users, tokens: tokens, admins: admins}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Register creates a new user with default profile values
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordLength) {
		return nil, ErrInvalidPassword
	}
	if err != nil {
		return nil, err
	}

	role := model.RoleCustomer
	if s.admins[email] {
		role = model.RoleAdmin
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		Phone:        model.DefaultPhone,
		Address:      model.DefaultAddress,
		Avatar:       model.DefaultAvatar,
		Role:         role,
		Favorites:    []string{},
		CreatedAt:    time.Now(),
	}
	err = s.users.CreateUser(ctx, u)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		Email:     u.Email,
		UserID:    u.ID,
		Role:      u.Role,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UpdateProfile edits the profile fields present in update
func (s *Service) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if !validEmail(email) {
			return nil, ErrInvalidEmail
		}
		update.Email = &email
	}

	u, err := s.users.UpdateProfile(ctx, id, update)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, store.ErrDuplicate):
		return nil, ErrEmailTaken
	}
	return u, err
}
