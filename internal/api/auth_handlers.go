package api

import (
	"net/http"

	"github.com/example/plant-shop/internal/api/middleware"
	"github.com/example/plant-shop/internal/command"
	"github.com/example/plant-shop/internal/domain/user"
	"github.com/example/plant-shop/internal/model"
)

type AuthHandlers struct {
	*Handlers
	users *user.Service
}

func NewAuthHandlers(handlers *Handlers, users *user.Service) *AuthHandlers {
	return &AuthHandlers{Handlers: handlers, users: users}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Email   string `json:"email"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.cmd.Register(r.Context(), command.Register{Email: req.Email, Password: req.Password}); err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, http.StatusCreated, command.MsgUserRegistered)
}

// Login returns the token in the body for mobile clients and also sets it as
// an HttpOnly cookie for browsers.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, loginResponse{
		Token:   session.Token,
		Email:   session.Email,
		UserID:  session.UserID,
		Role:    session.Role,
		Message: "Login successful",
	})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if !h.authorize(w, r, userID) {
		return
	}

	u, err := h.query.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *AuthHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if !h.authorize(w, r, userID) {
		return
	}

	var update model.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.cmd.UpdateProfile(r.Context(), command.UpdateProfile{UserID: userID, Update: update})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}
