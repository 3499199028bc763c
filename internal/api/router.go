package api

import (
	"net/http"

	"github.com/example/plant-shop/internal/api/middleware"
	"github.com/example/plant-shop/internal/auth"
	"github.com/example/plant-shop/internal/model"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
	CORSOrigins  []string // empty allows any origin without credentials
	Logger       *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	handlers := cfg.Handlers
	authHandlers := cfg.AuthHandlers
	mux := http.NewServeMux()
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	// Cart
	mux.HandleFunc("POST /api/update_cart", handlers.UpdateCart)
	mux.HandleFunc("POST /api/adjust_cart", handlers.AdjustCart)
	mux.HandleFunc("POST /api/get_cart_item", handlers.GetCartItem)
	mux.HandleFunc("GET /api/get_cart_items/{userId}", handlers.GetCartItems)

	// Favorites
	mux.HandleFunc("POST /api/toggle_favorite", handlers.ToggleFavorite)
	mux.HandleFunc("GET /api/check_favourites/{userId}/{productId}", handlers.CheckFavorite)
	mux.HandleFunc("GET /api/user/{id}/favorites", handlers.GetFavorites)

	// Catalog
	mux.HandleFunc("GET /api/plants_info", handlers.ListPlants)
	mux.HandleFunc("GET /api/plants_info/{id}", handlers.GetPlant)
	mux.HandleFunc("POST /api/plants_info/search", handlers.SearchPlants)
	mux.Handle("POST /api/plants_info", adminOnly(http.HandlerFunc(handlers.CreatePlant)))
	mux.Handle("PUT /api/plants_info/{id}", adminOnly(http.HandlerFunc(handlers.UpdatePlant)))
	mux.Handle("DELETE /api/plants_info/{id}", adminOnly(http.HandlerFunc(handlers.DeletePlant)))
	mux.HandleFunc("GET /api/banner_images", handlers.ListBanners)

	// Users
	mux.HandleFunc("POST /api/register", authHandlers.Register)
	mux.HandleFunc("POST /api/login", authHandlers.Login)
	mux.HandleFunc("POST /api/logout", authHandlers.Logout)
	mux.HandleFunc("GET /api/user/{id}", authHandlers.GetUser)
	mux.HandleFunc("PUT /api/user/{id}", authHandlers.UpdateUser)

	mux.HandleFunc("GET /api/test", func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusOK, "Test route is working!")
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: len(cfg.CORSOrigins) > 0,
		MaxAge:           300,
	})

	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}

	var h http.Handler = mux
	h = middleware.Authenticate(cfg.JWTService)(h)
	h = corsHandler(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recoverer(logger)(h)
	return h
}
