package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/groceryguru/internal/auth"
	"github.com/dukerupert/groceryguru/internal/handler"
	"github.com/dukerupert/groceryguru/internal/media"
	"github.com/dukerupert/groceryguru/internal/middleware"
	"github.com/dukerupert/groceryguru/internal/pantry"
	"github.com/dukerupert/groceryguru/internal/recipe"
	ws "github.com/dukerupert/groceryguru/internal/websocket"
)

// Options carries the tunables the server needs beyond its dependencies.
type Options struct {
	SessionTTL     time.Duration
	MaxUpload      int64
	ImportTimeout  time.Duration
	OriginPatterns []string
	AuthRateLimit  int
	AuthRatePeriod time.Duration
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	authSvc     *auth.Service
	tokens      *auth.Tokens
	authH       *handler.AuthHandler
	pantryH     *handler.PantryHandler
	recipeH     *handler.RecipeHandler
	rateLimiter *middleware.RateLimiter
	origins     []string
	logger      *slog.Logger
}

// New wires services and handlers. tokens may be nil to disable bearer auth.
func New(db *sql.DB, storage media.Storage, tokens *auth.Tokens, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	pantrySvc := pantry.NewService(db)
	authSvc := auth.NewService(db, opts.SessionTTL, pantry.SeedDefaultList)
	recipeSvc := recipe.NewService(db, storage, recipe.NewExtractor(opts.ImportTimeout), opts.MaxUpload, logger.With("component", "recipe"))

	if opts.AuthRateLimit <= 0 {
		opts.AuthRateLimit = 10
	}
	if opts.AuthRatePeriod <= 0 {
		opts.AuthRatePeriod = time.Minute
	}

	return &Server{
		db:          db,
		hub:         hub,
		authSvc:     authSvc,
		tokens:      tokens,
		authH:       handler.NewAuthHandler(authSvc, tokens, opts.SessionTTL, logger.With("component", "auth")),
		pantryH:     handler.NewPantryHandler(pantrySvc, hub, logger.With("component", "pantry")),
		recipeH:     handler.NewRecipeHandler(recipeSvc, hub, opts.MaxUpload, logger.With("component", "recipe")),
		rateLimiter: middleware.NewRateLimiter(opts.AuthRateLimit, opts.AuthRatePeriod),
		origins:     opts.OriginPatterns,
		logger:      logger,
	}
}

// Auth returns the auth service for session cleanup.
func (s *Server) Auth() *auth.Service {
	return s.authSvc
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.Handle("POST /api/register", s.rateLimited(s.authH.Register))
	outerMux.Handle("POST /api/login", s.rateLimited(s.authH.Login))
	outerMux.Handle("POST /api/tokens", s.rateLimited(s.authH.IssueToken))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	// A nil *auth.Tokens must not become a non-nil interface.
	var verifier middleware.TokenVerifier
	if s.tokens != nil {
		verifier = s.tokens
	}
	outerMux.Handle("/", middleware.RequireAuth(s.authSvc, verifier)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		writeStatus(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	writeStatus(w, http.StatusOK, "ok")
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Lists and list items
	mux.HandleFunc("GET /api/lists", s.pantryH.Lists)
	mux.HandleFunc("GET /api/lists/{name}/items", s.pantryH.ListItems)
	mux.HandleFunc("POST /api/list-items", s.pantryH.CreateListItem)
	mux.HandleFunc("GET /api/list-items/{id}", s.pantryH.GetListItem)
	mux.HandleFunc("PUT /api/list-items/{id}", s.pantryH.UpdateListItem)
	mux.HandleFunc("DELETE /api/list-items/{id}", s.pantryH.DeleteListItem)
	mux.HandleFunc("POST /api/list-items/{id}/move-to-pantry", s.pantryH.MoveToPantry)

	// Pantry
	mux.HandleFunc("GET /api/pantry", s.pantryH.PantryItems)
	mux.HandleFunc("POST /api/pantry", s.pantryH.CreatePantryItem)
	mux.HandleFunc("GET /api/pantry/{id}", s.pantryH.GetPantryItem)
	mux.HandleFunc("PUT /api/pantry/{id}", s.pantryH.UpdatePantryItem)
	mux.HandleFunc("DELETE /api/pantry/{id}", s.pantryH.DeletePantryItem)

	// Recipes
	mux.HandleFunc("GET /api/recipes", s.recipeH.List)
	mux.HandleFunc("POST /api/recipes", s.recipeH.Create)
	mux.HandleFunc("POST /api/recipes/import", s.recipeH.Import)
	mux.HandleFunc("GET /api/recipes/category/{category}", s.recipeH.ListByCategory)
	mux.HandleFunc("GET /api/recipes/{id}", s.recipeH.Get)
	mux.HandleFunc("PUT /api/recipes/{id}", s.recipeH.Update)
	mux.HandleFunc("DELETE /api/recipes/{id}", s.recipeH.Delete)
	mux.HandleFunc("PUT /api/recipes/{id}/rating", s.recipeH.Rate)
	mux.HandleFunc("POST /api/recipes/{id}/comments", s.recipeH.Comment)
	mux.HandleFunc("DELETE /api/recipes/{id}/comments/{comment_id}", s.recipeH.DeleteComment)
	mux.HandleFunc("POST /api/recipes/{id}/images", s.recipeH.UploadImage)
	mux.HandleFunc("GET /api/recipes/{id}/images/{image_id}", s.recipeH.Image)
	mux.HandleFunc("DELETE /api/recipes/{id}/images/{image_id}", s.recipeH.DeleteImage)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.origins, s.logger.With("component", "websocket")))
}
