package api

import (
	"net/http"

	"github.com/Rrens/chatdesk/internal/api/handler"
	customMiddleware "github.com/Rrens/chatdesk/internal/api/middleware"
	"github.com/Rrens/chatdesk/internal/config"
	"github.com/Rrens/chatdesk/internal/security"
	"github.com/Rrens/chatdesk/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the wired services the HTTP layer serves
type Dependencies struct {
	JWTManager    *security.JWTManager
	AuthService   *service.AuthService
	ChatService   *service.ChatService
	UploadService *service.UploadService // nil when blob storage is not configured

	// RateLimiter is nil when rate limiting is disabled
	RateLimiter customMiddleware.Limiter

	// ReadyChecks are pinged by GET /api/ready
	ReadyChecks map[string]handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handler.NewAuthHandler(deps.AuthService)
	chatHandler := handler.NewChatHandler(deps.ChatService)
	uploadHandler := handler.NewUploadHandler(deps.UploadService, cfg.Upload.MaxSize)

	authMiddleware := customMiddleware.NewAuthMiddleware(deps.JWTManager, deps.AuthService)

	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.ReadyChecks))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(authMiddleware.Authenticate).Get("/me", authHandler.Me)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			if deps.RateLimiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.RateLimiter).Limit)
			}

			r.Route("/chats", func(r chi.Router) {
				r.Post("/", chatHandler.Create)
				r.Get("/", chatHandler.List)

				r.Route("/{chatID}", func(r chi.Router) {
					r.Get("/", chatHandler.Get)
					r.Put("/", chatHandler.UpdateTitle)
					r.Delete("/", chatHandler.Delete)
					r.Put("/title", chatHandler.UpdateTitle)
					r.Post("/title/suggest", chatHandler.SuggestTitle)
					r.Post("/messages", chatHandler.AddMessage)
					r.Post("/send", chatHandler.Send)
				})
			})

			r.Post("/files/upload", uploadHandler.Upload)
		})
	})

	return r
}
