package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/chatdesk/internal/api"
	"github.com/Rrens/chatdesk/internal/api/handler"
	customMiddleware "github.com/Rrens/chatdesk/internal/api/middleware"
	"github.com/Rrens/chatdesk/internal/config"
	"github.com/Rrens/chatdesk/internal/docproc"
	"github.com/Rrens/chatdesk/internal/llm"
	"github.com/Rrens/chatdesk/internal/llm/gemini"
	"github.com/Rrens/chatdesk/internal/llm/ollama"
	"github.com/Rrens/chatdesk/internal/logging"
	"github.com/Rrens/chatdesk/internal/repository/redis"
	"github.com/Rrens/chatdesk/internal/responder"
	"github.com/Rrens/chatdesk/internal/security"
	"github.com/Rrens/chatdesk/internal/service"
	"github.com/Rrens/chatdesk/internal/storage/firebase"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := false
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		fmt.Println("Warning: .env file not found in any standard location")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Driver).
		Str("lock", cfg.Store.Lock).
		Msg("Starting chat API server")

	ctx := context.Background()

	// Initialize store
	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.close()

	readyChecks := map[string]handler.Pinger{cfg.Store.Driver: st.pinger}

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		readyChecks["redis"] = redisClient
	}

	// Session lock; the holder may wait on both responder hops
	var locker service.Locker
	if cfg.Store.Lock == "redis" {
		ttl := 2*cfg.Responder.Timeout + cfg.Store.LockTimeout
		locker = redis.NewSessionLock(redisClient, ttl, cfg.Store.LockTimeout)
	} else {
		locker = service.NewKeyedMutex(cfg.Store.LockTimeout)
	}

	var rateLimiter customMiddleware.Limiter
	if cfg.Security.RateLimit.Enabled {
		rateLimiter = redis.NewRateLimiter(
			redisClient,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
	}

	// Title suggestions
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	if cfg.LLM.Gemini.APIKey != "" {
		geminiProvider, err := gemini.NewProvider(ctx, cfg.LLM.Gemini)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Gemini")
		}
		defer geminiProvider.Close()
		llmRouter.RegisterProvider(geminiProvider)
	}
	if cfg.LLM.Ollama.Host != "" {
		llmRouter.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	}
	var titles service.TitleSuggester
	if providers := llmRouter.ListProviders(); len(providers) > 0 {
		log.Info().Strs("providers", providers).Msg("Title suggestion providers registered")
		titles = llmRouter
	} else {
		log.Warn().Msg("No LLM provider configured, titles fall back to message text")
	}

	aiClient := responder.NewClient(responder.Config{
		BaseURL:      cfg.Responder.BaseURL,
		PrimaryPath:  cfg.Responder.PrimaryPath,
		FallbackPath: cfg.Responder.FallbackPath,
		Timeout:      cfg.Responder.Timeout,
	})

	// Uploads need a bucket
	var uploadService *service.UploadService
	if cfg.Firebase.Bucket != "" {
		bucket, err := firebase.NewBucket(ctx, cfg.Firebase.Bucket, cfg.Firebase.CredentialsFile, cfg.Firebase.ObjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize storage bucket")
		}
		uploadService = service.NewUploadService(
			security.NewFileValidator(security.DefaultDocumentExtensions),
			docproc.NewClient(cfg.DocProc.BaseURL, cfg.DocProc.Timeout),
			bucket,
		)
	} else {
		log.Warn().Msg("Storage bucket not configured, uploads are disabled")
	}

	jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	// Initialize router
	router := api.NewRouter(cfg, api.Dependencies{
		JWTManager:    jwtManager,
		AuthService:   service.NewAuthService(st.users, jwtManager),
		ChatService:   service.NewChatService(st.sessions, aiClient, titles, locker),
		UploadService: uploadService,
		RateLimiter:   rateLimiter,
		ReadyChecks:   readyChecks,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
