package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/realty-crm/cmd/mainconfig"
	"github.com/wolfman30/realty-crm/internal/api/router"
	"github.com/wolfman30/realty-crm/internal/app/bootstrap"
	"github.com/wolfman30/realty-crm/internal/assistant"
	"github.com/wolfman30/realty-crm/internal/auth"
	"github.com/wolfman30/realty-crm/internal/clients"
	appconfig "github.com/wolfman30/realty-crm/internal/config"
	httpmiddleware "github.com/wolfman30/realty-crm/internal/http/middleware"
	"github.com/wolfman30/realty-crm/internal/observability/metrics"
	"github.com/wolfman30/realty-crm/internal/properties"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting realty-crm API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	var awsCfg *aws.Config
	if loaded, err := mainconfig.LoadAWSConfig(ctx, cfg); err != nil {
		logger.Warn("failed to load AWS config; SQS and Bedrock disabled", "error", err)
	} else {
		awsCfg = &loaded
	}

	registry, metricsHandler := setupMetrics()
	propertyMetrics := metrics.NewPropertyMetrics(registry)

	// Stores
	userStore, closeUsers := setupUserStore(ctx, cfg, logger)
	defer closeUsers()
	clientRepo, closeClients := setupClientRepository(ctx, cfg, logger)
	defer closeClients()

	// Services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(userStore, tokens, logger)
	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to seed admin account", "error", err)
	}
	clientService := clients.NewService(clientRepo, bootstrap.BuildActivityPublisher(cfg, awsCfg, logger), logger)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	propertyService, err := bootstrap.BuildPropertyService(cfg, bootstrap.BuildPropertyCache(cfg, redisClient, logger), propertyMetrics, logger)
	if err != nil {
		logger.Error("failed to build property service", "error", err)
		os.Exit(1)
	}

	chatService, closeChat, err := bootstrap.BuildChatService(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to build chat service", "error", err)
		os.Exit(1)
	}
	defer closeChat()
	var assistantHandler *assistant.Handler
	if chatService != nil {
		assistantHandler = assistant.NewHandler(chatService, logger)
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	stopSweep := make(chan struct{})
	go limiter.Run(stopSweep)
	defer close(stopSweep)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		Tokens:             tokens,
		AuthHandler:        auth.NewHandler(authService, logger),
		ClientsHandler:     clients.NewHandler(clientService, logger),
		PropertiesHandler:  properties.NewHandler(propertyService, cfg.WarmCities, logger),
		TranslationHandler: bootstrap.BuildTranslationHandler(cfg, logger),
		AssistantHandler:   assistantHandler,
		MetricsHandler:     metricsHandler,
		HTTPMetrics:        metrics.NewHTTPMetrics(registry),
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server. Property searches wait on scraper runs, so the
	// write timeout covers the provider timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.PropertyProviderTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics builds the registry served on /metrics.
func setupMetrics() (*prometheus.Registry, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// setupUserStore uses Postgres when DATABASE_URL is set and memory otherwise.
func setupUserStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (auth.UserStore, func()) {
	db, err := bootstrap.OpenUserDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("user database unavailable; using in-memory users", "error", err)
	}
	if db == nil {
		logger.Warn("using in-memory user store")
		return auth.NewInMemoryUserStore(), func() {}
	}
	return auth.NewPostgresUserStore(db), func() { _ = db.Close() }
}

// setupClientRepository uses a pgx pool when DATABASE_URL is set and memory otherwise.
func setupClientRepository(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (clients.Repository, func()) {
	pool := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Warn("using in-memory client repository")
		return clients.NewInMemoryRepository(), func() {}
	}
	return clients.NewPostgresRepository(pool), pool.Close
}
