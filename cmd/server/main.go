package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xchangepos/backend/internal/config"
	"github.com/xchangepos/backend/internal/database"
	"github.com/xchangepos/backend/internal/events"
	"github.com/xchangepos/backend/internal/handlers"
	"github.com/xchangepos/backend/internal/jobs"
	"github.com/xchangepos/backend/internal/kvstore"
	"github.com/xchangepos/backend/internal/logger"
	"github.com/xchangepos/backend/internal/middleware"
	"github.com/xchangepos/backend/internal/models"
	"github.com/xchangepos/backend/internal/routes"
	"github.com/xchangepos/backend/internal/services/compliance"
	"go.uber.org/zap"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	log := logger.Must(cfg.Environment)
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.Compliance.StoreBackend == "redis" || cfg.Compliance.Broadcaster == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	kv, err := newKVStore(cfg, redisClient)
	if err != nil {
		log.Fatal("Failed to initialize report storage", zap.Error(err))
	}

	var broadcaster events.Broadcaster
	if cfg.Compliance.Broadcaster == "redis" {
		broadcaster = events.NewRedisBroadcaster(redisClient, cfg.Compliance.EventsChannel)
	} else {
		broadcaster = events.NewLocalBroadcaster(64)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := compliance.NewMetrics(registry)

	// Initialize services
	reportStore := compliance.NewReportStore(kv, log.Named("report_store"))
	fintracService := compliance.NewCryptoFINTRACService(reportStore, broadcaster, log.Named("fintrac"),
		compliance.WithReportingEntity(reportingEntity(cfg.Compliance)),
		compliance.WithPreparedBy(cfg.Compliance.PreparedBy),
		compliance.WithMetrics(metrics),
	)

	deadlineMonitor := jobs.NewDeadlineMonitor(fintracService, metrics, log.Named("deadline_monitor"),
		cfg.Compliance.DeadlineCheckInterval, cfg.Compliance.DeadlineWarningWindow)
	if err := deadlineMonitor.Start(); err != nil {
		log.Fatal("Failed to start deadline monitor", zap.Error(err))
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(ginzap.Ginzap(log, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(log, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))
	router.Use(middleware.SecureHeadersMiddleware(middleware.DefaultSecureHeadersConfig(cfg.IsProduction())))

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	defer rateLimiter.Stop()

	routes.RegisterRoutes(router, routes.Handlers{
		FINTRAC: handlers.NewFINTRACHandler(fintracService, deadlineMonitor),
		Health:  handlers.NewHealthHandler(),
		Webhook: handlers.NewWebhookHandler(fintracService, cfg.Compliance.WebhookSecret, log.Named("webhooks")),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, cfg.JWT.Secret, rateLimiter)

	// Start server
	srv := startServer(router, cfg.Server, log)

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	deadlineMonitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}

// newKVStore selects the report storage backend
func newKVStore(cfg *config.Config, redisClient *redis.Client) (kvstore.Store, error) {
	switch cfg.Compliance.StoreBackend {
	case "memory":
		return kvstore.NewMemoryStore(), nil
	case "redis":
		return kvstore.NewRedisStore(redisClient), nil
	case "postgres":
		db, err := database.InitDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		return database.NewKVStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Compliance.StoreBackend)
	}
}

// reportingEntity overlays configured identity fields on the default entity
func reportingEntity(cfg config.ComplianceConfig) models.ReportingEntity {
	entity := models.DefaultReportingEntity
	if cfg.EntityName != "" {
		entity.Name = cfg.EntityName
	}
	if cfg.EntityIdentifier != "" {
		entity.Identifier = cfg.EntityIdentifier
	}
	if cfg.EntityRegistrationNumber != "" {
		entity.RegistrationNumber = cfg.EntityRegistrationNumber
	}
	if cfg.EntityAddress != "" {
		entity.Address = cfg.EntityAddress
	}
	return entity
}

// startServer starts the HTTP server
func startServer(router *gin.Engine, cfg config.ServerConfig, log *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))
	return srv
}
