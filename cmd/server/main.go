package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventdesk/service-booking/internal/application"
	"github.com/eventdesk/service-booking/internal/auth"
	"github.com/eventdesk/service-booking/internal/config"
	"github.com/eventdesk/service-booking/internal/database"
	"github.com/eventdesk/service-booking/internal/events"
	"github.com/eventdesk/service-booking/internal/handler"
	"github.com/eventdesk/service-booking/internal/logger"
	"github.com/eventdesk/service-booking/internal/middleware"
	"github.com/eventdesk/service-booking/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// Connect to the booking store
	creds, err := cfg.LoadCredentials()
	if err != nil {
		log.Fatal("failed to load database credentials", zap.Error(err))
	}
	store := database.NewHandle(*creds, log)
	if err := store.Init(ctx); err != nil {
		log.Fatal("failed to initialize booking store", zap.Error(err))
	}

	// Initialize event publisher
	var publisher interface {
		application.EventPublisher
		Close() error
	} = events.NopPublisher{}
	if len(cfg.KafkaConfig.Brokers) > 0 {
		publisher = events.NewProducer(cfg.KafkaConfig.Brokers, log)
		log.Info("publishing booking events to kafka",
			zap.Strings("brokers", cfg.KafkaConfig.Brokers),
			zap.String("topic", cfg.KafkaConfig.Topic),
		)
	} else {
		log.Info("KAFKA_BROKERS not set, booking events disabled")
	}
	defer func() { _ = publisher.Close() }()

	// Initialize application service
	bookingService := application.NewBookingService(
		store.Bookings(),
		publisher,
		log,
		application.WithTopic(cfg.KafkaConfig.Topic),
		application.WithLocation(cfg.Location),
	)

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)
	healthHandler := handler.NewHealthHandler(store, serviceName, log)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register routes
	healthHandler.RegisterRoutes(&router.RouterGroup)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	bookingHandler.RegisterRoutes(&router.RouterGroup, middleware.RateLimitMiddleware(limiter))

	var adminGuards []gin.HandlerFunc
	if cfg.AdminJWTSecret != "" {
		jwtManager := auth.NewJWTManager(cfg.AdminJWTSecret, serviceName)
		adminGuards = append(adminGuards,
			middleware.AuthMiddleware(jwtManager),
			middleware.RequireRole(auth.RoleAdmin),
		)
	} else {
		log.Warn("ADMIN_JWT_SECRET not set: admin booking API is unauthenticated")
	}
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, adminGuards...)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error("failed to close booking store", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("failed to flush traces", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
