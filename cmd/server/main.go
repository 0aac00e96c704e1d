package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/port-russell/service-marina/internal/application"
	"github.com/port-russell/service-marina/internal/config"
	reservationDomain "github.com/port-russell/service-marina/internal/domain/reservation"
	marinaEvents "github.com/port-russell/service-marina/internal/events"
	"github.com/port-russell/service-marina/internal/events/schema"
	"github.com/port-russell/service-marina/internal/handler"
	"github.com/port-russell/service-marina/internal/lock"
	"github.com/port-russell/service-marina/internal/metrics"
	"github.com/port-russell/service-marina/internal/platform/auth"
	"github.com/port-russell/service-marina/internal/platform/database"
	"github.com/port-russell/service-marina/internal/platform/health"
	"github.com/port-russell/service-marina/internal/platform/kafka"
	"github.com/port-russell/service-marina/internal/platform/logger"
	"github.com/port-russell/service-marina/internal/platform/messaging"
	"github.com/port-russell/service-marina/internal/platform/middleware"
	"github.com/port-russell/service-marina/internal/platform/rabbitmq"
	"github.com/port-russell/service-marina/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, schema.Source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-marina",
		zap.String("port", cfg.Port),
		zap.String("db_driver", cfg.DBConfig.Driver),
		zap.String("events_transport", cfg.EventsTransport),
		zap.String("lock_backend", cfg.Lock.Backend),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations. Versioned SQL migrations target Postgres;
	// other drivers and development use auto-migrate.
	if cfg.AppEnv == "development" || cfg.DBConfig.Driver != database.DriverPostgres {
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (auto-migrate)")
	} else {
		if err := database.RunMigrations(database.DatabaseURL(cfg.DBConfig), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("marina", registry)

	// Initialize event publisher
	publisher, err := newPublisher(cfg, log)
	if err != nil {
		log.Fatal("failed to create event publisher", zap.Error(err))
	}
	defer func() { _ = publisher.Close() }()

	// Initialize per-catway locker
	checks := map[string]health.Checker{"database": health.DBChecker(db)}
	var locker lock.Locker
	switch cfg.Lock.Backend {
	case config.LockRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = rdb.Close() }()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		locker = lock.NewRedisLocker(rdb, cfg.Lock.TTL, cfg.Lock.Timeout, log)
	default:
		locker = lock.NewLocalLocker(cfg.Lock.Timeout)
	}

	// Initialize repositories
	catwayRepo := repository.NewGormCatwayRepository(db)
	reservationRepo := repository.NewGormReservationRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	transactor := database.NewTransactor(db)

	// Initialize application services
	reconciler := application.NewAvailabilityReconciler(catwayRepo, reservationRepo, publisher, m, log)
	catwayService := application.NewCatwayService(catwayRepo, reservationRepo, transactor, locker, publisher, m, log)
	reservationService := application.NewReservationService(
		catwayRepo,
		reservationRepo,
		transactor,
		locker,
		reconciler,
		publisher,
		reservationDomain.RealClock{},
		m,
		log,
	)
	authService := application.NewAuthService(userRepo, jwtManager, log)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(seedCtx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		seedCancel()
		log.Fatal("failed to seed admin user", zap.Error(err))
	}
	seedCancel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start departure consumer when Kafka is available
	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.GroupPrefix + "marina-service"
		departureConsumer := marinaEvents.NewDepartureConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			reservationService,
			log,
		)
		defer func() { _ = departureConsumer.Close() }()

		go func() {
			log.Info("starting departure event consumer")
			if err := departureConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("departure event consumer error", zap.Error(err))
			}
		}()
	}

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep()
			}
		}
	}()

	// Initialize HTTP handlers
	catwayHandler := handler.NewCatwayHandler(catwayService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	authHandler := handler.NewAuthHandler(authService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(m.Middleware())

	// Register health check and metrics routes
	health.NewHandler(schema.Source, checks).RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register API routes
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(limiter))
	authHandler.RegisterRoutes(api)
	catwayHandler.RegisterRoutes(api, jwtManager)
	reservationHandler.RegisterRoutes(api, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
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

	log.Info("shutting down service-marina...")

	// Cancel the consumer and sweeper context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-marina stopped")
}

func newPublisher(cfg *config.ServiceConfig, log *zap.Logger) (messaging.Publisher, error) {
	switch cfg.EventsTransport {
	case config.TransportRabbitMQ:
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.TransportNone:
		log.Warn("event publishing disabled")
		return messaging.NopPublisher{}, nil
	default:
		return kafka.NewProducer(cfg.KafkaConfig.Brokers, log), nil
	}
}
