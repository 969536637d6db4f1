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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/staybook/service-stays/internal/application"
	"github.com/staybook/service-stays/internal/auth"
	"github.com/staybook/service-stays/internal/config"
	"github.com/staybook/service-stays/internal/database"
	"github.com/staybook/service-stays/internal/events"
	"github.com/staybook/service-stays/internal/geocoding"
	"github.com/staybook/service-stays/internal/handler"
	"github.com/staybook/service-stays/internal/health"
	"github.com/staybook/service-stays/internal/lock"
	"github.com/staybook/service-stays/internal/logger"
	"github.com/staybook/service-stays/internal/middleware"
	"github.com/staybook/service-stays/internal/repository"
	"github.com/staybook/service-stays/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-stays")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-stays",
		zap.String("port", cfg.Port),
		zap.String("lock_backend", cfg.LockBackend),
	)

	// Connect to database
	db, err := database.Connect(cfg.DB.DSN(), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.UserModel{}, &repository.ListingModel{}, &repository.BookingModel{}, &repository.PlaceModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DB.URL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, 24*time.Hour)

	// Initialize the lock coordinator
	var (
		locks       lock.Coordinator
		redisClient redis.UniversalClient
	)
	switch cfg.LockBackend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = redisClient.Close() }()
		locks = lock.NewRedisCoordinator(redisClient)
	case "memory":
		locks = lock.NewMemoryCoordinator()
	}

	// Initialize Kafka producer
	producer := events.NewProducer(cfg.Kafka.Brokers, log)
	defer func() { _ = producer.Close() }()

	// Initialize geocoder and photo storage
	geocoder := geocoding.NewHTTPGeocoder(cfg.GeocoderURL)
	uploader, err := storage.NewMinioUploader(
		cfg.Storage.Endpoint,
		cfg.Storage.UseSSL,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		log,
	)
	if err != nil {
		log.Fatal("failed to create photo storage client", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	listingRepo := repository.NewGormListingRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	placeRepo := repository.NewGormPlaceRepository(db)

	// Initialize application services
	authService := application.NewAuthService(userRepo, jwtManager, log)
	bookingService := application.NewBookingService(bookingRepo, listingRepo, locks, producer, log)
	listingService := application.NewListingService(listingRepo, bookingRepo, geocoder, uploader, producer, log)
	placeService := application.NewPlaceService(placeRepo, geocoder, log)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	listingHandler := handler.NewListingHandler(listingService)
	placeHandler := handler.NewPlaceHandler(placeService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// Register health check routes
	healthHandler := health.NewHandler(db, redisClient, "service-stays")
	healthHandler.RegisterRoutes(router)

	// Register routes
	authHandler.RegisterRoutes(&router.RouterGroup)
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	listingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	placeHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

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

	log.Info("shutting down service-stays...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-stays stopped")
}
