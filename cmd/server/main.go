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
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/config"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/database"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/handlers"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/services"
	"github.com/NoobButNotNewbie/Limousine-s-managed/pkg/notify"
	"github.com/NoobButNotNewbie/Limousine-s-managed/pkg/seatlock"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Limousine Reservation Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := database.EnsureSchema(db); err != nil {
		logger.Fatalf("Failed to ensure database schema: %v", err)
	}

	// Initialize Redis connection (seat locks and OTP codes)
	logger.Info("Connecting to Redis...")
	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connection established")

	// Initialize repositories
	customerRepo := database.NewCustomerRepository(db)
	tripRepo := database.NewTripRepository(db)
	vehicleRepo := database.NewVehicleRepository(db)
	bookingRepo := database.NewBookingRepository(db)

	// Initialize notification gateway
	var notifier notify.Notifier
	if cfg.Notification.Mode == "production" {
		logger.Info("Notification gateway in production mode")
		notifier = notify.NewGateway(notify.GatewayConfig{
			APIURL: cfg.Notification.APIURL,
			APIKey: cfg.Notification.APIKey,
			Sender: cfg.Notification.Sender,
		}, logger)
	} else {
		logger.Info("Notification gateway in development mode (messages are logged, not sent)")
		notifier = notify.NewGateway(notify.GatewayConfig{
			APIURL: cfg.Notification.APIURL,
			APIKey: cfg.Notification.APIKey,
			Sender: cfg.Notification.Sender,
			Dev:    true,
		}, logger)
	}

	// Initialize services
	logger.Info("Initializing services...")
	seatLock := seatlock.New(redisClient)
	otpService := services.NewOTPService(redisClient, cfg.OTP.TTL)
	vehicleService := services.NewVehicleService(vehicleRepo, cfg.Booking.MaxVehicles)
	tripService := services.NewTripService(db, tripRepo, vehicleRepo, bookingRepo, vehicleService, cfg.Booking.TripDurationHours, logger)
	bookingService := services.NewBookingService(
		db,
		bookingRepo,
		customerRepo,
		tripService,
		vehicleService,
		seatLock,
		otpService,
		notifier,
		cfg.Booking,
		logger,
	)
	sweeperService := services.NewSweeperService(
		bookingRepo,
		tripRepo,
		vehicleRepo,
		tripService,
		seatLock,
		notifier,
		cfg.Booking,
		logger,
	)

	// Initialize and start cron service
	cronService := services.NewCronService(sweeperService, cfg.Jobs, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	logger.Info("Services initialized")

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	tripHandler := handlers.NewTripHandler(tripService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db, redisClient))

	// API routes
	v1 := router.Group("/api/v1")
	{
		trips := v1.Group("/trips")
		{
			trips.GET("/search", tripHandler.SearchTrips)
			trips.POST("/resolve", tripHandler.ResolveTrip)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.InitiateBooking)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("/:id/verify", bookingHandler.VerifyBooking)
			bookings.POST("/:id/resend-otp", bookingHandler.ResendOTP)
			bookings.DELETE("/:id", bookingHandler.CancelBooking)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop cron service
	cronService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
		}

		entry := logger.WithFields(fields)
		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else if c.Writer.Status() >= 500 {
			entry.Error("Request completed with server error")
		} else {
			entry.Info("Request completed")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db *sqlx.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		health := gin.H{
			"status":    "healthy",
			"version":   version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}

		if err := db.PingContext(ctx); err != nil {
			health["status"] = "unhealthy"
			health["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			health["status"] = "unhealthy"
			health["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, health)
	}
}
