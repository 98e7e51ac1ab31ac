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
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/internal/database"
	"github.com/vistalens/booking-backend/internal/handlers"
	"github.com/vistalens/booking-backend/internal/middleware"
	"github.com/vistalens/booking-backend/internal/services"
	"github.com/vistalens/booking-backend/pkg/jwt"
	"github.com/vistalens/booking-backend/pkg/mailer"
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

	logger.Info("Starting VistaLens Booking Backend")
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

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize repositories
	bookingRepo := database.NewBookingRepository(db)
	customerRepo := database.NewCustomerRepository(db)
	paymentRepo := database.NewPaymentRepository(db)
	auditRepo := database.NewPaymentAuditRepository(db, logger)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	pricingService := services.NewPricingService(cfg.Pricing)
	exchangeService := services.NewExchangeRateService(cfg.ExchangeRate, logger)
	iyzicoService := services.NewIyzicoService(cfg.Iyzico, logger)
	turinvoiceService := services.NewTurinvoiceService(cfg.Turinvoice, logger)
	rateLimitService := services.NewRateLimitService(db, cfg.RateLimit)

	// Initialize email gateway
	var mailGateway mailer.Gateway
	if cfg.Email.Mode == "production" {
		logger.Info("Email gateway in production mode")
		mailGateway = mailer.NewHTTPGateway(mailer.Config{
			APIURL: cfg.Email.APIURL,
			APIKey: cfg.Email.APIKey,
			From:   cfg.Email.From,
		}, logger)
	} else {
		logger.Info("Email gateway in development mode (emails are logged, not sent)")
		mailGateway = mailer.NewDevGateway(logger)
	}

	bookingService := services.NewBookingService(
		bookingRepo,
		customerRepo,
		paymentRepo,
		auditRepo,
		pricingService,
		exchangeService,
		iyzicoService,
		turinvoiceService,
		mailGateway,
		logger,
	)

	adminService := services.NewAdminService(
		cfg,
		jwtService,
		bookingRepo,
		customerRepo,
		paymentRepo,
		logger,
	)

	logger.Info("Services initialized")

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, pricingService, logger)
	paymentHandler := handlers.NewPaymentHandler(bookingService, logger)
	webhookHandler := handlers.NewWebhookHandler(bookingService, logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(adminService, logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger)

	// Periodic cleanup of expired rate limit rows
	cleanupDone := make(chan struct{})
	go rateLimitCleanup(rateLimitService, logger, cleanupDone)

	// Initialize Gin router
	router := gin.New()
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
	router.GET("/health", healthCheckHandler(db))

	// API routes
	api := router.Group("/api")
	{
		// Public booking routes
		booking := api.Group("/booking")
		booking.Use(middleware.RateLimit(rateLimitService, services.RateLimitScopeBooking, logger))
		{
			booking.POST("/create-draft", bookingHandler.CreateDraft)
			booking.POST("", bookingHandler.CreateDraft) // Alias for older frontend builds
			booking.GET("/packages", bookingHandler.GetPackages)
			booking.GET("/quote", bookingHandler.GetQuote)
		}

		// Public payment routes
		payment := api.Group("/payment")
		{
			limited := payment.Group("")
			limited.Use(middleware.RateLimit(rateLimitService, services.RateLimitScopeBooking, logger))
			{
				limited.POST("/initialize", paymentHandler.InitializeCardPayment)
				limited.POST("/initialize/turinvoice", paymentHandler.InitializeRedirectPayment)
				limited.GET("/status/:conversation_id", paymentHandler.GetPaymentStatus)
			}

			// Provider callbacks are never rate limited
			payment.POST("/webhook/turinvoice", webhookHandler.HandleTurinvoice)
		}

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.POST("/login", adminAuthHandler.Login)

			protected := admin.Group("")
			protected.Use(middleware.AdminAuth(jwtService, cfg, logger))
			protected.Use(middleware.RateLimit(rateLimitService, services.RateLimitScopeAdmin, logger))
			{
				protected.GET("/bookings", adminHandler.ListBookings)
				protected.PATCH("/bookings", adminHandler.UpdateBookingStatus)
				protected.GET("/customers", adminHandler.ListCustomers)
				protected.GET("/payments", adminHandler.ListPayments)
				protected.GET("/stats", adminHandler.Stats)
			}
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
	close(cleanupDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// rateLimitCleanup purges expired rate limit rows every 10 minutes until
// done is closed
func rateLimitCleanup(rateLimitService *services.RateLimitService, logger *logrus.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := rateLimitService.CleanupExpired()
			if err != nil {
				logger.WithError(err).Error("Rate limit cleanup failed")
				continue
			}
			if removed > 0 {
				logger.WithField("removed", removed).Debug("Cleaned up expired rate limit rows")
			}
		case <-done:
			return
		}
	}
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if email, exists := c.Get(middleware.AdminEmailKey); exists {
			fields["admin_email"] = email
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
