package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	broadcastapp "github.com/storefront/backend/internal/application/broadcast"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	identityapp "github.com/storefront/backend/internal/application/identity"
	maintenanceapp "github.com/storefront/backend/internal/application/maintenance"
	ordersapp "github.com/storefront/backend/internal/application/orders"
	shoppingapp "github.com/storefront/backend/internal/application/shopping"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/notify"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	otpRepo := persistence.NewGormOTPRepository(db.DB)
	broadcastRepo := persistence.NewGormBroadcastRepository(db.DB)

	// Auth infrastructure
	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		blacklist = redisBlacklist
		log.Info("Redis token blacklist connected")
	}

	var otpLimiter auth.RateLimiter
	redisLimiter, err := auth.NewRedisRateLimiter(cfg.Redis, cfg.OTP.RateLimitRequests, cfg.OTP.RateLimitWindow)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory OTP rate limiter", zap.Error(err))
		otpLimiter = auth.NewInMemoryRateLimiter(cfg.OTP.RateLimitRequests, cfg.OTP.RateLimitWindow)
	} else {
		otpLimiter = redisLimiter
	}

	// Outbound clients
	mailer := mail.NewClient(cfg.Mail, log)
	notifier := notify.NewWebhookClient(cfg.Notify, log)

	var gateway payment.Gateway
	if cfg.Payment.Enabled {
		stripeGateway, err := payment.NewStripeGateway(cfg.Payment, log)
		if err != nil {
			log.Fatal("Failed to initialize payment gateway", zap.Error(err))
		}
		gateway = stripeGateway
		log.Info("Stripe payment gateway enabled")
	} else {
		gateway = payment.NewDisabledGateway()
		log.Warn("Payment gateway disabled, all charges auto-approve")
	}

	// Application services
	calculator, err := checkoutapp.NewCalculator(cfg.Checkout)
	if err != nil {
		log.Fatal("Invalid checkout pricing configuration", zap.Error(err))
	}
	productService := catalogapp.NewProductService(productRepo)
	cartService := shoppingapp.NewCartService(cartRepo, productRepo)
	orderService := ordersapp.NewOrderService(orderRepo, mailer, log)
	checkoutService := checkoutapp.NewCheckoutService(
		cartRepo, orderRepo, userRepo, productRepo, calculator, gateway, mailer, notifier, log)
	authService := identityapp.NewAuthService(userRepo, otpRepo, jwtService, blacklist, otpLimiter, mailer, log)
	broadcastService := broadcastapp.NewService(broadcastRepo)
	abandonedCartService := maintenanceapp.NewAbandonedCartService(
		cartRepo, userRepo, mailer, notifier, cfg.Cron.CartIdleAge, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	productHandler := handler.NewProductHandler(productService)
	cartHandler := handler.NewCartHandler(cartService)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	orderHandler := handler.NewOrderHandler(orderService)
	broadcastHandler := handler.NewBroadcastHandler(broadcastService)
	cronHandler := handler.NewCronHandler(abandonedCartService)

	// Gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})

	// Public auth endpoints, with a stricter per-address limit so a
	// single client cannot farm OTP emails or brute-force logins.
	authRoutes := router.NewDomainGroup("auth", "/auth")
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authRoutes.Use(middleware.RateLimitByKey(authLimiter, func(c *gin.Context) string {
			return c.ClientIP()
		}))
	}
	authRoutes.POST("/otp/send", authHandler.SendOTP)
	authRoutes.POST("/otp/verify", authHandler.VerifyOTP)
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/logout", jwtAuth, authHandler.Logout)
	r.Register(authRoutes)

	// Public storefront reads
	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	r.Register(catalogRoutes)

	broadcastRoutes := router.NewDomainGroup("broadcasts", "/broadcasts")
	broadcastRoutes.GET("/active", broadcastHandler.ListActive)
	r.Register(broadcastRoutes)

	// Authenticated customer endpoints
	cartRoutes := router.NewDomainGroup("cart", "/cart")
	cartRoutes.Use(jwtAuth)
	cartRoutes.GET("", cartHandler.Get)
	cartRoutes.POST("/items", cartHandler.AddItem)
	cartRoutes.PUT("/items/:productID", cartHandler.UpdateItem)
	cartRoutes.DELETE("/items/:productID", cartHandler.RemoveItem)
	cartRoutes.DELETE("", cartHandler.Clear)
	r.Register(cartRoutes)

	checkoutRoutes := router.NewDomainGroup("checkout", "/checkout")
	checkoutRoutes.Use(jwtAuth)
	checkoutRoutes.POST("", checkoutHandler.Checkout)
	r.Register(checkoutRoutes)

	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.Use(jwtAuth)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	r.Register(orderRoutes)

	// Admin endpoints require the admin role claim
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.Use(jwtAuth, middleware.RequireAdmin())
	adminRoutes.GET("/orders", orderHandler.AdminList)
	adminRoutes.PATCH("/orders/:id", orderHandler.AdminUpdate)
	adminRoutes.POST("/products", productHandler.Create)
	adminRoutes.PUT("/products/:id", productHandler.Update)
	adminRoutes.DELETE("/products/:id", productHandler.Delete)
	adminRoutes.POST("/broadcasts", broadcastHandler.Create)
	adminRoutes.POST("/broadcasts/:id/cancel", broadcastHandler.Cancel)
	r.Register(adminRoutes)

	// Scheduled jobs authenticate with the shared cron secret
	cronRoutes := router.NewDomainGroup("cron", "/cron")
	cronRoutes.Use(middleware.CronAuth(cfg.Cron.Secret))
	cronRoutes.POST("/abandoned-cart", cronHandler.AbandonedCarts)
	r.Register(cronRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
