package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/controllers"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/metrics"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/middleware"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/services"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.InitLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting AprovIA API server...", zap.String("env", cfg.GoEnv))

	// Connect to database
	if err := config.ConnectDatabase(cfg); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database models
	if err := config.GetDB().AutoMigrate(models.All()...); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migration completed successfully")

	metrics.Set(metrics.NewCollector(prometheus.DefaultRegisterer))

	services.InitCaktoClient(cfg, logger)
	services.InitIdentityManager(cfg)
	services.InitAIGateway(cfg, logger)
	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitS3Service(context.Background(), cfg); err != nil {
			logger.Error("Failed to initialize S3; avatar uploads are disabled", zap.Error(err))
		}
	} else {
		logger.Warn("AWS_S3_BUCKET not set; avatar uploads are disabled")
	}

	tokenValidator, err := middleware.NewAuth0Validator(cfg)
	if err != nil {
		logger.Fatal("Failed to set up JWT validator", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg, tokenValidator, logger, prometheus.DefaultGatherer)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server is running", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

// setupRouter wires middleware and every route
func setupRouter(cfg *config.Config, tokenValidator middleware.TokenValidator, logger *zap.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		middleware.CORS(),
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	requireAuth := middleware.EnsureValidToken(tokenValidator)
	requireAdmin := middleware.RequireAdmin(controllers.AdminChecker{})
	requireServiceKey := middleware.RequireServiceKey(cfg.ServiceAPIKey)

	router.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		// Subscription access
		v1.GET("/check-subscription", middleware.OptionalToken(tokenValidator), controllers.CheckSubscription)
		v1.POST("/check-subscription", middleware.OptionalToken(tokenValidator), controllers.CheckSubscription)
		v1.POST("/cancel-subscription", requireAuth, controllers.CancelSubscription)
		v1.POST("/create-checkout", limiter.Middleware(), controllers.CreateCheckout)
		v1.POST("/cakto-webhook", controllers.CaktoWebhook)

		// Admin
		v1.GET("/admin-dashboard", requireAuth, requireAdmin, controllers.AdminDashboard)
		v1.POST("/admin-dashboard", requireAuth, requireAdmin, controllers.AdminDashboard)

		// Study assistant
		v1.POST("/ai-study", limiter.Middleware(), controllers.AIStudy)

		// Internal
		v1.POST("/cakto-auth", requireServiceKey, controllers.CaktoAuth)
		v1.POST("/create-user-webhook", limiter.Middleware(), requireServiceKey, controllers.CreateUserWebhook)

		users := v1.Group("/users", requireAuth)
		{
			users.GET("/me", controllers.GetMyProfile)
			users.PUT("/me", controllers.UpdateMyProfile)
			users.PUT("/me/password", controllers.ChangePassword)
			users.POST("/me/avatar", controllers.UploadAvatar)
		}

		support := v1.Group("/support-messages", requireAuth)
		{
			support.POST("", controllers.CreateSupportMessage)
			support.GET("", controllers.ListMySupportMessages)
		}

		quiz := v1.Group("/quiz-responses", requireAuth)
		{
			quiz.GET("/me", controllers.GetMyQuizResponse)
			quiz.POST("", controllers.CreateQuizResponse)
		}

		admin := v1.Group("/admin", requireAuth, requireAdmin)
		{
			admin.GET("/support-messages", controllers.AdminListSupportMessages)
			admin.PUT("/support-messages/:id/read", controllers.MarkSupportMessageRead)
			admin.PUT("/support-messages/:id/reply", controllers.ReplySupportMessage)
			admin.PUT("/support-messages/:id/close", controllers.CloseSupportMessage)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "AprovIA API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not initialized",
			},
		})
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
