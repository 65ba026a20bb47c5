package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mandalhq/mandal-api/docs" // Swagger docs
	"github.com/mandalhq/mandal-api/internal/config"
	"github.com/mandalhq/mandal-api/internal/database"
	"github.com/mandalhq/mandal-api/internal/handlers"
	"github.com/mandalhq/mandal-api/internal/jobs"
	"github.com/mandalhq/mandal-api/internal/middleware"
	"github.com/mandalhq/mandal-api/internal/ocr"
	"github.com/mandalhq/mandal-api/internal/repository"
	"github.com/mandalhq/mandal-api/internal/services"
	"github.com/mandalhq/mandal-api/internal/storage"
	"github.com/mandalhq/mandal-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Mandal API
// @version 1.0
// @description REST API for group savings fund management: contributions, loans and installment repayment

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// OCR collaborator for slip verification
	extractor := ocr.NewClient(cfg.OCRServiceURL, cfg.OCRAPIKey)

	// Initialize services
	svcs := services.NewServices(repos, worker, store, extractor, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Check)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// Contribution review
				admin.GET("/contributions", h.Contribution.Index)
				admin.POST("/contributions/:contribution_id/approve", h.Contribution.Approve)
				admin.POST("/contributions/:contribution_id/reject", h.Contribution.Reject)

				// Loan review
				admin.GET("/loans", h.Loan.Index)
				admin.POST("/loans/:loan_id/approve", h.Loan.Approve)
				admin.POST("/loans/:loan_id/reject", h.Loan.Reject)
				admin.POST("/loans/:loan_id/installments/:position/approve", h.Loan.ApproveInstallment)
				admin.POST("/loans/:loan_id/installments/:position/reject", h.Loan.RejectInstallment)

				// Fund dashboard and exports
				admin.GET("/fund/overview", h.Fund.Overview)
				admin.GET("/fund/export/contributions", h.Fund.ExportContributions)
				admin.GET("/fund/export/report", h.Fund.ExportReport)

				// Audit log
				admin.GET("/audit", h.Audit.Index)

				// Background jobs
				admin.GET("/jobs/stats", h.Job.Stats)
				admin.POST("/jobs/reminders", h.Job.RunReminders)
			}

			// Contributions (members submit and view their own)
			contributions := protected.Group("/contributions")
			{
				contributions.POST("", h.Contribution.Create)
				contributions.GET("/mine", h.Contribution.Mine)
				contributions.GET("/:contribution_id", h.Contribution.Show)
				contributions.GET("/:contribution_id/slip", h.Contribution.Slip)
			}

			// Loans (members request, repay and view their own)
			loans := protected.Group("/loans")
			{
				loans.POST("", h.Loan.Create)
				loans.GET("/mine", h.Loan.Mine)
				loans.GET("/:loan_id", h.Loan.Show)
				loans.POST("/:loan_id/installments", h.Loan.PayInstallment)
			}

			// Fund snapshot (all members see the pool position)
			protected.GET("/fund", h.Fund.Show)

			// Reports
			protected.GET("/reports/statement", h.Report.MemberStatement)
			protected.GET("/reports/loans/:loan_id/statement", h.Report.LoanStatement)
			protected.GET("/reports/loans/:loan_id/agreement", h.Report.LoanAgreement)

			// Notifications
			// Static route first so "read_all" is not matched as :notification_id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/read_all", h.Notification.MarkAllAsRead)
				notifications.POST("/:notification_id/read", h.Notification.MarkAsRead)
				notifications.DELETE("/:notification_id", h.Notification.Delete)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Daily contribution reminders for members who have not paid this month
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sending contribution reminders...")
		return svcs.Job.SendContributionReminders(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
