package main

import (
	"timesheet-service/internal/handler"
	"timesheet-service/internal/mailer"
	"timesheet-service/internal/middleware"
	"timesheet-service/internal/schedule"
	"timesheet-service/pkg/config"
	"timesheet-service/pkg/database"
	"timesheet-service/pkg/jwtutil"
	"timesheet-service/pkg/logger"
	"timesheet-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting timesheet service...", cfg.LogConfig()...)

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Daily export job: aggregation + both renderers + mail, system privilege
	job := &schedule.DailyExport{
		DB:        database.GetDB(),
		OutputDir: cfg.Export.OutputDir,
		FontPath:  cfg.Export.FontPath,
		Recipient: cfg.SMTP.Recipient,
		Mailer:    mailer.New(cfg.SMTP),
		Log:       log,
	}
	handler.InitExport(cfg.Export, job)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Export.Cron, job.Run); err != nil {
		log.Fatal("Failed to register daily export schedule", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Info("Daily export scheduled", zap.String("cron", cfg.Export.Cron))

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)

	// Cron-triggered daily export; runs with system privilege, no auth
	e.GET("/api/admin/export/daily", handler.DailyExportHandler)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Own account
	users := api.Group("/users")
	users.GET("/profile", handler.GetProfile)
	users.PATCH("/profile", handler.UpdateProfile)
	users.POST("/change-password", handler.ChangePassword)
	users.DELETE("/profile", handler.DeleteProfile)

	// Timesheet entries
	timesheets := api.Group("/timesheets")
	timesheets.POST("", handler.CreateTimesheet)
	timesheets.GET("", handler.ListTimesheets)
	timesheets.PUT("/:id/checkout", handler.Checkout)
	timesheets.PUT("/:id", handler.UpdateTimesheet)
	timesheets.DELETE("/:id", handler.DeleteTimesheet)

	// Reports - any authenticated role; range params honored for admins only
	reports := api.Group("/reports")
	reports.GET("/timesheets", handler.PreviewTimesheets)
	reports.POST("/export", handler.ExportTimesheets)

	// Account administration
	admin := api.Group("/admin", middleware.RequireRoles("admin"))
	admin.GET("/users", handler.ListUsers)
	admin.POST("/users", handler.CreateUser)
	admin.GET("/users/:id", handler.GetUser)
	admin.PUT("/users/:id", handler.UpdateUser)
	admin.DELETE("/users/:id", handler.DeleteUser)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
