package main

import (
	"strings"

	"github.com/alemhar/fielder/internal/handler"
	"github.com/alemhar/fielder/internal/middleware"
	"github.com/alemhar/fielder/internal/storage"
	"github.com/alemhar/fielder/pkg/config"
	"github.com/alemhar/fielder/pkg/database"
	"github.com/alemhar/fielder/pkg/jwtutil"
	"github.com/alemhar/fielder/pkg/logger"
	"github.com/alemhar/fielder/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
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
	log.Info("Starting fielder service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	// Initialize the attachment store backing the public disk
	publicBase := strings.TrimRight(cfg.Server.BaseURL, "/") + cfg.Storage.PublicPrefix
	fileStore := storage.NewLocalStore(cfg.Storage.Root, publicBase)
	handler.Init(cfg, fileStore)
	log.Info("Attachment store initialized", zap.String("root", cfg.Storage.Root))

	// Create Echo instance
	e := echo.New()

	// Middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(prometheus.MetricsMiddleware())

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Public routes
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Public disk serving attachments and branding assets
	e.Static(cfg.Storage.PublicPrefix, cfg.Storage.Root)

	// Login is the only API route without a bearer token
	e.POST("/api/auth/login", handler.Login)

	// API routes - all require authentication and tenant context
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	api.GET("/me", handler.Me)
	api.PUT("/theme", handler.UpdateTheme)
	api.GET("/schemas", handler.Schemas)

	api.GET("/projects", handler.ListProjects)
	api.GET("/projects/:projectUuid", handler.GetProject)
	api.GET("/projects/:projectUuid/activities", handler.ListActivitiesForProject)

	api.GET("/activities/:activityUuid", handler.GetActivity)
	api.GET("/activities/:activityUuid/entries", handler.ListEntriesForActivity)
	api.POST("/activities/:activityUuid/entries", handler.CreateEntry)
	api.POST("/activities/:activityUuid/entries/camera", handler.CreateEntryFromCamera)

	api.GET("/entries/:entryUuid", handler.GetEntry)
	api.PUT("/entries/:entryUuid", handler.UpdateEntry)
	api.DELETE("/entries/:entryUuid/attachments/:attachmentUuid", handler.DeleteAttachment)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
