package main

import (
	"context"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"checkin-service/internal/handler"
	"checkin-service/internal/middleware"
	"checkin-service/internal/service"
	"checkin-service/internal/store"
	"checkin-service/internal/store/memory"
	"checkin-service/internal/store/postgres"
	"checkin-service/pkg/config"
	"checkin-service/pkg/database"
	"checkin-service/pkg/jwtutil"
	"checkin-service/pkg/logger"
	"checkin-service/prometheus"
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
	log.Info("Starting check-in service...", zap.String("environment", cfg.Server.Env))

	// Select the storage backend
	var (
		users     store.UserStore
		locations store.LocationStore
		records   store.RecordStore
	)
	switch cfg.DB.Driver {
	case "memory":
		mem := memory.New()
		users, locations, records = mem.Users(), mem.Locations(), mem.Records()
		log.Info("Using in-memory store")
	default:
		db, err := database.Open(cfg)
		if err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		pg := postgres.New(db)
		users, locations, records = pg.Users(), pg.Locations(), pg.Records()
		log.Info("Database connection established")
	}

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Wire the core services
	gate := service.NewGate(users)
	directory := service.NewDirectory(users, locations)
	ledger := service.NewLedger(records)
	authorizer := service.NewAuthorizer(users, locations, ledger)

	// Seed the bootstrap admin on first start
	if err := service.EnsureDefaultAdmin(context.Background(), users,
		cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword, log); err != nil {
		log.Fatal("Failed to bootstrap admin", zap.Error(err))
	}

	authHandler := handler.NewAuth(gate)
	userHandler := handler.NewUser(directory)
	locationHandler := handler.NewLocation(directory)
	attendanceHandler := handler.NewAttendance(authorizer, ledger)

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
	auth.POST("/login", authHandler.Login)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// User management (tenant directory)
	apiUsers := api.Group("/users")
	apiUsers.POST("", userHandler.Create)
	apiUsers.GET("", userHandler.List)
	apiUsers.DELETE("/:id", userHandler.Delete)
	apiUsers.PUT("/:id/location", userHandler.AssignLocation)
	apiUsers.GET("/:id/location", userHandler.GetLocation)

	// Geofence locations
	apiLocations := api.Group("/locations")
	apiLocations.POST("", locationHandler.Create)
	apiLocations.GET("", locationHandler.List)
	apiLocations.PUT("/:id", locationHandler.Update)
	apiLocations.DELETE("/:id", locationHandler.Delete)

	// Check-in and attendance ledger
	api.POST("/check-in", attendanceHandler.CheckIn)
	api.GET("/attendance", attendanceHandler.ListRecords)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
