package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/circles"
	"github.com/Achess01/ComparteRide-platzi/internal/handler"
	"github.com/Achess01/ComparteRide-platzi/internal/invitations"
	"github.com/Achess01/ComparteRide-platzi/internal/invitecode"
	"github.com/Achess01/ComparteRide-platzi/internal/middleware"
	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/rides"
	"github.com/Achess01/ComparteRide-platzi/internal/store/gormstore"
	"github.com/Achess01/ComparteRide-platzi/pkg/config"
	"github.com/Achess01/ComparteRide-platzi/pkg/database"
	"github.com/Achess01/ComparteRide-platzi/pkg/jwtutil"
	"github.com/Achess01/ComparteRide-platzi/pkg/logger"
	"github.com/Achess01/ComparteRide-platzi/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("comparteride")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting ride-sharing service...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.User{},
		&model.Circle{},
		&model.Membership{},
		&model.Invitation{},
		&model.Ride{},
		&model.RidePassenger{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	// Domain services over the gorm-backed store
	st := gormstore.New(db)
	policy := circles.QuotaPolicy{
		FounderInvitations: cfg.Circle.FounderInvitations,
		MemberInvitations:  cfg.Circle.MemberInvitations,
	}
	generator := invitecode.Generator{
		Length:      cfg.Circle.InviteCodeLength,
		MaxAttempts: cfg.Circle.InviteCodeMaxAttempts,
	}
	directory := circles.NewDirectory(st, policy, log)
	ledger := circles.NewLedger(st, log)
	manager := invitations.NewManager(st, generator, policy, log)
	rideSvc := rides.NewService(st, ledger, log)

	jwtUtil := jwtutil.NewJWTUtil(&cfg.JWT)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	h := handler.New(st, jwtUtil, directory, ledger, manager, rideSvc)
	h.SetupRoutes(e, middleware.JWTAuthMiddleware(jwtUtil))

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
