package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/impactlink/impactlink/internal/app/auth"
	appControllers "github.com/impactlink/impactlink/internal/app/controllers"
	appMigrations "github.com/impactlink/impactlink/internal/app/migrations"
	"github.com/impactlink/impactlink/internal/app/models"
	appRepos "github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/app/repositories/memstore"
	appRoutes "github.com/impactlink/impactlink/internal/app/routes"
	appServices "github.com/impactlink/impactlink/internal/app/services"
	"github.com/impactlink/impactlink/internal/config"
	"github.com/impactlink/impactlink/internal/db"
	appMiddleware "github.com/impactlink/impactlink/internal/middleware"
	pkgAuth "github.com/impactlink/impactlink/internal/pkg/auth"
	"github.com/impactlink/impactlink/internal/pkg/helpers"
	"github.com/impactlink/impactlink/internal/pkg/logger"
	"github.com/impactlink/impactlink/internal/pkg/metrics"
	"github.com/impactlink/impactlink/internal/pkg/validation"
	"github.com/impactlink/impactlink/internal/pkg/websocket"
	"github.com/impactlink/impactlink/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store    appRepos.Store
	Database *db.PostgresDB // nil with the memory driver

	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService

	IdentityService    appServices.IdentityService
	AuthService        *appServices.AuthService
	OpportunityService appServices.OpportunityService
	ApplicationService appServices.ApplicationService
	SavedService       appServices.SavedOpportunityService
	MessageService     appServices.MessageService
	ProfileService     appServices.ProfileService

	Hub            *websocket.Hub
	AuthMiddleware *appMiddleware.AuthMiddleware
	RateLimiter    *appMiddleware.RateLimiter // nil when rate limiting is disabled
	Controllers    appRoutes.Controllers

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  logger.Format(strings.ToLower(cfg.Logging.Format)),
		Service: "impactlink",
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStore opens the configured Data Access Port. For postgres it connects,
// pings and applies the SQL migrations.
func SetupStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.Store, *db.PostgresDB, error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using in-memory store, data is lost on restart")
		return memstore.New(), nil, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if err := metrics.RegisterPoolStats(func() metrics.PoolStats { return database.Pool.Stat() }); err != nil {
		lgr.Warn().Err(err).Msg("Failed to register pool metrics")
	}

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrator"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return appRepos.NewPostgresStore(database), database, nil
}

// BuildDependencies initializes services, the realtime hub, middleware and
// controllers on top of store. ctx bounds the lifetime of open sockets.
func BuildDependencies(ctx context.Context, cfg *config.Config, store appRepos.Store, lgr zerolog.Logger) (*Dependencies, error) {
	if err := validation.RegisterWithGin(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	options := appServices.LifecycleOptions{
		AllowReapply:             cfg.Lifecycle.AllowReapply,
		DefaultOpportunityStatus: models.OpportunityStatus(cfg.Lifecycle.DefaultOpportunityStatus),
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	deps := &Dependencies{Store: store, Logger: lgr}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.Hub = websocket.NewHub(cfg.Realtime.QueueSize, logger.Component("hub"))

	deps.AuthzService = appAuth.NewAuthorizationService(store, lgr)
	deps.IdentityService = appServices.NewIdentityService(store, lgr)
	deps.AuthService = appServices.NewAuthService(store, deps.JWTService, lgr)
	deps.OpportunityService = appServices.NewOpportunityService(store, deps.AuthzService, options, lgr)
	deps.ApplicationService = appServices.NewApplicationService(store, deps.AuthzService, options, lgr)
	deps.SavedService = appServices.NewSavedOpportunityService(store, deps.AuthzService, lgr)
	deps.MessageService = appServices.NewMessageService(store, deps.Hub, lgr)
	deps.ProfileService = appServices.NewProfileService(store, deps.AuthzService, deps.IdentityService, deps.OpportunityService, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.IdentityService)
	if cfg.RateLimit.Enabled {
		deps.RateLimiter = appMiddleware.NewRateLimiter(
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
			helpers.ParseDuration(cfg.RateLimit.IdleTTL, 10*time.Minute),
			logger.Component("ratelimit"),
		)
	}

	socketLogger := logger.Component("websocket")
	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(deps.AuthService, lgr),
		Opportunity: appControllers.NewOpportunityController(deps.OpportunityService, lgr),
		Application: appControllers.NewApplicationController(deps.ApplicationService, lgr),
		Saved:       appControllers.NewSavedOpportunityController(deps.SavedService, lgr),
		Message:     appControllers.NewMessageController(deps.MessageService, lgr),
		Profile:     appControllers.NewProfileController(deps.ProfileService, lgr),
		WebSocket: websocket.NewHandler(ctx, deps.Hub,
			websocket.NewMessageHandler(deps.MessageService, helpers.ParseDuration(cfg.Realtime.FrameTimeout, 5*time.Second), socketLogger),
			websocket.Config{SendBuffer: cfg.Realtime.SendBuffer, AllowedOrigins: cfg.Realtime.AllowedOrigins},
			socketLogger,
		),
	}

	return deps, nil
}

// StartBackground runs the hub and the rate limiter sweeper until ctx is done
func StartBackground(ctx context.Context, deps *Dependencies) {
	go deps.Hub.Run(ctx)
	if deps.RateLimiter != nil {
		deps.RateLimiter.StartCleanup(ctx, time.Minute)
	}
}

// SeedDemoData loads the demo accounts through the services
func SeedDemoData(ctx context.Context, deps *Dependencies) error {
	return seed.CreateDemoData(ctx, seed.Services{
		Auth:          deps.AuthService,
		Opportunities: deps.OpportunityService,
		Applications:  deps.ApplicationService,
		Messages:      deps.MessageService,
	}, logger.Component("seed"))
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(logger.Component("http")),
		metrics.GinMiddleware(),
	)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.RateLimiter)
	return router
}
