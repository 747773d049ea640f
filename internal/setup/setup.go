// Package setup bootstraps the application's shared dependencies.
package setup

import (
	"context"
	"log"

	"github.com/modwatch/sentinel/internal/database"
	"github.com/modwatch/sentinel/internal/enforce"
	"github.com/modwatch/sentinel/internal/membership"
	"github.com/modwatch/sentinel/internal/moderation"
	"github.com/modwatch/sentinel/internal/queue"
	"github.com/modwatch/sentinel/internal/redis"
	"github.com/modwatch/sentinel/internal/scoring"
	"github.com/modwatch/sentinel/internal/setup/config"
	"github.com/modwatch/sentinel/internal/worker/core"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config      // Application configuration
	Logger       *zap.Logger         // Main application logger
	DBLogger     *zap.Logger         // Database-specific logger
	DB           database.Client     // Database connection pool
	RedisManager *redis.Manager      // Redis connection manager
	StatusClient rueidis.Client      // Redis client for worker status reporting
	Queue        *queue.Manager      // Moderation request queue
	Scorer       *scoring.Scorer     // Risk scoring pipeline
	Engine       *enforce.Engine     // Enforcement decision engine
	Membership   membership.Client   // Platform restriction collaborator
	Service      *moderation.Service // Moderation pipeline front door
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, logDir string) (*App, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, dbLogger, err := GetLoggers(logDir, cfg.Debug.LogLevel, cfg.Debug.MaxLogsToKeep)
	if err != nil {
		return nil, err
	}

	redisManager := redis.NewManager(&cfg.Redis, logger)
	member := membership.NewNoopClient(logger)

	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, member, dbLogger, true)
	if err != nil {
		return nil, err
	}

	queueClient, err := redisManager.GetClient(redis.QueueDBIndex)
	if err != nil {
		return nil, err
	}

	cacheClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, err
	}

	statusClient, err := redisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		return nil, err
	}

	queueManager := queue.NewManager(queueClient, cacheClient, &cfg.Moderation, logger)
	scorer := scoring.NewScorer(&cfg.Moderation, logger)
	engine := enforce.NewEngine(db, member, cfg, logger)
	monitor := core.NewMonitor(statusClient, logger)

	service := moderation.NewService(
		cfg, scorer, engine, queueManager, db, member, monitor, logger,
	)

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		StatusClient: statusClient,
		Queue:        queueManager,
		Scorer:       scorer,
		Engine:       engine,
		Membership:   member,
		Service:      service,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(_ context.Context) {
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need them during cleanup
	s.RedisManager.Close()
}
