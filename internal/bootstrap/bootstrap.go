// Package bootstrap connects the stores and builds the services shared by
// the API server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"taskboard-be/config"
	"taskboard-be/internal/database"
	"taskboard-be/internal/locking"
	"taskboard-be/internal/repository"
	"taskboard-be/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// App owns the connections behind the services.
type App struct {
	Services *services.Services
	Mongo    *database.MongoDB
	Redis    *redis.Client
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// Open connects to MongoDB (and Redis when configured), creates indexes and
// wires the services.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	mongodb, err := database.NewMongoDB(cfg.MongoDBURI, cfg.MongoDBDatabase, cfg.MongoDBTransactions)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	boardRepo := repository.NewBoardRepository(mongodb.Database)
	taskRepo := repository.NewTaskRepository(mongodb.Database)
	inviteRepo := repository.NewInviteRepository(mongodb.Database)
	auditRepo := repository.NewAuditRepository(mongodb.Database)
	userRepo := repository.NewUserRepository(mongodb.Database)

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for _, repo := range []indexer{boardRepo, taskRepo, inviteRepo, auditRepo, userRepo} {
		if err := repo.EnsureIndexes(indexCtx); err != nil {
			_ = mongodb.Disconnect()
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
	}

	app := &App{Mongo: mongodb}
	var locker locking.Locker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			_ = mongodb.Disconnect()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		app.Redis = redis.NewClient(opts)
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		locker = locking.NewRedisLocker(app.Redis, cfg.BoardLockTTL, cfg.BoardLockWait)
		logrus.WithField("addr", opts.Addr).Info("board locks backed by Redis")
	} else {
		locker = locking.NewLocalLocker(cfg.BoardLockWait)
		logrus.Warn("REDIS_URL not set, board locks are local to this process")
	}

	app.Services = services.New(services.Stores{
		Boards:  boardRepo,
		Tasks:   taskRepo,
		Invites: inviteRepo,
		Audit:   auditRepo,
		Users:   userRepo,
		Stats:   repository.NewStatisticsRepository(mongodb.Database),
		Tx:      mongodb,
	}, locker, services.Config{
		AuditTimeout: cfg.AuditTimeout,
		TicketAlias:  cfg.AuditTicketAlias,
	})
	return app, nil
}

// Close releases the connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logrus.WithError(err).Warn("close redis")
		}
	}
	if err := a.Mongo.Disconnect(); err != nil {
		logrus.WithError(err).Warn("disconnect mongodb")
	}
}

// ConfigureLogging applies LOG_LEVEL and the JSON formatter.
func ConfigureLogging(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
