package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/raiinmaker-verify/src/actions/core"
	"github.com/stake-plus/raiinmaker-verify/src/actions/verify"
	"github.com/stake-plus/raiinmaker-verify/src/config"
	"github.com/stake-plus/raiinmaker-verify/src/data"
	"github.com/stake-plus/raiinmaker-verify/src/memory"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type (
	// Manager re-exports the core.Manager for consumers outside the actions package.
	Manager = core.Manager
	// Module re-exports the core.Module interface.
	Module = core.Module
)

// Options control how the runtime finds its settings.
type Options struct {
	// SettingsFile is an optional YAML file layered under the settings table.
	SettingsFile string
	Logger       *zap.Logger
}

// Runtime holds the shared stores and the orchestrator every surface uses.
type Runtime struct {
	Settings     *config.Settings
	Memory       memory.Store
	Orchestrator *verify.Orchestrator
	Logger       *zap.Logger

	db  *gorm.DB
	rdb *redis.Client
}

// NewRuntime connects MySQL when a DSN is configured and Redis when a redis
// URL is configured. Without MySQL, audit memory lives in process.
func NewRuntime(ctx context.Context, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rt := &Runtime{Logger: logger}

	var sources []config.Source
	dsn, err := data.MySQLDSN()
	switch {
	case errors.Is(err, data.ErrNoDSN):
		logger.Info("MYSQL_DSN not set, audit memory is kept in process")
		rt.Memory = memory.NewMemoryStore()
	case err != nil:
		return nil, fmt.Errorf("runtime: %w", err)
	default:
		db, err := data.ConnectMySQL(dsn, logger)
		if err != nil {
			return nil, fmt.Errorf("runtime: mysql: %w", err)
		}
		rt.db = db
		if err := db.AutoMigrate(&data.Setting{}); err != nil {
			return nil, fmt.Errorf("runtime: migrate settings: %w", err)
		}
		store, err := data.LoadSettings(db)
		if err != nil {
			logger.Warn("settings table unavailable, using file and environment", zap.Error(err))
		} else {
			sources = append(sources, store)
		}
		mem, err := memory.NewGormStore(db)
		if err != nil {
			return nil, fmt.Errorf("runtime: memory store: %w", err)
		}
		rt.Memory = mem
	}

	if opts.SettingsFile != "" {
		file, err := config.LoadFile(opts.SettingsFile)
		if err != nil {
			return nil, fmt.Errorf("runtime: settings file: %w", err)
		}
		sources = append(sources, file)
	}
	rt.Settings = config.NewSettings(sources...)

	deps := verify.Deps{
		Config: func() config.Verify { return config.LoadVerify(rt.Settings) },
		Memory: rt.Memory,
		Logger: logger,
	}

	initial := config.LoadVerify(rt.Settings)
	if initial.RedisURL != "" {
		rdb, err := data.OpenRedis(ctx, initial.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, in-flight guard and events disabled", zap.Error(err))
		} else {
			rt.rdb = rdb
			deps.Guard = data.NewInFlight(rdb, initial.DedupeTTL)
			deps.Events = data.StreamPublisher{RDB: rdb}
		}
	}
	rt.Orchestrator = verify.New(deps)
	return rt, nil
}

// Close releases database and Redis connections.
func (rt *Runtime) Close() error {
	var firstErr error
	if rt.rdb != nil {
		firstErr = rt.rdb.Close()
	}
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
