package app

import (
	"database/sql"

	"go-hrms/internal/audit"
	"go-hrms/internal/config"
	"go-hrms/internal/middleware"
	"go-hrms/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the connections shared by every module of a process.
type Infra struct {
	GormDB *gorm.DB
	DB     *sql.DB
	Redis  *redis.Client
}

func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
}

func connectDatabase(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DB.Host,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Name,
		cfg.DB.Port,
		cfg.DB.SSLMode,
		connection.PoolConfig{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		},
		cfg.Retries,
	)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}

// BuildApp connects Postgres and Redis, installs the request middleware and
// registers every module on router. The returned recorder is used for server
// lifecycle entries; the caller closes the returned Infra on shutdown.
func BuildApp(router *gin.Engine, cfg *config.Config, logger *zap.Logger) (*Infra, audit.Recorder, error) {
	log := logger.Named("app")

	gormDB, sqlDB, err := connectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("database connection established", zap.String("host", cfg.DB.Host))

	rdb, err := connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Retries)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	log.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))

	infra := &Infra{GormDB: gormDB, DB: sqlDB, Redis: rdb}

	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(logger),
	)

	recorder, err := registerModules(router, cfg, infra, logger)
	if err != nil {
		infra.Close()
		return nil, nil, err
	}
	return infra, recorder, nil
}

// ConnectDatabase opens Postgres only, for processes that serve no HTTP.
func ConnectDatabase(cfg *config.Config) (*Infra, error) {
	gormDB, sqlDB, err := connectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return &Infra{GormDB: gormDB, DB: sqlDB}, nil
}
