package storage

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Driver names a Backend implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverFile     Driver = "file"
	DriverRedis    Driver = "redis"
	DriverPostgres Driver = "postgres"
)

// Option is a functional option for configuring a backend.
type Option func(*backendConfig)

type backendConfig struct {
	path        string
	redisClient *redis.Client
	redisPrefix string
	db          *sql.DB
	log         *zap.Logger
}

// WithPath sets the file used by the file driver.
func WithPath(path string) Option {
	return func(c *backendConfig) {
		c.path = path
	}
}

// WithRedisClient sets the client used by the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *backendConfig) {
		c.redisClient = client
	}
}

// WithRedisPrefix sets the key prefix used by the redis driver.
func WithRedisPrefix(prefix string) Option {
	return func(c *backendConfig) {
		c.redisPrefix = prefix
	}
}

// WithDB sets the database used by the postgres driver. The kv_store table
// must already exist (see db.InitPostgres).
func WithDB(db *sql.DB) Option {
	return func(c *backendConfig) {
		c.db = db
	}
}

// WithLogger sets the logger of backends that report problems they recover
// from on their own.
func WithLogger(log *zap.Logger) Option {
	return func(c *backendConfig) {
		c.log = log
	}
}

// NewBackend creates the backend named by driver.
func NewBackend(driver Driver, opts ...Option) (Backend, error) {
	cfg := &backendConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch driver {
	case DriverMemory:
		return NewMemoryBackend(), nil
	case DriverFile:
		if cfg.path == "" {
			return nil, fmt.Errorf("%w: file driver needs a path", ErrInvalidConfig)
		}
		fb := NewFileBackend(cfg.path)
		if cfg.log != nil {
			fb.log = cfg.log
		}
		return fb, nil
	case DriverRedis:
		if cfg.redisClient == nil {
			return nil, fmt.Errorf("%w: redis driver needs a client", ErrInvalidConfig)
		}
		return NewRedisBackend(cfg.redisClient, cfg.redisPrefix), nil
	case DriverPostgres:
		if cfg.db == nil {
			return nil, fmt.Errorf("%w: postgres driver needs a database", ErrInvalidConfig)
		}
		return NewPostgresBackend(cfg.db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, driver)
	}
}
