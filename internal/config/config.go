// Package config provides functionality for managing configuration options
// for the storefront client and the demo backend using a config file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Authentication strategies. Exactly one is active per process.
const (
	StrategyBearer = "bearer"
	StrategyCookie = "cookie"
)

// envReplacer maps nested keys onto variable names: api.base_url is read
// from STOREFRONT_API_BASE_URL.
var envReplacer = strings.NewReplacer(".", "_")

// Startup modes of the session manager.
const (
	StartupTrustLocal = "trust-local"
	StartupProbe      = "probe"
)

// Options holds the configuration values for the application.
type Options struct {
	// API configures the backend connection.
	API APIOptions `mapstructure:"api"`

	// Auth selects how the session is established and restored.
	Auth AuthOptions `mapstructure:"auth"`

	// Storage selects the durable key-value backend.
	Storage StorageOptions `mapstructure:"storage"`

	// Logging configures zap.
	Logging LoggingOptions `mapstructure:"logging"`

	// Server configures the demo backend.
	Server ServerOptions `mapstructure:"server"`
}

// APIOptions configures the HTTP client facade.
type APIOptions struct {
	// BaseURL is prefixed to every endpoint path, e.g. http://localhost:8080/api.
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds a single request.
	Timeout time.Duration `mapstructure:"timeout"`
	// CAFile is an optional PEM bundle used to verify the backend.
	CAFile string `mapstructure:"ca_file"`
	// CertFile and KeyFile enable a client certificate.
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
	// TokenFile is consulted first when restoring a bearer token.
	TokenFile string `mapstructure:"token_file"`
}

// AuthOptions selects the authentication strategy and startup mode.
type AuthOptions struct {
	Strategy string `mapstructure:"strategy"`
	Startup  string `mapstructure:"startup"`
}

// StorageOptions selects the durable store driver.
type StorageOptions struct {
	Driver        string        `mapstructure:"driver"`
	Path          string        `mapstructure:"path"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
}

// LoggingOptions configures the process logger.
type LoggingOptions struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerOptions configures the demo backend.
type ServerOptions struct {
	Addr string `mapstructure:"addr"`
	// CertFile and KeyFile switch the listener to HTTPS.
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
	// ClientCAFile verifies client certificates when a client presents one.
	ClientCAFile string `mapstructure:"client_ca_file"`
	// JWTSecret signs issued tokens. A random secret is generated when empty,
	// which invalidates all tokens on restart.
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTL is the lifetime of an issued token.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// RequireApproval keeps new accounts PENDING until an admin approves them.
	RequireApproval bool `mapstructure:"require_approval"`
	// AdminEmail and AdminPassword seed an admin account. No admin is created
	// when the password is empty.
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

// Validate reports configuration combinations the client cannot run with.
func (o *Options) Validate() error {
	switch o.Auth.Strategy {
	case StrategyBearer, StrategyCookie:
	default:
		return fmt.Errorf("unknown auth strategy %q", o.Auth.Strategy)
	}
	switch o.Auth.Startup {
	case StartupTrustLocal, StartupProbe:
	default:
		return fmt.Errorf("unknown startup mode %q", o.Auth.Startup)
	}
	if o.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if (o.API.CertFile == "") != (o.API.KeyFile == "") {
		return errors.New("api.cert_file and api.key_file must be set together")
	}
	return nil
}

// Dir returns the per-user directory holding the config and file storage.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(home, ".storefront")
}

// Load reads configuration from configPath (or config.yaml in Dir() and the
// working directory when empty), then from STOREFRONT_* environment
// variables. A missing default config file is not an error.
func Load(configPath string) (*Options, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return &opts, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.ca_file", "")
	v.SetDefault("api.cert_file", "")
	v.SetDefault("api.key_file", "")
	v.SetDefault("api.token_file", "")
	v.SetDefault("auth.strategy", StrategyBearer)
	v.SetDefault("auth.startup", StartupTrustLocal)
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", filepath.Join(Dir(), "storage.json"))
	v.SetDefault("storage.timeout", 2*time.Second)
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", "storefront:")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("server.addr", "localhost:8080")
	v.SetDefault("server.cert_file", "")
	v.SetDefault("server.key_file", "")
	v.SetDefault("server.client_ca_file", "")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.token_ttl", 24*time.Hour)
	v.SetDefault("server.require_approval", false)
	v.SetDefault("server.admin_email", "admin@storefront.local")
	v.SetDefault("server.admin_password", "")
}
