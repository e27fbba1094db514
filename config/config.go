package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverFile     = "file"
)

// Cache types
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Auth modes
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Database   DatabaseConfig
	Vocabulary VocabularyConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Matching   MatchingConfig
	Auth       AuthConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// DatabaseConfig selects and configures the vocabulary store
type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"` // "sqlite", "postgres" or "file"
	DSN            string `mapstructure:"dsn"`
	MaxConnections int32  `mapstructure:"max_connections"`
}

// VocabularyConfig holds seed file settings
type VocabularyConfig struct {
	SeedFile string `mapstructure:"seed_file"`
	Watch    bool   `mapstructure:"watch"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "none", "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// MatchingConfig tunes the extraction and batch matching pipeline
type MatchingConfig struct {
	BatchSize     int  `mapstructure:"batch_size"`
	MaxCandidates int  `mapstructure:"max_candidates"`
	BatchWorkers  int  `mapstructure:"batch_workers"`
	PairWindow    int  `mapstructure:"pair_window"`
	Debug         bool `mapstructure:"debug"`
}

// AuthConfig holds authentication configuration.
//
// Mode "disabled" serves every caller; "token" requires
// "Authorization: Bearer <token>" on the API routes.
type AuthConfig struct {
	Mode  string `mapstructure:"mode"`
	Token string `mapstructure:"token"`
}

// Enabled returns true when bearer token authentication is enforced
func (c AuthConfig) Enabled() bool {
	return c.Mode == AuthModeToken
}

// IsProduction reports whether the server runs in production mode
func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from the default search paths
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path, or from the default search
// paths when path is empty. Environment variables override file values.
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/recipebox/")
	}

	// Environment variable settings
	v.SetEnvPrefix("RECIPEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional when searching; an explicit path must exist
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// setDefaults sets default configuration values. Every key gets a default
// so that environment overrides are seen by Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "recipebox.db")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("vocabulary.seed_file", "")
	v.SetDefault("vocabulary.watch", true)

	// Cache defaults
	v.SetDefault("cache.type", CacheMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("matching.batch_size", 5)
	v.SetDefault("matching.max_candidates", 3)
	v.SetDefault("matching.batch_workers", 1)
	v.SetDefault("matching.pair_window", 6)
	v.SetDefault("matching.debug", false)

	v.SetDefault("auth.mode", AuthModeDisabled)
	v.SetDefault("auth.token", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if err := validation.ValidateStruct(&config.Server,
		validation.Field(&config.Server.Port, validation.Required),
		validation.Field(&config.Server.RequestTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&config.Server.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := validation.ValidateStruct(&config.Log,
		validation.Field(&config.Log.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&config.Log.Format, validation.Required, validation.In("json", "console")),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if err := validation.ValidateStruct(&config.Database,
		validation.Field(&config.Database.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres, DriverFile)),
		validation.Field(&config.Database.DSN, validation.When(config.Database.Driver != DriverFile, validation.Required)),
		validation.Field(&config.Database.MaxConnections, validation.Min(int32(1))),
	); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if config.Database.Driver == DriverFile && config.Vocabulary.SeedFile == "" {
		return fmt.Errorf("vocabulary seed file is required for the %q driver (set RECIPEBOX_VOCABULARY_SEED_FILE)", DriverFile)
	}

	if config.Cache.Type != CacheNone && config.Cache.Type != CacheMemory && config.Cache.Type != CacheRedis {
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == CacheRedis && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if err := validation.ValidateStruct(&config.RateLimit,
		validation.Field(&config.RateLimit.PerIP, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("ratelimit: %w", err)
	}

	if err := validation.ValidateStruct(&config.Matching,
		validation.Field(&config.Matching.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&config.Matching.MaxCandidates, validation.Required, validation.Min(1)),
		validation.Field(&config.Matching.BatchWorkers, validation.Required, validation.Min(1)),
		validation.Field(&config.Matching.PairWindow, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("matching: %w", err)
	}

	if config.Auth.Mode == "" {
		config.Auth.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(&config.Auth,
		validation.Field(&config.Auth.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if config.Auth.Enabled() && config.Auth.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}

	return nil
}
