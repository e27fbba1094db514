package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes validate
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 60 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Log:      LogConfig{Level: "info", Format: "json"},
		Database: DatabaseConfig{Driver: DriverSQLite, DSN: "recipebox.db", MaxConnections: 10},
		Cache:    CacheConfig{Type: CacheMemory},
		Matching: MatchingConfig{BatchSize: 5, MaxCandidates: 3, BatchWorkers: 1, PairWindow: 6},
		Auth:     AuthConfig{Mode: AuthModeDisabled},
	}
}

func chdirTemp(t *testing.T) {
	t.Helper()
	originalDir, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(originalDir) })
	os.Chdir(t.TempDir())
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		chdirTemp(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.RequestTimeout != 60*time.Second {
			t.Errorf("Server.RequestTimeout = %v, want 60s", cfg.Server.RequestTimeout)
		}
		if cfg.Server.MaxBodyBytes != 1<<20 {
			t.Errorf("Server.MaxBodyBytes = %d, want %d", cfg.Server.MaxBodyBytes, 1<<20)
		}
		if cfg.Database.Driver != DriverSQLite {
			t.Errorf("Database.Driver = %s, want sqlite", cfg.Database.Driver)
		}
		if cfg.Cache.Type != CacheMemory {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 10*time.Minute {
			t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.Matching.BatchSize != 5 || cfg.Matching.MaxCandidates != 3 || cfg.Matching.PairWindow != 6 {
			t.Errorf("Matching = %+v, want batch 5, candidates 3, window 6", cfg.Matching)
		}
		if cfg.Auth.Enabled() {
			t.Error("Auth.Enabled() = true, want false by default")
		}
		if !cfg.Vocabulary.Watch {
			t.Error("Vocabulary.Watch = false, want true")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("RECIPEBOX_SERVER_PORT", "9090")
		t.Setenv("RECIPEBOX_SERVER_ENVIRONMENT", "production")
		t.Setenv("RECIPEBOX_SERVER_REQUEST_TIMEOUT", "5s")
		t.Setenv("RECIPEBOX_DATABASE_DRIVER", "postgres")
		t.Setenv("RECIPEBOX_DATABASE_DSN", "postgres://localhost/recipebox")
		t.Setenv("RECIPEBOX_CACHE_TYPE", "redis")
		t.Setenv("RECIPEBOX_CACHE_REDIS_URL", "redis://localhost:6379")
		t.Setenv("RECIPEBOX_CACHE_TTL", "24h")
		t.Setenv("RECIPEBOX_RATELIMIT_PER_IP", "200")
		t.Setenv("RECIPEBOX_MATCHING_BATCH_WORKERS", "4")
		t.Setenv("RECIPEBOX_AUTH_MODE", "token")
		t.Setenv("RECIPEBOX_AUTH_TOKEN", "secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if !cfg.Server.IsProduction() {
			t.Errorf("Server.IsProduction() = false, want true")
		}
		if cfg.Server.RequestTimeout != 5*time.Second {
			t.Errorf("Server.RequestTimeout = %v, want 5s", cfg.Server.RequestTimeout)
		}
		if cfg.Database.Driver != DriverPostgres || cfg.Database.DSN != "postgres://localhost/recipebox" {
			t.Errorf("Database = %+v", cfg.Database)
		}
		if cfg.Cache.Type != CacheRedis {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Matching.BatchWorkers != 4 {
			t.Errorf("Matching.BatchWorkers = %d, want 4", cfg.Matching.BatchWorkers)
		}
		if !cfg.Auth.Enabled() || cfg.Auth.Token != "secret" {
			t.Errorf("Auth = %+v, want token mode", cfg.Auth)
		}
	})

	t.Run("reads config.yaml from the working directory", func(t *testing.T) {
		chdirTemp(t)
		content := "server:\n  port: \"7070\"\nmatching:\n  max_candidates: 2\n"
		if err := os.WriteFile("config.yaml", []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config.yaml: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
		if cfg.Matching.MaxCandidates != 2 {
			t.Errorf("Matching.MaxCandidates = %d, want 2", cfg.Matching.MaxCandidates)
		}
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		chdirTemp(t)

		if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("LoadFile() error = nil, want error for missing file")
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("RECIPEBOX_CACHE_TYPE", "invalid")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("RECIPEBOX_CACHE_TYPE", "redis")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing Redis URL")
		}
		if !strings.HasPrefix(err.Error(), "invalid configuration: ") {
			t.Errorf("Load() error = %v, want invalid configuration prefix", err)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		chdirTemp(t)

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		chdirTemp(t)

		envContent := `
# Comment line
TEST_VAR_1=value1

# TEST_COMMENTED=should_not_load
TEST_VAR_2=value2
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
		})

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.Server.Port = "" }, true},
		{"sub-second timeout", func(c *Config) { c.Server.RequestTimeout = time.Millisecond }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"sqlite without dsn", func(c *Config) { c.Database.DSN = "" }, true},
		{"file driver without seed", func(c *Config) { c.Database.Driver = DriverFile }, true},
		{"file driver with seed", func(c *Config) {
			c.Database.Driver = DriverFile
			c.Database.DSN = ""
			c.Vocabulary.SeedFile = "vocabulary.yaml"
		}, false},
		{"invalid cache type", func(c *Config) { c.Cache.Type = "invalid-type" }, true},
		{"cache disabled", func(c *Config) { c.Cache.Type = CacheNone }, false},
		{"redis with URL", func(c *Config) {
			c.Cache.Type = CacheRedis
			c.Cache.RedisURL = "redis://localhost:6379"
		}, false},
		{"redis without URL", func(c *Config) { c.Cache.Type = CacheRedis }, true},
		{"negative rate limit", func(c *Config) { c.RateLimit.PerIP = -1 }, true},
		{"zero batch size", func(c *Config) { c.Matching.BatchSize = 0 }, true},
		{"zero workers", func(c *Config) { c.Matching.BatchWorkers = 0 }, true},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "oauth" }, true},
		{"token mode without token", func(c *Config) { c.Auth.Mode = AuthModeToken }, true},
		{"token mode with token", func(c *Config) {
			c.Auth.Mode = AuthModeToken
			c.Auth.Token = "secret"
		}, false},
		{"empty auth mode defaults to disabled", func(c *Config) { c.Auth.Mode = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
