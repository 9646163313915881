package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the portal
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Public   PublicConfig   `yaml:"public"`
	Sessions SessionsConfig `yaml:"sessions"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Exams    ExamsConfig    `yaml:"exams"`
	Drafts   DraftsConfig   `yaml:"drafts"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// APIConfig points at the platform API
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PublicConfig holds the browser-facing base URL used in share links
type PublicConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SessionsConfig selects where auth sessions are kept
type SessionsConfig struct {
	Backend    string        `yaml:"backend"`
	FilePath   string        `yaml:"file_path"`
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN           string `yaml:"dsn"`
	MigrationsDir string `yaml:"migrations_dir"`
	MaxConns      int    `yaml:"max_conns"`
}

// ExamsConfig holds idle exam sweeping configuration
type ExamsConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DraftsConfig points at the shared draft library
type DraftsConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in configuration
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        3000,
			CORSOrigins: []string{"*"},
		},
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Public: PublicConfig{
			BaseURL: "http://localhost:3000",
		},
		Sessions: SessionsConfig{
			Backend:    BackendMemory,
			FilePath:   filepath.Join(home, ".portal", "session.yaml"),
			CookieName: "portal_sid",
			TTL:        24 * time.Hour,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Database: DatabaseConfig{
			MigrationsDir: "./migrations",
			MaxConns:      10,
		},
		Exams: ExamsConfig{
			IdleTimeout:   3 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Drafts: DraftsConfig{
			Dir: "./drafts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load resolves configuration from defaults, the CONFIG_FILE yaml file,
// a .env file in the working directory and the environment, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)

	c.API.BaseURL = getEnv("PORTAL_API_URL", c.API.BaseURL)
	c.API.Timeout = getEnvAsDuration("PORTAL_API_TIMEOUT", c.API.Timeout)

	c.Public.BaseURL = getEnv("PUBLIC_BASE_URL", c.Public.BaseURL)

	c.Sessions.Backend = getEnv("SESSION_BACKEND", c.Sessions.Backend)
	c.Sessions.FilePath = getEnv("SESSION_FILE", c.Sessions.FilePath)
	c.Sessions.CookieName = getEnv("SESSION_COOKIE", c.Sessions.CookieName)
	c.Sessions.TTL = getEnvAsDuration("SESSION_TTL", c.Sessions.TTL)

	c.Redis.Address = getEnv("REDIS_ADDRESS", c.Redis.Address)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)

	c.Database.DSN = getEnv("DATABASE_DSN", c.Database.DSN)
	c.Database.MigrationsDir = getEnv("MIGRATIONS_DIR", c.Database.MigrationsDir)
	c.Database.MaxConns = getEnvAsInt("DATABASE_MAX_CONNS", c.Database.MaxConns)

	c.Exams.IdleTimeout = getEnvAsDuration("EXAM_IDLE_TIMEOUT", c.Exams.IdleTimeout)
	c.Exams.SweepInterval = getEnvAsDuration("EXAM_SWEEP_INTERVAL", c.Exams.SweepInterval)

	c.Drafts.Dir = getEnv("DRAFTS_DIR", c.Drafts.Dir)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Pretty = getEnvAsBool("LOG_PRETTY", c.Logging.Pretty)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api base url: %q", c.API.BaseURL)
	}

	switch c.Sessions.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Sessions.FilePath == "" {
			return fmt.Errorf("session file path is required for the file backend")
		}
	case BackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown session backend: %q", c.Sessions.Backend)
	}

	if c.Sessions.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}
	if c.Exams.SweepInterval <= 0 {
		return fmt.Errorf("exam sweep interval must be positive")
	}

	return nil
}

// Address returns the listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
