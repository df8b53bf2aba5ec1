package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	Lookup   LookupConfig   `yaml:"lookup" json:"lookup"`
	Jobs     JobsConfig     `yaml:"jobs" json:"jobs"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Security SecurityConfig `yaml:"security" json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `yaml:"port" json:"port"`
	Environment  string `yaml:"environment" json:"environment"`
	ReadTimeout  int    `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  int    `yaml:"idle_timeout" json:"idle_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	Host         string        `yaml:"host" json:"host"`
	Port         int           `yaml:"port" json:"port"`
	Password     string        `yaml:"password" json:"-"`
	DB           int           `yaml:"db" json:"db"`
	PoolSize     int           `yaml:"pool_size" json:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// LookupConfig holds the BrasilAPI client configuration
type LookupConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay"`
	PacingDelay time.Duration `yaml:"pacing_delay" json:"pacing_delay"`
}

// JobsConfig holds the HTTP job runner configuration
type JobsConfig struct {
	QueueSize      int           `yaml:"queue_size" json:"queue_size"`
	TTL            time.Duration `yaml:"ttl" json:"ttl"`
	MaxLogLines    int           `yaml:"max_log_lines" json:"max_log_lines"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" json:"max_upload_bytes"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" json:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" json:"allow_credentials"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Environment:  "development",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         6379,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Lookup: LookupConfig{
			BaseURL:     "https://brasilapi.com.br/api/cnpj/v1",
			UserAgent:   "Mozilla/5.0",
			Timeout:     15 * time.Second,
			MaxRetries:  3,
			RetryDelay:  10 * time.Second,
			PacingDelay: 200 * time.Millisecond,
		},
		Jobs: JobsConfig{
			QueueSize:      100,
			TTL:            24 * time.Hour,
			MaxLogLines:    500,
			MaxUploadBytes: 10 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 100,
				BurstSize:         10,
				CleanupInterval:   60 * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays a YAML file on cfg
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvAsInt("PORT", cfg.Server.Port)
	cfg.Server.Environment = getEnv("ENVIRONMENT", cfg.Server.Environment)
	cfg.Server.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvAsInt("IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnvAsInt("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize)
	cfg.Redis.DialTimeout = getEnvAsDuration("REDIS_DIAL_TIMEOUT", cfg.Redis.DialTimeout)
	cfg.Redis.ReadTimeout = getEnvAsDuration("REDIS_READ_TIMEOUT", cfg.Redis.ReadTimeout)
	cfg.Redis.WriteTimeout = getEnvAsDuration("REDIS_WRITE_TIMEOUT", cfg.Redis.WriteTimeout)

	cfg.Lookup.BaseURL = getEnv("LOOKUP_BASE_URL", cfg.Lookup.BaseURL)
	cfg.Lookup.UserAgent = getEnv("LOOKUP_USER_AGENT", cfg.Lookup.UserAgent)
	cfg.Lookup.Timeout = getEnvAsDuration("LOOKUP_TIMEOUT", cfg.Lookup.Timeout)
	cfg.Lookup.MaxRetries = getEnvAsInt("LOOKUP_MAX_RETRIES", cfg.Lookup.MaxRetries)
	cfg.Lookup.RetryDelay = getEnvAsDuration("LOOKUP_RETRY_DELAY", cfg.Lookup.RetryDelay)
	cfg.Lookup.PacingDelay = getEnvAsDuration("LOOKUP_PACING_DELAY", cfg.Lookup.PacingDelay)

	cfg.Jobs.QueueSize = getEnvAsInt("JOBS_QUEUE_SIZE", cfg.Jobs.QueueSize)
	cfg.Jobs.TTL = getEnvAsDuration("JOBS_TTL", cfg.Jobs.TTL)
	cfg.Jobs.MaxLogLines = getEnvAsInt("JOBS_MAX_LOG_LINES", cfg.Jobs.MaxLogLines)
	cfg.Jobs.MaxUploadBytes = int64(getEnvAsInt("JOBS_MAX_UPLOAD_BYTES", int(cfg.Jobs.MaxUploadBytes)))

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Security.RateLimit.RequestsPerMinute = getEnvAsInt("RATE_LIMIT_RPM", cfg.Security.RateLimit.RequestsPerMinute)
	cfg.Security.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", cfg.Security.RateLimit.BurstSize)
	cfg.Security.RateLimit.CleanupInterval = getEnvAsDuration("RATE_LIMIT_CLEANUP", cfg.Security.RateLimit.CleanupInterval)
	cfg.Security.CORS.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", cfg.Security.CORS.AllowedOrigins)
}

// Validate rejects configurations the services cannot run with
func (c *Config) Validate() error {
	u, err := url.Parse(c.Lookup.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid lookup base url %q", c.Lookup.BaseURL)
	}
	if c.Lookup.Timeout <= 0 {
		return fmt.Errorf("lookup timeout must be positive, got %s", c.Lookup.Timeout)
	}
	if c.Lookup.MaxRetries < 0 {
		return fmt.Errorf("lookup max retries must not be negative, got %d", c.Lookup.MaxRetries)
	}
	if c.Lookup.RetryDelay < 0 || c.Lookup.PacingDelay < 0 {
		return fmt.Errorf("lookup delays must not be negative")
	}
	if c.Jobs.QueueSize <= 0 {
		return fmt.Errorf("jobs queue size must be positive, got %d", c.Jobs.QueueSize)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("200ms", "10s") or bare seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
