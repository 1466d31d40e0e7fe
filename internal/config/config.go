package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/swelljoe/wthr-widget/internal/weather"
)

// Config holds runtime settings for the server and the terminal client.
type Config struct {
	Port          string
	DBPath        string
	StaticDir     string
	GeocodingURL  string
	ForecastURL   string
	UserAgent     string
	HTTPTimeout   time.Duration
	UpstreamRPS   float64
	UpstreamBurst int
	CacheTTL      time.Duration
	IconMode      string
	LogLevel      string
	LogFormat     string
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		DBPath:       getEnvOrDefault("DB_PATH", "wthr.db"),
		StaticDir:    getEnvOrDefault("STATIC_DIR", "static"),
		GeocodingURL: getEnvOrDefault("GEOCODING_URL", weather.DefaultGeocodingURL),
		ForecastURL:  getEnvOrDefault("FORECAST_URL", weather.DefaultForecastURL),
		UserAgent:    getEnvOrDefault("USER_AGENT", weather.DefaultUserAgent),
		IconMode:     strings.ToLower(getEnvOrDefault("ICON_MODE", "remote")),
		LogLevel:     strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
	}

	var err error
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.UpstreamRPS, err = floatEnv("UPSTREAM_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.UpstreamBurst, err = intEnv("UPSTREAM_BURST", 10); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.IconMode {
	case "remote", "local":
	default:
		return fmt.Errorf("ICON_MODE must be remote or local, got %q", c.IconMode)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %s", c.CacheTTL)
	}
	if c.UpstreamRPS < 0 {
		return fmt.Errorf("UPSTREAM_RPS must not be negative, got %v", c.UpstreamRPS)
	}
	return nil
}

// ClientOptions maps the upstream settings onto the weather client.
func (c *Config) ClientOptions() weather.ClientOptions {
	return weather.ClientOptions{
		GeocodingURL: c.GeocodingURL,
		ForecastURL:  c.ForecastURL,
		UserAgent:    c.UserAgent,
		Timeout:      c.HTTPTimeout,
		RPS:          c.UpstreamRPS,
		Burst:        c.UpstreamBurst,
	}
}

// Formatter returns the presentation formatter for the configured icon mode.
func (c *Config) Formatter() weather.Formatter {
	if c.IconMode == "local" {
		return weather.Formatter{LocalIconBase: "/static/icons"}
	}
	return weather.Formatter{}
}

// NewLogger builds the process logger.
func (c *Config) NewLogger() (*zap.Logger, error) {
	return c.NewLoggerTo()
}

// NewLoggerTo builds a logger writing to the given paths instead of
// stderr. The terminal client uses it to keep logs off the screen.
func (c *Config) NewLoggerTo(paths ...string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if c.LogFormat == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if len(paths) > 0 {
		zc.OutputPaths = paths
		zc.ErrorOutputPaths = paths
	}
	return zc.Build()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
