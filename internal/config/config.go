package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable holding the OpenWeatherMap credential.
const APIKeyEnv = "OPENWEATHER_API_KEY"

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey  string `validate:"required"`
	OpenWeatherBaseURL string `validate:"required,url"`

	// HTTPTimeout bounds each outbound call; 0 leaves the transport defaults in place.
	HTTPTimeout time.Duration `validate:"gte=0"`

	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level

	// Windowed mode.
	WindowAddr        string        `validate:"required,hostname_port"`
	WindowTick        time.Duration `validate:"gt=0"`
	WindowOpenBrowser bool
}

// Load reads configuration from the environment (and a .env file, if any)
// with sensible defaults. A missing API key is an error.
func Load() (*AppConfig, error) {
	// A missing .env is normal; the environment may already be populated.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = strings.TrimSpace(os.Getenv(APIKeyEnv))
	if cfg.OpenWeatherAPIKey == "" {
		return nil, fmt.Errorf("%s not found; set it in the environment or a .env file", APIKeyEnv)
	}
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "warn"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.WindowAddr = getenvDefault("WINDOW_ADDR", "127.0.0.1:8765")

	tick, err := time.ParseDuration(getenvDefault("WINDOW_TICK", "250ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid WINDOW_TICK: %w", err)
	}
	cfg.WindowTick = tick

	cfg.WindowOpenBrowser, err = getenvBool("WINDOW_OPEN_BROWSER", true)
	if err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
