package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first environment file found among envFilePath (searched
// upwards from the working directory), falling back to .env, and then
// processes the environment into App.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()

	for _, path := range envFilePath {
		foundPath, err := FindEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path)
			continue
		}
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		logger.Info("Loaded environment from file", "path", foundPath)
		return loadFromEnv()
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found, using system environment variables")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.Url),
		"event_bus", cfg.EventBus.Driver,
		"idempotency", cfg.Ledger.IdempotencyDriver,
		"lock_timeout", cfg.Ledger.LockTimeout,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"jwt_secret", maskValue(cfg.Auth.Jwt.Secret),
	)
	return &cfg, nil
}

func (c *App) validate() error {
	if c.Auth.Jwt.Secret == "" {
		return fmt.Errorf("config: AUTH_JWT_SECRET must be set")
	}
	switch strings.ToLower(c.EventBus.Driver) {
	case "memory", "redis", "kafka":
	default:
		return fmt.Errorf("config: unsupported EVENT_BUS_DRIVER %q", c.EventBus.Driver)
	}
	switch strings.ToLower(c.Ledger.IdempotencyDriver) {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("config: unsupported LEDGER_IDEMPOTENCY_DRIVER %q", c.Ledger.IdempotencyDriver)
	}
	if c.Ledger.LockTimeout <= 0 {
		return fmt.Errorf("config: LEDGER_LOCK_TIMEOUT must be positive")
	}
	return nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
