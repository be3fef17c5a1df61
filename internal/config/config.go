package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

const DEFAULT_PORT = "8480"
const DEFAULT_MODEL_CACHE_TTL = 30 * time.Minute

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	port             string
	dBHost           string
	dBPassword       string
	dBUsername       string
	sentryDSN        string
	toolingAPIURL    string
	notifyWebhookURL string
	modelCacheTTL    time.Duration
	env              environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) DBHost() string {
	return c.dBHost
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) ToolingAPIURL() string {
	return c.toolingAPIURL
}

func (c *Config) NotifyWebhookURL() string {
	return c.notifyWebhookURL
}

func (c *Config) ModelCacheTTL() time.Duration {
	return c.modelCacheTTL
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf("Config{env: %s, port: %s, modelCacheTTL: %s, ...}", string(c.env), c.port, c.modelCacheTTL)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("LANTERN_ENVIRONMENT")
	if !ok {
		return missingKey("LANTERN_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: LANTERN_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = DEFAULT_PORT
	}

	dbHost := os.Getenv("DB_HOST")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	sentryDSN := os.Getenv("SENTRY_DSN")
	toolingAPIURL := os.Getenv("TOOLING_API_URL")
	notifyWebhookURL := os.Getenv("NOTIFY_WEBHOOK_URL")

	modelCacheTTL := DEFAULT_MODEL_CACHE_TTL
	if rawTTL := os.Getenv("MODEL_CACHE_TTL"); rawTTL != "" {
		parsed, err := time.ParseDuration(rawTTL)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("%w: MODEL_CACHE_TTL (%s)", ErrInvalidValue, rawTTL)
		}
		modelCacheTTL = parsed
	}

	if env == production || env == staging {
		if dbHost == "" {
			return missingKey("DB_HOST")
		}
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if toolingAPIURL == "" {
			return missingKey("TOOLING_API_URL")
		}
	}

	return Config{
		port:             port,
		dBHost:           dbHost,
		dBPassword:       dbPassword,
		dBUsername:       dbUsername,
		sentryDSN:        sentryDSN,
		toolingAPIURL:    toolingAPIURL,
		notifyWebhookURL: notifyWebhookURL,
		modelCacheTTL:    modelCacheTTL,
		env:              env,
	}, nil
}
