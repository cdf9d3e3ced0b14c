package config

import (
	"errors"
	"fmt"
	"os"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const defaultPort = "8080"
const defaultCompletionAPIURL = "https://api.openai.com/v1/chat/completions"
const defaultCompletionModel = "gpt-4o-mini"

type Config struct {
	port                   string
	cloudSQLUnixSocketPath string
	dBPassword             string
	dBUsername             string
	sentryDSN              string
	completionAPIKey       string
	completionAPIURL       string
	completionModel        string
	gcpProject             string
	env                    environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) CloudSQLUnixSocketPath() string {
	return c.cloudSQLUnixSocketPath
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

func (c *Config) CompletionAPIKey() string {
	return c.completionAPIKey
}

func (c *Config) CompletionAPIURL() string {
	return c.completionAPIURL
}

func (c *Config) CompletionModel() string {
	return c.completionModel
}

func (c *Config) GCPProject() string {
	return c.gcpProject
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
	return fmt.Sprintf("Config{env: %s, port: %s, completionModel: %s, ...}", string(c.env), c.port, c.completionModel)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("SOLOLEVELING_ENVIRONMENT")
	if !ok {
		return missingKey("SOLOLEVELING_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: SOLOLEVELING_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	completionAPIURL := os.Getenv("COMPLETION_API_URL")
	if completionAPIURL == "" {
		completionAPIURL = defaultCompletionAPIURL
	}

	completionModel := os.Getenv("COMPLETION_MODEL")
	if completionModel == "" {
		completionModel = defaultCompletionModel
	}

	cloudSQLUnixSocketPath := os.Getenv("CLOUDSQL_UNIX_SOCKET")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	sentryDSN := os.Getenv("SENTRY_DSN")
	completionAPIKey := os.Getenv("COMPLETION_API_KEY")
	gcpProject := os.Getenv("GCP_PROJECT")

	if env == production || env == staging {
		if cloudSQLUnixSocketPath == "" {
			return missingKey("CLOUDSQL_UNIX_SOCKET")
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
		if completionAPIKey == "" {
			return missingKey("COMPLETION_API_KEY")
		}
	}

	return Config{
		port:                   port,
		cloudSQLUnixSocketPath: cloudSQLUnixSocketPath,
		dBPassword:             dbPassword,
		dBUsername:             dbUsername,
		sentryDSN:              sentryDSN,
		completionAPIKey:       completionAPIKey,
		completionAPIURL:       completionAPIURL,
		completionModel:        completionModel,
		gcpProject:             gcpProject,
		env:                    env,
	}, nil
}
