package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	apperrors "schema-migrate/internal/shared/errors"
)

// Config holds every recognized environment setting. It is loaded once at
// startup and passed to components as a parameter; nothing reads the
// environment after Load returns.
type Config struct {
	SourceURI string `env:"SOURCE_MONGODB_CONNECTION_STRING"`
	DestURI   string `env:"DEST_MONGODB_CONNECTION_STRING"`
	URI       string `env:"MONGODB_CONNECTION_STRING"`

	Database   string `env:"MONGODB_DATABASE" envDefault:"mobile_apps"`
	Collection string `env:"MONGODB_COLLECTION" envDefault:"applications"`

	IndexesFile string `env:"INDEXES_FILE" envDefault:"data/mongodb_indexes.json"`
	QueriesFile string `env:"QUERIES_FILE" envDefault:"data/mongodb_queries.json"`
	OutputFile  string `env:"QUERY_OUTPUT_FILE" envDefault:"data/Query_Execution_output.csv"`

	TimeoutSeconds        int `env:"TIMEOUT_SECONDS" envDefault:"120"`
	ExplainTimeoutSeconds int `env:"EXPLAIN_TIMEOUT_SECONDS" envDefault:"300"`

	DatabasePrefix       string `env:"DATABASE_PREFIX"`
	StrictShardDetection bool   `env:"STRICT_SHARD_DETECTION"`
}

// Load reads .env (when present) and the process environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is not an error; explicit environment wins anyway.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to parse environment configuration").WithCause(err)
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 120
	}
	if cfg.ExplainTimeoutSeconds <= 0 {
		cfg.ExplainTimeoutSeconds = 300
	}
	return cfg, nil
}

// Timeout returns the operation timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExplainTimeout returns the explain-mode timeout as a duration.
func (c *Config) ExplainTimeout() time.Duration {
	return time.Duration(c.ExplainTimeoutSeconds) * time.Second
}

// RequireSourceURI validates that the source connection string is configured.
func (c *Config) RequireSourceURI() error {
	if c.SourceURI == "" {
		return missingVar("SOURCE_MONGODB_CONNECTION_STRING", "source MongoDB endpoint")
	}
	return nil
}

// RequireDestURI validates that the destination connection string is configured.
func (c *Config) RequireDestURI() error {
	if c.DestURI == "" {
		return missingVar("DEST_MONGODB_CONNECTION_STRING", "destination MongoDB endpoint")
	}
	return nil
}

// RequireURI validates that the benchmark connection string is configured.
func (c *Config) RequireURI() error {
	if c.URI == "" {
		return missingVar("MONGODB_CONNECTION_STRING", "MongoDB endpoint")
	}
	return nil
}

func missingVar(name, what string) error {
	return apperrors.NewConfigurationError(fmt.Sprintf("%s not set", name)).
		WithHint(fmt.Sprintf("copy .env.template to .env and set %s to your %s", name, what))
}

var credentialPattern = regexp.MustCompile(`^(mongodb(?:\+srv)?://)([^:@/]+):([^@]*)@`)

// MaskURI renders a connection string safe for logs: the username is kept,
// the password is replaced by a fixed placeholder. Strings without
// credentials are returned unchanged.
func MaskURI(uri string) string {
	return credentialPattern.ReplaceAllString(uri, "${1}${2}:****@")
}
