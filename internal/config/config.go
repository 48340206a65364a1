package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "TASTYFIND"

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	APIURL          string        `envconfig:"API_URL" default:"https://shalinimeena--tastyfind-app-fastapi-app.modal.run"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"0s"`
	DefaultPageSize int           `envconfig:"DEFAULT_PAGE_SIZE" default:"20"`
	StaleResponses  string        `envconfig:"STALE_RESPONSES" default:"last-write-wins"`

	SessionIdleTimeout   time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
	CORSOrigins          []string      `envconfig:"CORS_ORIGINS" default:"*"`

	SentryDSN         string `envconfig:"SENTRY_DSN"`
	SentryEnvironment string `envconfig:"SENTRY_ENVIRONMENT"`

	Storage
}

// Storage is the subset the CLI image command needs: where photos may be
// read from and how large they may be.
type Storage struct {
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := process(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStorage reads only the photo storage settings, so a malformed daemon
// variable does not break the CLI.
func LoadStorage() (*Storage, error) {
	var st Storage
	if err := process(&st); err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &st, nil
}

func process(spec interface{}) error {
	_ = godotenv.Load()
	unsetEmpty()
	if err := envconfig.Process(envPrefix, spec); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// unsetEmpty drops TASTYFIND_* variables that are set to "". envconfig only
// falls back to a default when the variable is absent.
func unsetEmpty() {
	for _, kv := range os.Environ() {
		key, val, _ := strings.Cut(kv, "=")
		if val == "" && strings.HasPrefix(key, envPrefix+"_") {
			_ = os.Unsetenv(key)
		}
	}
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("%s_DEFAULT_PAGE_SIZE must be positive, got %d", envPrefix, c.DefaultPageSize)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%s_REQUEST_TIMEOUT must not be negative", envPrefix)
	}
	if c.SessionIdleTimeout <= 0 || c.SessionSweepInterval <= 0 {
		return fmt.Errorf("%s_SESSION_IDLE_TIMEOUT and %s_SESSION_SWEEP_INTERVAL must be positive", envPrefix, envPrefix)
	}
	return c.Storage.Validate()
}

func (s *Storage) Validate() error {
	if s.MaxUploadBytes <= 0 {
		return fmt.Errorf("%s_MAX_UPLOAD_BYTES must be positive", envPrefix)
	}
	return nil
}

// HasS3 reports whether s3:// image sources can be read. An endpoint alone is
// enough; credentials then come from the default AWS chain.
func (c *Storage) HasS3() bool {
	return c.S3Endpoint != "" || (c.S3AccessKey != "" && c.S3SecretKey != "")
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
