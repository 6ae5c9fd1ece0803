// Package config reads environment configuration for the activity API source
// and the HTTP server.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/penwyp/go-activity-timeline/internal/util"
)

// Prefix is prepended to every variable name, e.g. ACTIVITY_TIMELINE_API_URL.
const Prefix = "activity_timeline"

type Config struct {
	// APIURL is the base URL of the activity API. Activities are fetched from
	// {APIURL}/users/{user}/activities?date=YYYY-MM-DD.
	APIURL string `envconfig:"API_URL"`

	// APIToken is sent as a bearer token when set.
	APIToken string `envconfig:"API_TOKEN"`

	// APITimeout bounds a single fetch.
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`

	// Address is the listen address of the serve command.
	Address string `default:":8080"`

	// ShutdownTimeout is how long the HTTP server waits for in-flight requests.
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`

	// MinViewportMinutes is the narrowest timeline zoom.
	MinViewportMinutes float64 `split_words:"true" default:"15"`

	// Timezone is used for zone-less timestamps and day boundaries.
	Timezone string `default:"Local"`

	LogLevel string `split_words:"true" default:"info"`
}

// Parse loads an optional .env file from the working directory and then
// reads the environment.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		util.LogWarnf("failed to load .env file: %v", err)
	}

	var config Config
	if err := envconfig.Process(Prefix, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks value ranges envconfig cannot express.
func (c *Config) Validate() error {
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must not be negative, got %s", c.ShutdownTimeout)
	}
	if c.MinViewportMinutes <= 0 || c.MinViewportMinutes > 1440 {
		return fmt.Errorf("MIN_VIEWPORT_MINUTES must be within (0, 1440], got %v", c.MinViewportMinutes)
	}
	return nil
}

// HasSource reports whether an activity API is configured.
func (c *Config) HasSource() bool {
	return c.APIURL != ""
}

// Usage writes the supported variables and their defaults to w.
func Usage(w io.Writer) error {
	var config Config
	return envconfig.Usagef(Prefix, &config, w, envconfig.DefaultTableFormat)
}
