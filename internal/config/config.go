// Package config provides host configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/tpp-host/pkg/hostenv"
	"github.com/morezero/tpp-host/pkg/semver"
)

const logPrefix = "config:LoadConfig"

// Config holds tpp-host configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"tpp-host"`

	// Channel identity. Subject overrides are derived from the manifest when empty.
	ChannelName         string `envconfig:"CHANNEL_NAME" default:"tpp"`
	ChannelSubject      string `envconfig:"CHANNEL_SUBJECT"`
	SubjectPrefix       string `envconfig:"CHANNEL_SUBJECT_PREFIX" default:"channel"`
	ChannelEventSubject string `envconfig:"CHANNEL_EVENT_SUBJECT"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"CHANNEL_REQUEST_TIMEOUT" default:"25s"`

	// Manifest
	ManifestFile string `envconfig:"CHANNEL_MANIFEST_FILE"`

	// getCurrentDirectory behaviour: workdir, executable or legacy.
	DirectoryMode string `envconfig:"CURRENT_DIRECTORY_MODE" default:"workdir"`

	// HTTP introspection endpoint (HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the channel host.
func (c *Config) ValidateForServe() error {
	if !semver.ValidateChannelName(c.ChannelName) {
		return fmt.Errorf("%s - CHANNEL_NAME %q is not a valid channel name", logPrefix, c.ChannelName)
	}
	if !hostenv.ValidMode(c.DirectoryMode) {
		return fmt.Errorf("%s - CURRENT_DIRECTORY_MODE must be one of %v, got %q", logPrefix, hostenv.Modes, c.DirectoryMode)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - CHANNEL_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// ListenAddr returns HTTPAddr when set, otherwise ":<HTTPPort>".
func (c *Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}
