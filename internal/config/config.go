package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of a single installation run.
type Config struct {
	// ServerURL is the FHIR base URL, e.g. http://localhost:8080/fhir.
	ServerURL string `yaml:"server_url"`
	// PollInterval is the fixed delay between task status requests.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Timeout bounds every HTTP call. Zero disables the limit.
	Timeout time.Duration `yaml:"timeout"`
	// LogFile receives a JSON record of warnings, errors and, at debug level, everything else.
	LogFile string `yaml:"log_file"`
	// LogLevel is the minimum console log level.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for installer settings.
	DefaultConfigFilename = "ig-installer-settings.yaml"

	// DefaultLogFilename is the default log file, kept next to the working directory.
	DefaultLogFilename = "ig_install.log"

	// DefaultLogLevel is the console level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultPollInterval is the delay between status polls.
	DefaultPollInterval = 2 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerURLRequired is returned when the server URL is missing.
	errServerURLRequired = errors.New("server URL must be provided")
	// errUnsupportedScheme is returned for server URLs that are not http(s).
	errUnsupportedScheme = errors.New("server URL scheme must be http or https")
	// errNegativeTimeout is returned when the timeout is below zero.
	errNegativeTimeout = errors.New("timeout must not be negative")
)

// Default returns settings populated with default values and no server URL.
func Default() *Config {
	return &Config{
		PollInterval: DefaultPollInterval,
		LogFile:      DefaultLogFilename,
		LogLevel:     DefaultLogLevel,
	}
}

// Load reads settings from the provided path on top of the defaults.
// An empty path reads DefaultConfigFilename if it exists and defaults otherwise.
// Load does not validate: flags and environment may still supply missing values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigFilename

		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields, normalizes the server URL and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	settings.ServerURL = strings.TrimRight(strings.TrimSpace(settings.ServerURL), "/")
	if settings.ServerURL == "" {
		return errServerURLRequired
	}

	parsed, err := url.ParseRequestURI(settings.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: %q", errUnsupportedScheme, parsed.Scheme)
	}

	if settings.Timeout < 0 {
		return errNegativeTimeout
	}

	// Set default poll interval if not specified.
	if settings.PollInterval <= 0 {
		settings.PollInterval = DefaultPollInterval
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	return nil
}
