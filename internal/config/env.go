package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognized by ApplyEnvironment.
const (
	EnvServerURL    = "IG_INSTALLER_SERVER_URL"
	EnvPollInterval = "IG_INSTALLER_POLL_INTERVAL"
	EnvTimeout      = "IG_INSTALLER_TIMEOUT"
	EnvLogFile      = "IG_INSTALLER_LOG_FILE"
	EnvLogLevel     = "IG_INSTALLER_LOG_LEVEL"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set.
// Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}

// ApplyEnvironment overrides settings with IG_INSTALLER_* variables.
// Durations accept Go syntax ("1500ms") or a plain number of seconds.
func (c *Config) ApplyEnvironment() error {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.ServerURL = v
	}

	if v := os.Getenv(EnvPollInterval); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}

		c.PollInterval = d
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}

		c.Timeout = d
	}

	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}

	return nil
}

func parseDuration(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}

	seconds, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
