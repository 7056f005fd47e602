package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/ig-installer/internal/config"
	"github.com/oshokin/ig-installer/internal/logger"
	"github.com/oshokin/ig-installer/internal/reporter"
	"github.com/oshokin/ig-installer/internal/transport"
)

// Options are inputs accepted by the installer entry point.
// Zero values keep the value from the settings file or environment.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ServerURL is the FHIR base URL.
	ServerURL string
	// PackagePath is the NPM package to install.
	PackagePath string
	// PollInterval is the delay between status requests.
	PollInterval time.Duration
	// Timeout bounds each HTTP call.
	Timeout time.Duration
	// LogFile is where warnings and errors are persisted.
	LogFile string
	// LogLevel is the console log level.
	LogLevel string
	// Out receives the console output, os.Stdout when nil.
	Out io.Writer
}

var (
	// ErrInstallationFailed is returned when the server or the transport reported a failure.
	ErrInstallationFailed = errors.New("installation failed")
	// ErrInstallationAborted is returned when the run was interrupted.
	ErrInstallationAborted = errors.New("installation aborted")
	// errPackageRequired is returned when no package path is given.
	errPackageRequired = errors.New("package path must be provided")
)

// Run installs the package described by opts and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "ig-installer")

	if opts.PackagePath == "" {
		return errPackageRequired
	}

	cfg, err := Settings(opts)
	if err != nil {
		return err
	}

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		logger.Warnf(ctx, "Unknown log level %q, using %s", cfg.LogLevel, level)
	}

	logger.SetLevel(level)

	if cfg.LogFile != "" {
		sink, err := logger.NewWithFile(level, cfg.LogFile)
		if err != nil {
			return err
		}

		defer func() {
			_ = sink.Close()
		}()

		ctx = logger.ToContext(ctx, sink.Logger.Named("ig-installer"))
		ctx = logger.JournalToContext(ctx, sink.Journal.Named("ig-installer"))
	}

	client, err := transport.New(cfg.ServerURL, transport.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	ctx = logger.WithKV(ctx, "server_url", cfg.ServerURL)

	outcome := New(client, reporter.NewConsole(out), WithPollInterval(cfg.PollInterval)).
		Install(ctx, opts.PackagePath)

	switch {
	case outcome.Success:
		return nil
	case outcome.Aborted:
		return ErrInstallationAborted
	default:
		return fmt.Errorf("%w: %s", ErrInstallationFailed, outcome.Reason)
	}
}

// Settings merges the settings file, .env, the environment and opts, in
// increasing order of precedence, and validates the result.
func Settings(opts *Options) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err = cfg.ApplyEnvironment(); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}

	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}

	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}

	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err = config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	return cfg, nil
}
