package installer

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/oshokin/ig-installer/internal/domain/install"
	"github.com/oshokin/ig-installer/internal/fhir"
	"github.com/oshokin/ig-installer/internal/logger"
	"github.com/oshokin/ig-installer/internal/pkgfile"
	"github.com/oshokin/ig-installer/internal/transport"
)

// Transport performs the HTTP calls of an installation.
type Transport interface {
	StatusFetcher
	Submit(ctx context.Context, body []byte) (*transport.Response, error)
}

// Reporter renders the installation for the user.
type Reporter interface {
	ProgressReporter
	Start(ctx context.Context, packageName string)
	Step(ctx context.Context, message string)
	Warn(ctx context.Context, message string)
	Complete(ctx context.Context, outcome install.Outcome)
}

// Installer runs installations against one server.
type Installer struct {
	// transport talks to the FHIR server.
	transport Transport
	// reporter renders steps, progress and the summary.
	reporter Reporter
	// pollInterval is the delay between status requests.
	pollInterval time.Duration
	// now is the clock used to measure elapsed time.
	now func() time.Time
}

// Option configures an Installer.
type Option func(*Installer)

// WithPollInterval overrides DefaultPollInterval. Zero or negative values are ignored.
func WithPollInterval(interval time.Duration) Option {
	return func(i *Installer) {
		if interval > 0 {
			i.pollInterval = interval
		}
	}
}

// New creates an Installer.
func New(t Transport, r Reporter, opts ...Option) *Installer {
	i := &Installer{
		transport:    t,
		reporter:     r,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Install submits the package at packagePath and follows the installation
// to its end. Every failure is converted into the returned outcome.
func (i *Installer) Install(ctx context.Context, packagePath string) install.Outcome {
	start := i.now()

	i.reporter.Start(ctx, filepath.Base(packagePath))

	outcome := i.install(ctx, packagePath)
	outcome.Elapsed = i.now().Sub(start)

	i.reporter.Complete(ctx, outcome)

	return outcome
}

func (i *Installer) install(ctx context.Context, packagePath string) install.Outcome {
	i.reporter.Step(ctx, "Reading package...")

	pkg, err := pkgfile.Load(packagePath)
	if err != nil {
		if errors.Is(err, pkgfile.ErrNotFound) {
			return i.fail(ctx, "package file not found: "+packagePath)
		}

		return i.fail(ctx, err.Error())
	}

	logger.InfoKV(ctx, "Package loaded", "package", pkg.Name, "size", pkg.Size(), "sha512", pkg.Checksum)

	body, err := fhir.EncodeInstallRequest(pkg.Content)
	if err != nil {
		return i.fail(ctx, err.Error())
	}

	i.reporter.Step(ctx, "Sending package to the server...")

	resp, err := i.transport.Submit(ctx, body)
	if err != nil {
		if ctx.Err() != nil {
			return i.abort(ctx)
		}

		return i.fail(ctx, err.Error())
	}

	i.reporter.Step(ctx, "Checking server response...")

	classification := Classify(resp.StatusCode, resp.Body)
	if classification.Diagnostics != "" {
		logger.ErrorKV(ctx, "Server rejected the package", "status", resp.StatusCode, "body", classification.Diagnostics)
	}

	i.reportNotices(ctx, classification.Notices)

	result := classification.Result
	logger.InfoKV(ctx, "Submission classified", "result", result.String(), "request_id", resp.RequestID)

	switch result.Kind {
	case install.ResultFailed:
		return install.Outcome{Reason: result.Reason}
	case install.ResultAccepted:
		return i.monitor(ctx, result.TrackingID)
	default:
		i.reporter.Step(ctx, "Installation processed by the server")

		return install.Outcome{Success: true}
	}
}

func (i *Installer) monitor(ctx context.Context, trackingID string) install.Outcome {
	i.reporter.Step(ctx, "Monitoring installation...")

	res := Monitor(ctx, i.transport, i.reporter, trackingID, i.pollInterval)

	switch res.State {
	case install.MonitorSucceeded:
		return install.Outcome{Success: true}
	case install.MonitorAborted:
		return i.abort(ctx)
	default:
		return install.Outcome{Reason: res.Reason}
	}
}

func (i *Installer) reportNotices(ctx context.Context, notices []Notice) {
	for _, notice := range notices {
		switch notice.Level {
		case NoticeError:
			i.reporter.Error(ctx, notice.Message)
		case NoticeWarning:
			i.reporter.Warn(ctx, notice.Message)
		default:
			i.reporter.Step(ctx, notice.Message)
		}
	}
}

func (i *Installer) fail(ctx context.Context, reason string) install.Outcome {
	i.reporter.Error(ctx, reason)

	return install.Outcome{Reason: reason}
}

func (i *Installer) abort(ctx context.Context) install.Outcome {
	i.reporter.Warn(ctx, "Installation interrupted by user")

	return install.Outcome{Aborted: true, Reason: "interrupted by user"}
}
