package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oshokin/ig-installer/internal/domain/install"
	"github.com/oshokin/ig-installer/internal/logger"
	"github.com/oshokin/ig-installer/internal/transport"
)

// DefaultPollInterval is the delay between two status requests.
const DefaultPollInterval = 2 * time.Second

// errStatusFetch marks a failed status request: network error, non-200 code or unreadable body.
var errStatusFetch = errors.New("fetch task status")

// StatusFetcher fetches the raw status document of a task.
type StatusFetcher interface {
	GetStatus(ctx context.Context, trackingID string) (*transport.Response, error)
}

// ProgressReporter receives the snapshots emitted by Monitor.
type ProgressReporter interface {
	Progress(ctx context.Context, status install.TaskStatus)
	Error(ctx context.Context, message string)
}

// MonitorResult is where Monitor stopped and why.
type MonitorResult struct {
	// State is MonitorSucceeded, MonitorFailed or MonitorAborted.
	State install.MonitorState
	// Reason describes a failure or abort.
	Reason string
	// Last is the last snapshot received, zero if none.
	Last install.TaskStatus
	// Polls counts the status requests made.
	Polls int
}

// Monitor polls the task until it completes or fails. A failed status
// request ends monitoring at once. A snapshot is reported only when its
// progress differs from the previously reported one; the first one always is.
// Cancelling ctx stops client-side monitoring only; the server task keeps running.
func Monitor(
	ctx context.Context,
	fetcher StatusFetcher,
	reporter ProgressReporter,
	trackingID string,
	interval time.Duration,
) MonitorResult {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx = logger.WithKV(ctx, "task_id", trackingID)

	var (
		result           = MonitorResult{State: install.MonitorPolling}
		previousProgress = -1
	)

	logger.InfoKV(ctx, "Monitoring installation task", "interval", interval.String())

	for result.State == install.MonitorPolling {
		result.Polls++

		status, err := fetchStatus(ctx, fetcher, trackingID)
		if err != nil {
			if ctx.Err() != nil {
				return aborted(ctx, result)
			}

			reporter.Error(ctx, err.Error())
			result.State, result.Reason = install.MonitorFailed, err.Error()

			break
		}

		result.Last = status

		if status.Progress != previousProgress {
			reporter.Progress(ctx, status)
			previousProgress = status.Progress
		}

		switch status.State {
		case install.TaskStateCompleted:
			result.State = install.MonitorSucceeded
		case install.TaskStateFailed:
			result.State, result.Reason = install.MonitorFailed, "task failed: "+status.Message
			reporter.Error(ctx, result.Reason)
		default:
			if !sleep(ctx, interval) {
				return aborted(ctx, result)
			}
		}
	}

	logger.InfoKV(ctx, "Monitoring finished", "state", result.State.String(), "polls", result.Polls)

	return result
}

// fetchStatus performs one status request and parses the snapshot.
func fetchStatus(ctx context.Context, fetcher StatusFetcher, trackingID string) (install.TaskStatus, error) {
	resp, err := fetcher.GetStatus(ctx, trackingID)
	if err != nil {
		return install.TaskStatus{}, fmt.Errorf("%w: %w", errStatusFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.ErrorKV(ctx, "Status request rejected", "status", resp.StatusCode, "body", string(resp.Body))

		return install.TaskStatus{}, fmt.Errorf("%w: status code %d", errStatusFetch, resp.StatusCode)
	}

	status, err := ParseTaskStatus(resp.Body)
	if err != nil {
		return install.TaskStatus{}, fmt.Errorf("%w: %w", errStatusFetch, err)
	}

	return status, nil
}

// sleep waits for d and reports false if ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func aborted(ctx context.Context, result MonitorResult) MonitorResult {
	logger.WarnKV(ctx, "Monitoring interrupted, the server task was left running", "polls", result.Polls)

	result.State, result.Reason = install.MonitorAborted, "interrupted by user"

	return result
}
