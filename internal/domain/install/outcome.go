package install

import (
	"fmt"
	"time"
)

// MonitorState is where the monitoring loop stopped.
type MonitorState int

const (
	// MonitorPolling is the loop's working state; it is never returned by a finished loop.
	MonitorPolling MonitorState = iota
	// MonitorSucceeded means the task reached TaskStateCompleted.
	MonitorSucceeded
	// MonitorFailed means the task failed or its status could not be fetched.
	MonitorFailed
	// MonitorAborted means client-side monitoring was cancelled.
	MonitorAborted
)

// String implements fmt.Stringer.
func (s MonitorState) String() string {
	switch s {
	case MonitorPolling:
		return "polling"
	case MonitorSucceeded:
		return "terminal-success"
	case MonitorFailed:
		return "terminal-failure"
	case MonitorAborted:
		return "aborted"
	default:
		return fmt.Sprintf("MonitorState(%d)", int(s))
	}
}

// Outcome is the terminal value of an installation.
type Outcome struct {
	// Success is true only when the server reported a completed installation.
	Success bool
	// Aborted is set when the user interrupted the run. Aborted implies !Success.
	Aborted bool
	// Reason describes a failure or abort.
	Reason string
	// Elapsed is measured from the start of the run to its end.
	Elapsed time.Duration
}
