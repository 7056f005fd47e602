package installer

import (
	"math"
	"strings"

	"github.com/oshokin/ig-installer/internal/domain/install"
	"github.com/oshokin/ig-installer/internal/fhir"
)

// Task output types carrying progress information.
const (
	outputTypeProgress = "progress"
	outputTypeMessage  = "message"
)

// Progress assumed from the task status when no output reports it.
const (
	approximateInProgress = 50
	approximateCompleted  = install.MaxProgress
)

// NormalizeState maps a FHIR Task status to a TaskState.
func NormalizeState(status string) install.TaskState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "draft", "requested", "received", "accepted", "ready", "on-hold":
		return install.TaskStatePending
	case "in-progress":
		return install.TaskStateInProgress
	case "completed":
		return install.TaskStateCompleted
	case "failed", "rejected", "cancelled", "entered-in-error":
		return install.TaskStateFailed
	default:
		return install.TaskStateUnknown
	}
}

// ExtractProgress derives a snapshot from a Task. An output typed "progress"
// gives the percentage, truncated and clamped to [0, 100]; an output typed
// "message" gives the text. Without a progress output the percentage is
// approximated from the status: 50 while in progress, 100 once completed.
func ExtractProgress(task *fhir.Task) install.TaskStatus {
	var (
		progress int
		found    bool
		message  = install.DefaultProgressMessage
	)

	for _, output := range task.Output {
		switch strings.ToLower(strings.TrimSpace(output.Type.Label())) {
		case outputTypeProgress:
			if value, ok := outputPercentage(output); ok {
				progress, found = value, true
			}
		case outputTypeMessage:
			if output.ValueString != nil && *output.ValueString != "" {
				message = *output.ValueString
			}
		}
	}

	state := NormalizeState(task.Status)

	if !found {
		switch state {
		case install.TaskStateInProgress:
			progress = approximateInProgress
		case install.TaskStateCompleted:
			progress = approximateCompleted
		default:
			progress = install.MinProgress
		}
	}

	return install.TaskStatus{
		State:    state,
		Progress: install.ClampProgress(progress),
		Message:  message,
	}
}

func outputPercentage(output fhir.TaskOutput) (int, bool) {
	switch {
	case output.ValueDecimal != nil:
		value := float64(*output.ValueDecimal)
		if math.IsNaN(value) {
			return 0, false
		}

		// Clamp before converting so huge values cannot overflow.
		value = math.Max(install.MinProgress, math.Min(install.MaxProgress, value))

		return int(math.Trunc(value)), true
	case output.ValueInteger != nil:
		return install.ClampProgress(*output.ValueInteger), true
	default:
		return 0, false
	}
}

// ParseTaskStatus decodes a status response body into a snapshot.
// A FHIR document other than a Task carries no status and yields an Unknown
// snapshot, so polling goes on; only an unparseable body is an error.
func ParseTaskStatus(body []byte) (install.TaskStatus, error) {
	res, err := fhir.Decode(body)
	if err != nil {
		return install.TaskStatus{}, err
	}

	task, ok := res.(*fhir.Task)
	if !ok {
		task = new(fhir.Task)
	}

	return ExtractProgress(task), nil
}
