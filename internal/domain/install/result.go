package install

import "fmt"

// ResultKind tags the variant held by a SubmissionResult.
type ResultKind int

const (
	// ResultSucceeded means the server finished the installation synchronously.
	ResultSucceeded ResultKind = iota
	// ResultAccepted means the server queued a task that must be tracked.
	ResultAccepted
	// ResultFailed means the server refused or failed the installation.
	ResultFailed
)

// String implements fmt.Stringer.
func (k ResultKind) String() string {
	switch k {
	case ResultSucceeded:
		return "succeeded"
	case ResultAccepted:
		return "accepted"
	case ResultFailed:
		return "failed"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// SubmissionResult is the classified response to a package submission.
// Only one of TrackingID (Accepted) and Reason (Failed) is meaningful,
// as selected by Kind. Use the constructors to build values.
type SubmissionResult struct {
	// Kind selects the variant.
	Kind ResultKind
	// TrackingID is the task to poll. Non-empty for ResultAccepted.
	TrackingID string
	// Reason explains a ResultFailed.
	Reason string
}

// Succeeded returns a result that needs no further tracking.
func Succeeded() SubmissionResult {
	return SubmissionResult{Kind: ResultSucceeded}
}

// Accepted returns a result carrying the task to track.
// An empty id degrades to Succeeded since there is nothing to poll.
func Accepted(trackingID string) SubmissionResult {
	if trackingID == "" {
		return Succeeded()
	}

	return SubmissionResult{Kind: ResultAccepted, TrackingID: trackingID}
}

// Failed returns a failed result with the given reason.
func Failed(reason string) SubmissionResult {
	return SubmissionResult{Kind: ResultFailed, Reason: reason}
}

// String implements fmt.Stringer.
func (r SubmissionResult) String() string {
	switch r.Kind {
	case ResultAccepted:
		return "accepted(" + r.TrackingID + ")"
	case ResultFailed:
		return "failed(" + r.Reason + ")"
	default:
		return r.Kind.String()
	}
}
