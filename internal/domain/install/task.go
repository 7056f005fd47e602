package install

// TaskState is the normalized lifecycle state of a polled task.
type TaskState string

const (
	TaskStatePending    TaskState = "pending"
	TaskStateInProgress TaskState = "in-progress"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed"
	TaskStateUnknown    TaskState = "unknown"
)

// IsTerminal reports whether no further polling should happen after this state.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

const (
	// MinProgress and MaxProgress bound TaskStatus.Progress.
	MinProgress = 0
	MaxProgress = 100

	// DefaultProgressMessage is shown when the task carries no message.
	DefaultProgressMessage = "Processing..."
)

// TaskStatus is one polled snapshot of a task.
type TaskStatus struct {
	// State is the normalized task state.
	State TaskState
	// Progress is the completion percentage, always within [MinProgress, MaxProgress].
	Progress int
	// Message is the human-readable progress message.
	Message string
}

// ClampProgress limits p to [MinProgress, MaxProgress].
func ClampProgress(p int) int {
	return max(MinProgress, min(MaxProgress, p))
}
