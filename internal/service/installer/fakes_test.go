package installer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ig-installer/internal/domain/install"
	"github.com/oshokin/ig-installer/internal/fhir"
	"github.com/oshokin/ig-installer/internal/transport"
)

// reply is one scripted transport answer.
type reply struct {
	resp *transport.Response
	err  error
}

// fakeTransport answers Submit and GetStatus from scripts and records the calls.
type fakeTransport struct {
	mu sync.Mutex

	submit      reply
	statuses    []reply
	submitted   [][]byte
	statusCalls int
	trackingIDs []string
}

func (f *fakeTransport) Submit(_ context.Context, body []byte) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.submitted = append(f.submitted, body)

	return f.submit.resp, f.submit.err
}

func (f *fakeTransport) GetStatus(ctx context.Context, trackingID string) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.statusCalls++
	f.trackingIDs = append(f.trackingIDs, trackingID)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(f.statuses) == 0 {
		return nil, context.DeadlineExceeded
	}

	next := f.statuses[0]
	f.statuses = f.statuses[1:]

	return next.resp, next.err
}

// recordingReporter keeps everything it is asked to render.
type recordingReporter struct {
	mu sync.Mutex

	started   []string
	steps     []string
	warnings  []string
	errors    []string
	progress  []install.TaskStatus
	completed []install.Outcome
}

func (r *recordingReporter) Start(_ context.Context, packageName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.started = append(r.started, packageName)
}

func (r *recordingReporter) Step(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.steps = append(r.steps, message)
}

func (r *recordingReporter) Progress(_ context.Context, status install.TaskStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = append(r.progress, status)
}

func (r *recordingReporter) Warn(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.warnings = append(r.warnings, message)
}

func (r *recordingReporter) Error(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, message)
}

func (r *recordingReporter) Complete(_ context.Context, outcome install.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed = append(r.completed, outcome)
}

func (r *recordingReporter) progressValues() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]int, 0, len(r.progress))
	for _, status := range r.progress {
		values = append(values, status.Progress)
	}

	return values
}

// taskBody renders a Task with the given status and optional progress output.
func taskBody(t *testing.T, status string, progress *float64, message string) []byte {
	t.Helper()

	task := &fhir.Task{ID: "abc", Status: status}

	if progress != nil {
		value := fhir.Decimal(*progress)
		task.Output = append(task.Output, fhir.TaskOutput{
			Type:         fhir.CodeableConcept{Text: "progress"},
			ValueDecimal: &value,
		})
	}

	if message != "" {
		task.Output = append(task.Output, fhir.TaskOutput{
			Type:        fhir.CodeableConcept{Text: "message"},
			ValueString: &message,
		})
	}

	body, err := json.Marshal(task)
	require.NoError(t, err)

	return body
}

func ok(body []byte) reply {
	return reply{resp: &transport.Response{StatusCode: http.StatusOK, Body: body}}
}

func pct(v float64) *float64 {
	return &v
}
