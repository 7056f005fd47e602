package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ig-installer/internal/config"
	"github.com/oshokin/ig-installer/internal/fhir"
)

// answer is one scripted HTTP response of the fake FHIR server.
type answer struct {
	status int
	body   string
}

// fhirServer is an httptest FHIR server serving $install and Task reads from scripts.
type fhirServer struct {
	mu sync.Mutex

	install  answer
	statuses []answer

	installBodies [][]byte
	headers       []http.Header
	taskReads     []string
}

// startFHIR starts the fake server under the /fhir base path.
// Returns the base URL; the server is closed with the test.
func startFHIR(t *testing.T, f *fhirServer) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	return srv.URL + "/fhir"
}

func (f *fhirServer) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.headers = append(f.headers, r.Header.Clone())

	var reply answer

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/fhir"+fhir.InstallOperationPath:
		body, _ := io.ReadAll(r.Body)
		f.installBodies = append(f.installBodies, body)
		reply = f.install
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/fhir"+fhir.TaskPathPrefix):
		f.taskReads = append(f.taskReads, strings.TrimPrefix(r.URL.Path, "/fhir"+fhir.TaskPathPrefix))

		if len(f.statuses) == 0 {
			reply = answer{status: http.StatusNotFound, body: `{"resourceType":"OperationOutcome"}`}

			break
		}

		reply = f.statuses[0]
		if len(f.statuses) > 1 {
			f.statuses = f.statuses[1:]
		}
	default:
		reply = answer{status: http.StatusNotFound}
	}

	w.Header().Set("Content-Type", fhir.MediaType)
	w.WriteHeader(reply.status)
	_, _ = io.WriteString(w, reply.body)
}

func (f *fhirServer) snapshot() (installs [][]byte, reads []string, headers []http.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.installBodies, f.taskReads, f.headers
}

// task renders a Task status document with a progress output.
func task(t *testing.T, status string, progress float64, message string) answer {
	t.Helper()

	value := fhir.Decimal(progress)
	doc := &fhir.Task{
		ID:     "abc",
		Status: status,
		Output: []fhir.TaskOutput{
			{Type: fhir.CodeableConcept{Text: "progress"}, ValueDecimal: &value},
			{Type: fhir.CodeableConcept{Text: "message"}, ValueString: &message},
		},
	}

	body, err := json.Marshal(doc)
	require.NoError(t, err)

	return answer{status: http.StatusOK, body: string(body)}
}

// writePackage creates a package file in a temporary directory.
func writePackage(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hl7.fhir.us.core-6.1.0.tgz")
	require.NoError(t, os.WriteFile(path, []byte("npm package"), 0o600))

	return path
}

// writeSettings saves a configuration file pointing at serverURL.
func writeSettings(t *testing.T, serverURL string) (cfgPath, logPath string) {
	t.Helper()

	dir := t.TempDir()
	cfgPath = filepath.Join(dir, config.DefaultConfigFilename)
	logPath = filepath.Join(dir, config.DefaultLogFilename)

	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerURL:    serverURL,
		PollInterval: 10 * time.Millisecond,
		Timeout:      5 * time.Second,
		LogFile:      logPath,
	}))

	return cfgPath, logPath
}
