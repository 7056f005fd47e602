package integration

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ig-installer/internal/service/installer"
	"github.com/oshokin/ig-installer/internal/transport"
	"github.com/oshokin/ig-installer/internal/version"
)

// TestInstall_AsynchronousTask submits a package, follows the task and succeeds.
func TestInstall_AsynchronousTask(t *testing.T) {
	t.Parallel()

	srv := &fhirServer{
		install: answer{status: http.StatusCreated, body: `{"resourceType":"Task","id":"abc","status":"requested"}`},
		statuses: []answer{
			task(t, "in-progress", 50, "Loading resources"),
			task(t, "in-progress", 50, "Loading resources"),
			task(t, "completed", 100, "Installed"),
		},
	}
	cfgPath, _ := writeSettings(t, startFHIR(t, srv))

	var out bytes.Buffer

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath:  cfgPath,
		PackagePath: writePackage(t),
		Out:         &out,
	})
	require.NoError(t, err)

	installs, reads, headers := srv.snapshot()
	require.Len(t, installs, 1)
	require.Contains(t, string(installs[0]), `"npmContent"`)
	require.Equal(t, []string{"abc", "abc", "abc"}, reads)

	for _, h := range headers {
		require.Equal(t, version.UserAgent(), h.Get("User-Agent"))
		require.NotEmpty(t, h.Get(transport.RequestIDHeader))
	}

	output := out.String()
	require.Contains(t, output, "Installing hl7.fhir.us.core-6.1.0.tgz")
	require.Contains(t, output, " 50%")
	require.Contains(t, output, "100%")
	require.Contains(t, output, "Installation completed successfully")
	require.Contains(t, output, "Total time: 0:00:0")
}

// TestInstall_SynchronousOutcome completes without polling.
func TestInstall_SynchronousOutcome(t *testing.T) {
	t.Parallel()

	srv := &fhirServer{
		install: answer{
			status: http.StatusOK,
			body:   `{"resourceType":"OperationOutcome","issue":[{"severity":"information","diagnostics":"Package installed"}]}`,
		},
	}
	cfgPath, _ := writeSettings(t, startFHIR(t, srv))

	var out bytes.Buffer

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath:  cfgPath,
		PackagePath: writePackage(t),
		Out:         &out,
	})
	require.NoError(t, err)

	_, reads, _ := srv.snapshot()
	require.Empty(t, reads)
	require.Contains(t, out.String(), "INFORMATION: Package installed")
}

// TestInstall_Failures maps server and task failures to ErrInstallationFailed
// and persists the reported errors to the log file.
func TestInstall_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		server   *fhirServer
		expected string
	}{
		{
			name:     "server error",
			server:   &fhirServer{install: answer{status: http.StatusInternalServerError, body: "database down"}},
			expected: "server error 500",
		},
		{
			name: "operation outcome error",
			server: &fhirServer{install: answer{
				status: http.StatusOK,
				body:   `{"resourceType":"OperationOutcome","issue":[{"severity":"error","diagnostics":"Invalid package"}]}`,
			}},
			expected: "Invalid package",
		},
		{
			name: "task failed",
			server: &fhirServer{
				install:  answer{status: http.StatusCreated, body: `{"resourceType":"Task","id":"abc","status":"requested"}`},
				statuses: []answer{task(t, "in-progress", 20, "Loading"), task(t, "failed", 20, "Dependency missing")},
			},
			expected: "task failed: Dependency missing",
		},
		{
			name: "status request rejected",
			server: &fhirServer{
				install:  answer{status: http.StatusCreated, body: `{"resourceType":"Task","id":"abc","status":"requested"}`},
				statuses: []answer{{status: http.StatusInternalServerError, body: "oops"}},
			},
			expected: "status code 500",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfgPath, logPath := writeSettings(t, startFHIR(t, tc.server))

			var out bytes.Buffer

			err := installer.Run(context.Background(), &installer.Options{
				ConfigPath:  cfgPath,
				PackagePath: writePackage(t),
				Out:         &out,
			})
			require.ErrorIs(t, err, installer.ErrInstallationFailed)
			require.Contains(t, err.Error(), tc.expected)
			require.Contains(t, out.String(), "Installation failed")

			logged, readErr := os.ReadFile(logPath)
			require.NoError(t, readErr)
			require.Contains(t, string(logged), tc.expected)
		})
	}
}

// TestInstall_MissingPackage fails without contacting the server.
func TestInstall_MissingPackage(t *testing.T) {
	t.Parallel()

	srv := &fhirServer{install: answer{status: http.StatusOK}}
	cfgPath, _ := writeSettings(t, startFHIR(t, srv))

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath:  cfgPath,
		PackagePath: filepath.Join(t.TempDir(), "missing.tgz"),
		Out:         new(bytes.Buffer),
	})
	require.ErrorIs(t, err, installer.ErrInstallationFailed)
	require.Contains(t, err.Error(), "package file not found")

	installs, _, _ := srv.snapshot()
	require.Empty(t, installs)
}

// TestInstall_UnreachableServer reports a transport failure.
func TestInstall_UnreachableServer(t *testing.T) {
	t.Parallel()

	cfgPath, _ := writeSettings(t, "http://127.0.0.1:1/fhir")

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath:  cfgPath,
		PackagePath: writePackage(t),
		Out:         new(bytes.Buffer),
	})
	require.ErrorIs(t, err, installer.ErrInstallationFailed)
	require.Contains(t, err.Error(), "request failed")
}

// TestInstall_Cancelled aborts monitoring while the task keeps running.
func TestInstall_Cancelled(t *testing.T) {
	t.Parallel()

	srv := &fhirServer{
		install:  answer{status: http.StatusCreated, body: `{"resourceType":"Task","id":"abc","status":"requested"}`},
		statuses: []answer{task(t, "in-progress", 10, "Loading")},
	}
	cfgPath, _ := writeSettings(t, startFHIR(t, srv))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	var out bytes.Buffer

	err := installer.Run(ctx, &installer.Options{
		ConfigPath:  cfgPath,
		PackagePath: writePackage(t),
		Out:         &out,
	})
	require.ErrorIs(t, err, installer.ErrInstallationAborted)
	require.Contains(t, out.String(), "Installation interrupted by user")
}
