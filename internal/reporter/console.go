package reporter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/oshokin/ig-installer/internal/domain/install"
	"github.com/oshokin/ig-installer/internal/logger"
)

const (
	barWidth       = 40
	separatorWidth = 50
)

//nolint:gochecknoglobals // Styles are immutable after initialization.
var (
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Console writes human-readable progress to out and records every message
// in the context journal, so the log file keeps what the user saw.
// It is not safe for concurrent use.
type Console struct {
	out io.Writer
	bar progress.Model

	// lineWidth is the visible width of the progress line being redrawn, zero when none is open.
	lineWidth int
}

// NewConsole creates a reporter writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out: out,
		bar: progress.New(
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
			progress.WithDefaultGradient(),
		),
	}
}

// Start announces the installation of the named package.
func (c *Console) Start(ctx context.Context, packageName string) {
	logger.Journal(ctx).Infow("Starting installation", "package", packageName)

	c.printf("\nInstalling %s\n%s\n", packageName, strings.Repeat("=", separatorWidth))
}

// Step prints a phase of the installation.
func (c *Console) Step(ctx context.Context, message string) {
	logger.Journal(ctx).Info(message)

	c.printf("%s\n", stepStyle.Render("> "+message))
}

// Progress redraws the progress line in place.
func (c *Console) Progress(ctx context.Context, status install.TaskStatus) {
	logger.DebugKV(ctx, "Task progress", "progress", status.Progress, "state", status.State, "message", status.Message)

	line := fmt.Sprintf(
		"Progress: [%s] %3d%% %s",
		c.bar.ViewAs(float64(status.Progress)/install.MaxProgress),
		status.Progress,
		status.Message,
	)

	width := lipgloss.Width(line)
	if padding := c.lineWidth - width; padding > 0 {
		line += strings.Repeat(" ", padding)
	}

	c.printf("\r%s", line)
	c.lineWidth = width
}

// Warn prints a warning and records it in the log.
func (c *Console) Warn(ctx context.Context, message string) {
	logger.Journal(ctx).Warn(message)

	c.printf("%s\n", warnStyle.Render("WARNING: "+message))
}

// Error prints an error and records it in the log.
func (c *Console) Error(ctx context.Context, message string) {
	logger.Journal(ctx).Error(message)

	c.printf("%s\n", errorStyle.Render("ERROR: "+message))
}

// Complete prints the final summary.
func (c *Console) Complete(ctx context.Context, outcome install.Outcome) {
	logger.Journal(ctx).Infow(
		"Installation finished",
		"success", outcome.Success,
		"aborted", outcome.Aborted,
		"reason", outcome.Reason,
		"elapsed", outcome.Elapsed,
	)

	var summary string

	switch {
	case outcome.Success:
		summary = successStyle.Render("Installation completed successfully")
	case outcome.Aborted:
		summary = warnStyle.Render("Installation interrupted by user")
	default:
		summary = errorStyle.Render("Installation failed")
	}

	separator := strings.Repeat("=", separatorWidth)

	c.printf("%s\n%s\nTotal time: %s\n%s\n\n", separator, summary, FormatElapsed(outcome.Elapsed), separator)
}

// printf writes to out, first terminating an open progress line.
func (c *Console) printf(format string, args ...any) {
	if c.lineWidth > 0 && !strings.HasPrefix(format, "\r") {
		_, _ = fmt.Fprintln(c.out)
		c.lineWidth = 0
	}

	_, _ = fmt.Fprintf(c.out, format, args...)
}

// FormatElapsed renders d as H:MM:SS, dropping fractions of a second.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d / time.Second)

	return fmt.Sprintf("%d:%02d:%02d", total/3600, total/60%60, total%60)
}
