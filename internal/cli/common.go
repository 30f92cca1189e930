package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"

	"mcphub/internal/client"
	"mcphub/internal/server"
)

// pollInterval is how often WaitForHub retries.
const pollInterval = 250 * time.Millisecond

// FormatError formats an error message for CLI output
func FormatError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return fmt.Sprintf("✓ %s", msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return fmt.Sprintf("⚠ %s", msg)
}

// WaitForHub polls the health route until the hub answers and at least
// minRunning backends are running, or until timeout. A spinner is drawn on
// progress unless it is nil.
func WaitForHub(ctx context.Context, c *client.Client, minRunning int, timeout time.Duration, progress io.Writer) (*server.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var s *spinner.Spinner
	if progress != nil {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(progress))
		s.Suffix = fmt.Sprintf(" Waiting for hub at %s...", c.BaseURL())
		s.Start()
		defer s.Stop()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		health, err := c.Health(ctx)
		if err == nil && len(health.Repositories) >= minRunning {
			return health, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("%d of %d backends running", len(health.Repositories), minRunning)
		}

		select {
		case <-ctx.Done():
			if s != nil {
				s.FinalMSG = text.FgRed.Sprint("Hub not ready") + "\n"
			}
			return nil, fmt.Errorf("hub at %s not ready after %s: %w", c.BaseURL(), timeout, lastErr)
		case <-ticker.C:
		}
	}
}
