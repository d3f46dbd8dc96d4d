package classifier

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// maxLoggedOutput bounds how much raw classifier output is logged on failure.
const maxLoggedOutput = 2048

// ProcessConfig describes the external classifier command. The image path
// is appended after Args.
type ProcessConfig struct {
	Command string
	Args    []string
	WorkDir string
	Timeout time.Duration
}

// ProcessAdapter runs an external classifier script once per image and
// parses the JSON object it prints.
type ProcessAdapter struct {
	cfg ProcessConfig
}

// NewProcessAdapter creates a new process-backed classifier
func NewProcessAdapter(cfg ProcessConfig) *ProcessAdapter {
	return &ProcessAdapter{cfg: cfg}
}

var _ providers.Classifier = (*ProcessAdapter)(nil)

// Name identifies the backend
func (a *ProcessAdapter) Name() string {
	return "process"
}

// Classify runs the classifier to completion. Caller cancellation does not
// stop a started process; only the configured timeout does.
func (a *ProcessAdapter) Classify(ctx context.Context, imagePath string) (*entities.ClassifierOutput, error) {
	logger := observability.LoggerFromContext(ctx)

	runCtx := context.WithoutCancel(ctx)
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, a.cfg.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), a.cfg.Args...), imagePath)
	cmd := exec.CommandContext(runCtx, a.cfg.Command, args...)
	cmd.Dir = a.cfg.WorkDir
	cmd.WaitDelay = time.Second

	out, runErr := cmd.CombinedOutput()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: timed out after %s", providers.ErrClassifierUnavailable, a.cfg.Timeout)
	}
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, fmt.Errorf("%w: %v", providers.ErrClassifierUnavailable, runErr)
	}

	output, err := DecodeOutput(out)
	if err != nil {
		logger.Warn().
			Err(err).
			AnErr("exit_error", runErr).
			Str("output", truncate(out, maxLoggedOutput)).
			Msg("classifier produced unusable output")
		return nil, err
	}

	// A well-formed object wins over a non-zero exit status.
	if runErr != nil {
		logger.Debug().Err(runErr).Msg("classifier exited non-zero with valid output")
	}
	return output, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
