package utils

import (
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

// RunCommandWithContext runs name and returns its stdout. When the process
// exits non-zero the returned bytes are its stderr instead.
func RunCommandWithContext(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	// we don't treat timeout as error
	if err != nil && ctx.Err() != context.DeadlineExceeded {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Stderr, err
		}
		return nil, err
	}
	return out, nil
}

func RunCommand(name string, args ...string) ([]byte, error) {
	return RunCommandWithContext(context.Background(), name, args...)
}
