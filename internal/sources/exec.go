package sources

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner executes an external tool and returns its stdout. It exists so
// tests can substitute canned output for the real binaries.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs tools through the OS.
type ExecRunner struct{}

// Run executes the command and returns stdout. On failure the first
// stderr line is folded into the error for diagnostics.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if line, _, _ := bytes.Cut(bytes.TrimSpace(stderr.Bytes()), []byte("\n")); len(line) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, line)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return stdout.Bytes(), nil
}
