package mongosh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	apperrors "schema-migrate/internal/shared/errors"
)

// DefaultBinary is the external client executed for every script.
const DefaultBinary = "mongosh"

// Result carries the outcome of one client invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the client exited cleanly.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes a script against a target server. The process-spawning
// implementation below is the default; a native-driver runner can be
// substituted without touching the generator or aggregator.
type Runner interface {
	Run(ctx context.Context, script string) (Result, error)
}

// ShellRunner runs scripts through an external mongosh process. The
// script body lives in a transient file for exactly the duration of one
// call and is removed on every exit path. One invocation per call, no
// retry.
type ShellRunner struct {
	URI     string
	Timeout time.Duration
	Binary  string
}

// NewShellRunner creates a runner for the given connection string and
// wall-clock timeout.
func NewShellRunner(uri string, timeout time.Duration) *ShellRunner {
	return &ShellRunner{URI: uri, Timeout: timeout, Binary: DefaultBinary}
}

// Run writes the script to a temp file and executes it with
// `mongosh <uri> --quiet --file <path>`. The context deadline terminates
// the process and surfaces as an execution timeout.
func (r *ShellRunner) Run(ctx context.Context, script string) (Result, error) {
	tmp, err := os.CreateTemp("", "mongosh-*.js")
	if err != nil {
		return Result{}, apperrors.NewInternalError("failed to create script file").WithCause(err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.WriteString(script); err != nil {
		tmp.Close()
		return Result{}, apperrors.NewInternalError("failed to write script file").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, apperrors.NewInternalError("failed to close script file").WithCause(err)
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.Binary, r.URI, "--quiet", "--file", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Stop waiting on inherited pipes shortly after the process is
	// killed at the deadline.
	cmd.WaitDelay = time.Second

	err = cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return result, apperrors.NewTimeoutError(
			fmt.Sprintf("client invocation timed out after %s", r.Timeout))
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			return result, apperrors.NewConfigurationError(
				fmt.Sprintf("%s not found in PATH", r.Binary)).
				WithHint("install mongosh: https://www.mongodb.com/docs/mongodb-shell/install/")
		}
		return result, apperrors.NewInternalError("failed to run client").WithCause(err)
	}

	return result, nil
}
