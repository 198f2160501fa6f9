package benchmark

import (
	"context"

	"schema-migrate/internal/mongosh"
)

// stubResponse is one canned outcome for the stub runner.
type stubResponse struct {
	result mongosh.Result
	err    error
}

// stubRunner replays canned outcomes in order and records every script
// it was asked to run. When the canned list runs out, the last response
// repeats.
type stubRunner struct {
	responses []stubResponse
	scripts   []string
}

func (s *stubRunner) Run(_ context.Context, script string) (mongosh.Result, error) {
	s.scripts = append(s.scripts, script)
	if len(s.responses) == 0 {
		return mongosh.Result{}, nil
	}
	i := len(s.scripts) - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i].result, s.responses[i].err
}

func okResult(stdout string) stubResponse {
	return stubResponse{result: mongosh.Result{Stdout: stdout}}
}

func failResult(stderr string) stubResponse {
	return stubResponse{result: mongosh.Result{ExitCode: 1, Stderr: stderr}}
}
