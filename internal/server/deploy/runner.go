// Package deploy runs the configured deployment command, enforcing that at
// most one deployment is in flight at a time.
package deploy

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner executes a deployment command and returns its exit code and captured
// output. The context bounds the execution time.
type Runner interface {
	Run(ctx context.Context, command, dir string) (exitCode int, stdout, stderr string, err error)
}

// ExecRunner runs commands through "sh -c", so compound commands such as
// "docker-compose pull && docker-compose up -d" work as written.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner { return &ExecRunner{} }

func (r *ExecRunner) Run(ctx context.Context, command, dir string) (int, string, string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// context cancellation takes precedence over the resulting kill error
		if ctxErr := ctx.Err(); ctxErr != nil {
			return -1, stdout.String(), stderr.String(), ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
		}
		return -1, stdout.String(), stderr.String(), err
	}
	return 0, stdout.String(), stderr.String(), nil
}
