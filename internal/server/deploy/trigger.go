package deploy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/logging"
	"github.com/astepanovs/gatehouse/internal/server/config"
	"github.com/astepanovs/gatehouse/internal/server/models"
)

// Result describes one finished deployment run.
type Result struct {
	Source     models.DeploymentSource
	StartedAt  time.Time
	FinishedAt time.Time
	ExitCode   int
	Stdout     string
	Stderr     string
	Err        error
}

// Archiver receives finished deployment results, e.g. to persist the captured
// output. A nil Archiver disables archiving.
type Archiver interface {
	Archive(ctx context.Context, result *Result) error
}

// Trigger serializes deployment runs through a single slot. A run that
// arrives while the slot is held is rejected immediately with ErrBusy; it is
// never queued or retried.
type Trigger struct {
	slot    chan struct{}
	runner  Runner
	command string
	workDir string
	timeout time.Duration
	logger  logging.Logger
	archive Archiver
}

func NewTrigger(runner Runner, cfg *config.Config, logger logging.Logger, archive Archiver) *Trigger {
	return &Trigger{
		slot:    make(chan struct{}, 1),
		runner:  runner,
		command: cfg.DeployCommand,
		workDir: cfg.DeployWorkDir,
		timeout: cfg.DeployTimeout,
		logger:  logger,
		archive: archive,
	}
}

// Run executes a deployment synchronously. It returns ErrBusy without
// blocking when another deployment holds the slot, and ErrDeploymentFailed
// when the command exits non-zero or exceeds the configured timeout. The
// returned Result carries the captured output in every outcome but Busy.
func (t *Trigger) Run(ctx context.Context, source models.DeploymentSource) (*Result, error) {
	select {
	case t.slot <- struct{}{}:
	default:
		return nil, common.ErrBusy
	}
	defer func() { <-t.slot }()

	return t.execute(ctx, source), nil
}

// Start launches a deployment in the background. The slot is claimed before
// returning, so a concurrent caller sees ErrBusy immediately while the caller
// that won can acknowledge the trigger without waiting for the command.
func (t *Trigger) Start(source models.DeploymentSource) error {
	select {
	case t.slot <- struct{}{}:
	default:
		return common.ErrBusy
	}

	go func() {
		defer func() { <-t.slot }()
		t.execute(context.Background(), source)
	}()
	return nil
}

func (t *Trigger) execute(ctx context.Context, source models.DeploymentSource) *Result {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	result := &Result{Source: source, StartedAt: time.Now()}
	t.logger.Info(ctx, "deployment started", "source", source, "command", t.command)

	exitCode, stdout, stderr, err := t.runner.Run(ctx, t.command, t.workDir)
	result.FinishedAt = time.Now()
	result.ExitCode = exitCode
	result.Stdout = stdout
	result.Stderr = stderr

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result.Err = fmt.Errorf("%w: timed out after %s", common.ErrDeploymentFailed, t.timeout)
	case err != nil:
		result.Err = fmt.Errorf("%w: %v", common.ErrDeploymentFailed, err)
	case exitCode != 0:
		result.Err = fmt.Errorf("%w: exit code %d", common.ErrDeploymentFailed, exitCode)
	}

	if result.Err != nil {
		t.logger.Error(ctx, "deployment failed",
			"source", source, "exit_code", exitCode, "error", result.Err, "stderr", stderr)
	} else {
		t.logger.Info(ctx, "deployment finished",
			"source", source, "duration", result.FinishedAt.Sub(result.StartedAt).String())
	}

	if t.archive != nil {
		// archiving is best effort and must not fail the deployment
		if err := t.archive.Archive(context.WithoutCancel(ctx), result); err != nil {
			t.logger.Warn(ctx, "failed to archive deployment log", "error", err)
		}
	}

	return result
}
