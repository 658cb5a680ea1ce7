package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianfending/contact-service/internal/platform/logging"
)

// Submission pipeline: Validate → Verify → Persist → Notify
//
// Steps run strictly in order and the first required failure stops the run,
// so nothing is written for an input that failed validation or verification.
//
// The 4 Steps:
//   1. VALIDATE - Check the input before any external call
//   2. VERIFY   - Confirm the submitter with an external provider
//   3. PERSIST  - Record the input in the first sink that accepts it
//   4. NOTIFY   - Announce the result; optional, failures are logged only

// ExecutionStep identifies a step in the submission pipeline.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepVerify   ExecutionStep = "verify"
	StepPersist  ExecutionStep = "persist"
	StepNotify   ExecutionStep = "notify"
)

// ExecutionError wraps errors with the step where they occurred.
type ExecutionError struct {
	Step  ExecutionStep
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Step is a single named unit of work.
type Step struct {
	Name ExecutionStep

	// Optional steps log their failure and let the run succeed.
	Optional bool

	// Skip leaves the step out entirely, e.g. when its collaborator is not configured.
	Skip bool

	Run func(ctx context.Context) error
}

// Executor runs steps in order with per-step logging.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a new executor with the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Run executes steps in order. The first failing required step aborts the run
// and its error is returned wrapped in an *ExecutionError.
func (e *Executor) Run(ctx context.Context, name string, steps ...Step) error {
	logger := logging.FromContextOr(ctx, e.logger).With(slog.String("operation", name))
	start := time.Now()

	for _, step := range steps {
		if step.Skip || step.Run == nil {
			logger.DebugContext(ctx, "step skipped", slog.String("step", string(step.Name)))
			continue
		}

		if err := e.runStep(ctx, logger, step); err != nil {
			logger.InfoContext(ctx, "operation aborted",
				slog.String("step", string(step.Name)),
				slog.Duration("duration", time.Since(start)),
			)

			return err
		}
	}

	logger.InfoContext(ctx, "operation completed",
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}

func (e *Executor) runStep(ctx context.Context, logger *slog.Logger, step Step) error {
	logger = logger.With(slog.String("step", string(step.Name)))
	logger.DebugContext(ctx, "step started")

	err := step.Run(ctx)
	if err == nil {
		logger.DebugContext(ctx, "step passed")
		return nil
	}

	if step.Optional {
		logger.WarnContext(ctx, "optional step failed", slog.Any("error", err))
		return nil
	}

	logger.DebugContext(ctx, "step failed", slog.Any("error", err))

	return &ExecutionError{Step: step.Name, Cause: err}
}

// IsExecutionError checks if an error occurred during execution.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}

// GetExecutionStep extracts the step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
