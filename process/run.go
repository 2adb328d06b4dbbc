//go:build unix

package process

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/procspawn/errors"
	"github.com/kbukum/procspawn/logger"
	"github.com/kbukum/procspawn/observability"
)

// Finish waits for the child started from cmd and reports how it ended: nil
// for exit code 0, otherwise one of EXIT_NON_ZERO, WAIT_SIGNALED,
// WAIT_NO_EXIT, WAIT_FAILED or WAIT_WRONG_CHILD. Finish does not close the
// caller ends in cmd.
func (s *Spawner) Finish(ctx context.Context, cmd *Command) (err error) {
	if cmd == nil || cmd.Pid == 0 {
		return errors.InvalidCommand("command was not started")
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanWait)
	span.SetAttributes(
		attribute.Int(observability.AttrPID, cmd.Pid),
		attribute.String(observability.AttrRunID, cmd.RunID),
	)
	defer func() { observability.EndSpan(span, err) }()

	err = waitFor(cmd.Pid)
	lifetime := time.Since(cmd.started)
	span.SetAttributes(attribute.Int(observability.AttrExitCode, ExitStatus(err)))
	if err != nil {
		span.SetAttributes(attribute.String(observability.AttrErrorCode, string(errors.CodeOf(err))))
	}
	s.metrics.RecordReap(ctx, kindCommand, lifetime, err)
	s.logReap(ctx, cmd.Pid, cmd.RunID, lifetime, err)
	return err
}

func (s *Spawner) logReap(ctx context.Context, pid int, runID string, lifetime time.Duration, err error) {
	fields := logger.DurationFields("wait", lifetime)
	fields[logger.FieldPID] = pid
	fields[logger.FieldRunID] = runID
	if err == nil {
		s.logger().WithContext(ctx).Debug("process exited", fields)
		return
	}
	fields[logger.FieldCode] = string(errors.CodeOf(err))
	if appErr, ok := errors.AsAppError(err); ok {
		switch appErr.Code {
		case errors.ErrCodeExitNonZero:
			fields[logger.FieldExitCode] = appErr.Status
		case errors.ErrCodeWaitSignaled:
			fields[logger.FieldSignal] = appErr.Details["signal"]
		}
	}
	s.logger().WithContext(ctx).Debug("process failed", logger.MergeWithError(fields, err))
}

// Run starts cmd and waits for it. A start failure is returned without
// waiting.
func (s *Spawner) Run(ctx context.Context, cmd *Command) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
	err := s.Start(ctx, cmd)
	if err == nil {
		err = s.Finish(ctx, cmd)
	}
	observability.EndSpan(span, err)
	return err
}

// RunV runs argv with all streams inherited except those named by opts.
func (s *Spawner) RunV(ctx context.Context, argv []string, opts Options) error {
	return s.RunVDirEnv(ctx, argv, opts, "", nil)
}

// RunVDir is RunV in working directory dir.
func (s *Spawner) RunVDir(ctx context.Context, argv []string, opts Options, dir string) error {
	return s.RunVDirEnv(ctx, argv, opts, dir, nil)
}

// RunVDirEnv is RunV in working directory dir with environment overrides env.
func (s *Spawner) RunVDirEnv(ctx context.Context, argv []string, opts Options, dir string, env []string) error {
	cmd := NewCommand(argv, opts)
	cmd.Dir = dir
	cmd.Env = env
	return s.Run(ctx, cmd)
}

// ExitStatus maps the result of Run or Finish to one integer: 0 on success,
// the child's exit code when it exited non-zero, and a reserved value of
// 10000 or more for everything else.
func ExitStatus(err error) int {
	return errors.StatusOf(err)
}

// Start spawns cmd using the default Spawner.
func Start(ctx context.Context, cmd *Command) error { return Default().Start(ctx, cmd) }

// Finish waits for cmd using the default Spawner.
func Finish(ctx context.Context, cmd *Command) error { return Default().Finish(ctx, cmd) }

// Run starts cmd and waits for it using the default Spawner.
func Run(ctx context.Context, cmd *Command) error { return Default().Run(ctx, cmd) }

// RunV runs argv using the default Spawner.
func RunV(ctx context.Context, argv []string, opts Options) error {
	return Default().RunV(ctx, argv, opts)
}

// RunVDir runs argv in dir using the default Spawner.
func RunVDir(ctx context.Context, argv []string, opts Options, dir string) error {
	return Default().RunVDir(ctx, argv, opts, dir)
}

// RunVDirEnv runs argv in dir with env overrides using the default Spawner.
func RunVDirEnv(ctx context.Context, argv []string, opts Options, dir string, env []string) error {
	return Default().RunVDirEnv(ctx, argv, opts, dir, env)
}
