//go:build unix

package process

import (
	"context"
	stderrors "errors"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sys/unix"

	"github.com/kbukum/procspawn/errors"
	"github.com/kbukum/procspawn/logger"
	"github.com/kbukum/procspawn/observability"
)

const (
	kindCommand = "command"
	kindAsync   = "async"
)

var forkExecFunc = syscall.ForkExec

// Start spawns the child described by cmd and returns without waiting for
// it. On success cmd.Pid and the caller ends of piped streams are set. On
// failure no process exists, no descriptor created by Start is left open and
// caller-supplied handles are untouched.
func (s *Spawner) Start(ctx context.Context, cmd *Command) (err error) {
	if cmd == nil {
		return errors.InvalidCommand("nil command")
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanStart)
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordSpawn(ctx, kindCommand, err)
	}()

	if err := cmd.validate(); err != nil {
		return err
	}

	env := applyEnv(os.Environ(), cmd.Env)

	argv := append([]string(nil), cmd.Argv...)
	var path string
	if cmd.Managed {
		resolver := s.ExecPath()
		argv[0] = resolver.Name(cmd.Argv[0])
		path, err = resolver.Resolve(cmd.Argv[0])
	} else {
		path, err = lookPath(argv[0], cmd.Dir, env)
	}
	if err != nil {
		return errors.ExecFailed(argv[0], err)
	}
	span.SetAttributes(attribute.String(observability.AttrExecutable, argv[0]))

	sio, err := acquireStdio(cmd.redirects())
	if err != nil {
		return err
	}

	pid, err := spawn(path, argv, cmd.Dir, env, sio.childFiles())
	if err != nil {
		sio.release()
		return err
	}

	cmd.In, cmd.Out, cmd.Err = sio.handOff()
	cmd.Pid = pid
	cmd.RunID = uuid.NewString()
	cmd.started = time.Now()

	span.SetAttributes(
		attribute.Int(observability.AttrPID, pid),
		attribute.String(observability.AttrRunID, cmd.RunID),
	)
	s.logger().WithContext(ctx).Debug("process started", logger.Fields(
		logger.FieldPID, pid,
		logger.FieldRunID, cmd.RunID,
		logger.FieldArgv0, argv[0],
		logger.FieldDir, cmd.Dir,
	))
	return nil
}

// spawn creates the child. A failure to change directory or exec comes back
// as an error with the half-created child already reaped.
func spawn(path string, argv []string, dir string, env []string, files []uintptr) (int, error) {
	pid, err := forkExecFunc(path, argv, &syscall.ProcAttr{
		Dir:   dir,
		Env:   env,
		Files: files,
	})
	if err != nil {
		return 0, classifySpawnError(argv[0], err)
	}
	return pid, nil
}

// classifySpawnError separates failures to create a process from failures of
// the new process to become the program.
func classifySpawnError(program string, err error) error {
	var errno syscall.Errno
	if stderrors.As(err, &errno) {
		switch errno {
		case unix.EAGAIN, unix.ENOMEM, unix.ENOSYS:
			return errors.ForkFailed(program, err)
		}
	}
	return errors.ExecFailed(program, err)
}
