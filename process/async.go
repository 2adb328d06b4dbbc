//go:build unix

package process

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/procspawn/errors"
	"github.com/kbukum/procspawn/logger"
	"github.com/kbukum/procspawn/observability"
)

// Async runs a registered producer in a child process. The producer's output
// arrives on Out while it is still running.
type Async struct {
	// Producer is the name given to RegisterProducer.
	Producer string
	// Data is passed to the producer function.
	Data []byte

	// Set by StartAsync. The caller owns Out and must close it.
	Out   *os.File
	Pid   int
	RunID string

	started time.Time
}

var executableFunc = os.Executable

// StartAsync spawns the producer child and returns once Data has been handed
// to it. Parent and child share no memory; the pipe is their only link.
func (s *Spawner) StartAsync(ctx context.Context, a *Async) (err error) {
	if a == nil {
		return errors.InvalidCommand("nil async")
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanAsyncStart)
	span.SetAttributes(attribute.String(observability.AttrProducer, a.Producer))
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordSpawn(ctx, kindAsync, err)
	}()

	if a.Pid != 0 {
		return errors.InvalidCommand("async already started").WithDetail("pid", a.Pid)
	}
	if lookupProducer(a.Producer) == nil {
		return errors.InvalidCommand(fmt.Sprintf("producer %q is not registered", a.Producer))
	}
	exe, err := executableFunc()
	if err != nil {
		return errors.ExecFailed(a.Producer, err)
	}

	out, err := newPipePair()
	if err != nil {
		return errors.PipeFailed("async output", err)
	}
	in, err := newPipePair()
	if err != nil {
		out.close()
		return errors.PipeFailed("async input", err)
	}

	env := applyEnv(os.Environ(), []string{ProducerEnv + "=" + a.Producer})
	pid, err := spawn(exe, []string{os.Args[0]}, "", env, []uintptr{in.r.Fd(), out.w.Fd(), 2})
	if err != nil {
		in.close()
		out.close()
		return err
	}
	_ = in.r.Close()
	_ = out.w.Close()

	a.Out = out.r
	a.Pid = pid
	a.RunID = uuid.NewString()
	a.started = time.Now()
	span.SetAttributes(attribute.Int(observability.AttrPID, pid))

	log := s.logger().WithContext(ctx)
	if _, werr := in.w.Write(a.Data); werr != nil && !stderrors.Is(werr, syscall.EPIPE) {
		// The child sees a short read; its exit status reports the outcome.
		log.WithError(werr).Warn("writing producer data")
	}
	_ = in.w.Close()

	log.Debug("producer started", logger.Fields(
		logger.FieldPID, pid,
		logger.FieldRunID, a.RunID,
		logger.FieldProducer, a.Producer,
	))
	return nil
}

func newPipePair() (*pipePair, error) {
	r, w, err := pipeFunc()
	if err != nil {
		return nil, err
	}
	return &pipePair{r: r, w: w}, nil
}

// FinishAsync waits for the producer child. Any outcome other than a clean
// exit is reported as ASYNC_WAIT_FAILED. It does not close a.Out.
func (s *Spawner) FinishAsync(ctx context.Context, a *Async) (err error) {
	if a == nil || a.Pid == 0 {
		return errors.InvalidCommand("async was not started")
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanAsyncFinish)
	span.SetAttributes(
		attribute.Int(observability.AttrPID, a.Pid),
		attribute.String(observability.AttrProducer, a.Producer),
	)
	defer func() { observability.EndSpan(span, err) }()

	waitErr := waitFor(a.Pid)
	lifetime := time.Since(a.started)
	if waitErr != nil {
		err = errors.AsyncWaitFailed(a.Producer, waitErr)
	}
	s.metrics.RecordReap(ctx, kindAsync, lifetime, err)
	s.logReap(ctx, a.Pid, a.RunID, lifetime, err)
	return err
}

// StartAsync spawns a producer using the default Spawner.
func StartAsync(ctx context.Context, a *Async) error { return Default().StartAsync(ctx, a) }

// FinishAsync waits for a producer using the default Spawner.
func FinishAsync(ctx context.Context, a *Async) error { return Default().FinishAsync(ctx, a) }
