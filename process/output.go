//go:build unix

package process

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kbukum/procspawn/errors"
)

// Result holds the output and status of a completed child.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte `json:"stdout"`
	// Stderr is the captured standard error.
	Stderr []byte `json:"stderr"`
	// ExitCode is the child's exit code, or -1 if it did not exit normally.
	ExitCode int `json:"exit_code"`
	// Duration is the time from Start to Finish.
	Duration time.Duration `json:"duration"`
}

// Output runs cmd with stdout and stderr captured. Both streams must be
// Pipe; stdin is closed right after the start when it is a pipe. The Result
// is returned alongside any error once the child has been started.
func (s *Spawner) Output(ctx context.Context, cmd *Command) (*Result, error) {
	if cmd == nil {
		return nil, errors.InvalidCommand("nil command")
	}
	if !cmd.Stdout.IsPipe() || !cmd.Stderr.IsPipe() {
		return nil, errors.InvalidCommand("output capture needs stdout and stderr piped").
			WithDetails(map[string]any{"stdout": cmd.Stdout.String(), "stderr": cmd.Stderr.String()})
	}

	start := time.Now()
	if err := s.Start(ctx, cmd); err != nil {
		return nil, err
	}
	if cmd.In != nil {
		_ = cmd.In.Close()
	}

	var stdout, stderr bytes.Buffer
	p := pool.New().WithErrors()
	p.Go(func() error {
		defer cmd.Out.Close()
		_, err := io.Copy(&stdout, cmd.Out)
		return err
	})
	p.Go(func() error {
		defer cmd.Err.Close()
		_, err := io.Copy(&stderr, cmd.Err)
		return err
	})
	copyErr := p.Wait()

	err := s.Finish(ctx, cmd)
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode(err),
		Duration: time.Since(start),
	}
	if err == nil && copyErr != nil {
		err = errors.New(errors.ErrCodePipeFailed, "reading child output").WithCause(copyErr)
	}
	return result, err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.HasCode(err, errors.ErrCodeExitNonZero) {
		return errors.StatusOf(err)
	}
	return -1
}

// Output captures the output of cmd using the default Spawner.
func Output(ctx context.Context, cmd *Command) (*Result, error) {
	return Default().Output(ctx, cmd)
}
