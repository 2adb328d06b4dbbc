//go:build unix

package process

import (
	"context"
	stderrors "errors"
	"os"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/kbukum/procspawn/errors"
)

// openFDs counts the descriptors open in this process. The directory handle
// used for listing is counted every time, so differences are exact.
func openFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/dev/fd")
	if err != nil {
		t.Skipf("cannot list /dev/fd: %v", err)
	}
	return len(entries)
}

// warmUp makes the runtime create its poller descriptors before counting.
func warmUp(t *testing.T) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	w.Close()
}

type recordedPipes struct {
	calls int
	pairs []*pipePair
}

// failingPipe fails on call failAt (0-based) and records the pipes it made.
func failingPipe(rec *recordedPipes, failAt int) func() (*os.File, *os.File, error) {
	return func() (*os.File, *os.File, error) {
		n := rec.calls
		rec.calls++
		if n == failAt {
			return nil, nil, syscall.EMFILE
		}
		r, w, err := os.Pipe()
		if err == nil {
			rec.pairs = append(rec.pairs, &pipePair{r: r, w: w})
		}
		return r, w, err
	}
}

func restorePipeFuncs(t *testing.T) {
	origPipe, origNull, origFork := pipeFunc, openNullFunc, forkExecFunc
	t.Cleanup(func() {
		pipeFunc, openNullFunc, forkExecFunc = origPipe, origNull, origFork
	})
}

func isClosed(f *os.File) bool {
	return stderrors.Is(f.Close(), os.ErrClosed)
}

func TestAcquireStdioRollbackOrder(t *testing.T) {
	warmUp(t)
	all := [3]Redirect{Pipe, Pipe, Pipe}
	for k := 0; k < 3; k++ {
		t.Run(streamNames[k], func(t *testing.T) {
			restorePipeFuncs(t)
			rec := &recordedPipes{}
			pipeFunc = failingPipe(rec, k)

			before := openFDs(t)
			sio, err := acquireStdio(all)
			if sio != nil {
				t.Fatal("expected no stdio on failure")
			}
			if !errors.HasCode(err, errors.ErrCodePipeFailed) {
				t.Fatalf("expected PIPE_FAILED, got %v", err)
			}
			appErr, _ := errors.AsAppError(err)
			if appErr.Details["stream"] != streamNames[k] {
				t.Errorf("expected failing stream %s, got %v", streamNames[k], appErr.Details["stream"])
			}
			if len(rec.pairs) != k {
				t.Fatalf("expected %d pipes before the failure, got %d", k, len(rec.pairs))
			}
			for i, p := range rec.pairs {
				if !isClosed(p.r) || !isClosed(p.w) {
					t.Errorf("pipe for %s left open", streamNames[i])
				}
			}
			if after := openFDs(t); after != before {
				t.Errorf("descriptor leak: %d before, %d after", before, after)
			}
		})
	}
}

func TestAcquireStdioDecisionRule(t *testing.T) {
	tests := []struct {
		name      string
		redirects [3]Redirect
		pipes     int
		null      bool
	}{
		{"all piped", [3]Redirect{Pipe, Pipe, Pipe}, 3, false},
		{"all inherited", [3]Redirect{Inherit, Inherit, Inherit}, 0, false},
		{"no stdin", [3]Redirect{Null, Pipe, Pipe}, 2, true},
		{"stdout to stderr", [3]Redirect{Inherit, ToStderr, Pipe}, 1, false},
		{"all null", [3]Redirect{Null, Null, Null}, 0, true},
		{"file stdout", [3]Redirect{Pipe, File(os.Stdout), Inherit}, 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			restorePipeFuncs(t)
			rec := &recordedPipes{}
			pipeFunc = failingPipe(rec, -1)

			sio, err := acquireStdio(tc.redirects)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer sio.release()
			if rec.calls != tc.pipes {
				t.Errorf("expected %d pipes, got %d", tc.pipes, rec.calls)
			}
			if (sio.null != nil) != tc.null {
				t.Errorf("null device opened = %v, want %v", sio.null != nil, tc.null)
			}
		})
	}
}

func TestChildFilesStdoutFollowsStderr(t *testing.T) {
	sio, err := acquireStdio([3]Redirect{Inherit, ToStderr, Pipe})
	if err != nil {
		t.Fatal(err)
	}
	defer sio.release()

	files := sio.childFiles()
	if files[0] != 0 {
		t.Errorf("stdin should be inherited, got fd %d", files[0])
	}
	if files[1] != files[2] {
		t.Errorf("stdout should copy stderr: %d vs %d", files[1], files[2])
	}
	if files[2] != sio.pipes[2].w.Fd() {
		t.Errorf("stderr should be the pipe write end")
	}
}

func TestNullDeviceFailureRollsBackPipes(t *testing.T) {
	warmUp(t)
	restorePipeFuncs(t)
	rec := &recordedPipes{}
	pipeFunc = failingPipe(rec, -1)
	openNullFunc = func() (*os.File, error) { return nil, syscall.ENFILE }

	before := openFDs(t)
	_, err := acquireStdio([3]Redirect{Pipe, Null, Pipe})
	if !errors.HasCode(err, errors.ErrCodePipeFailed) {
		t.Fatalf("expected PIPE_FAILED, got %v", err)
	}
	for _, p := range rec.pairs {
		if !isClosed(p.r) || !isClosed(p.w) {
			t.Error("pipe left open after null device failure")
		}
	}
	if after := openFDs(t); after != before {
		t.Errorf("descriptor leak: %d before, %d after", before, after)
	}
}

func TestStartForkFailureRollsBack(t *testing.T) {
	tests := []struct {
		errno syscall.Errno
		code  errors.ErrorCode
	}{
		{unix.EAGAIN, errors.ErrCodeForkFailed},
		{unix.ENOMEM, errors.ErrCodeForkFailed},
		{unix.ENOENT, errors.ErrCodeExecFailed},
		{unix.EACCES, errors.ErrCodeExecFailed},
	}
	for _, tc := range tests {
		t.Run(tc.errno.Error(), func(t *testing.T) {
			warmUp(t)
			restorePipeFuncs(t)
			forkExecFunc = func(string, []string, *syscall.ProcAttr) (int, error) {
				return 0, tc.errno
			}

			f, err := os.CreateTemp(t.TempDir(), "out")
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			before := openFDs(t)
			cmd := &Command{Argv: []string{"true"}, Stdin: Null, Stdout: File(f), Stderr: Pipe}
			err = NewSpawner().Start(context.Background(), cmd)
			if !errors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if cmd.Pid != 0 || cmd.Err != nil {
				t.Errorf("command should stay unstarted, got pid %d", cmd.Pid)
			}
			if after := openFDs(t); after != before {
				t.Errorf("descriptor leak: %d before, %d after", before, after)
			}
			if _, err := f.Stat(); err != nil {
				t.Errorf("caller handle should stay open on failure: %v", err)
			}
		})
	}
}

func TestStartHandsOffDescriptors(t *testing.T) {
	warmUp(t)
	before := openFDs(t)

	f, err := os.CreateTemp(t.TempDir(), "err")
	if err != nil {
		t.Fatal(err)
	}
	cmd := &Command{Argv: []string{"cat"}, Stdin: Pipe, Stdout: Pipe, Stderr: File(f)}
	s := NewSpawner()
	if err := s.Start(context.Background(), cmd); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !isClosed(f) {
		t.Error("caller-supplied handle should be owned by the command after start")
	}
	// caller ends for stdin and stdout, nothing else
	if got := openFDs(t); got != before+2 {
		t.Errorf("expected %d descriptors after start, got %d", before+2, got)
	}

	cmd.In.Close()
	cmd.Out.Close()
	if err := s.Finish(context.Background(), cmd); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if after := openFDs(t); after != before {
		t.Errorf("descriptor leak: %d before, %d after", before, after)
	}
}
