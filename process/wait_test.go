//go:build linux

package process

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/kbukum/procspawn/errors"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		name   string
		status unix.WaitStatus
		code   errors.ErrorCode
		want   int
	}{
		{"exit 0", 0, "", 0},
		{"exit 1", 1 << 8, errors.ErrCodeExitNonZero, 1},
		{"exit 255", 255 << 8, errors.ErrCodeExitNonZero, 255},
		{"killed", unix.WaitStatus(unix.SIGKILL), errors.ErrCodeWaitSignaled, errors.StatusWaitSignaled},
		{"stopped", unix.WaitStatus(0x7f | int(unix.SIGSTOP)<<8), errors.ErrCodeWaitNoExit, errors.StatusWaitNoExit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := statusError(42, tc.status)
			if errors.CodeOf(err) != tc.code {
				t.Errorf("expected code %q, got %v", tc.code, err)
			}
			if got := errors.StatusOf(err); got != tc.want {
				t.Errorf("expected status %d, got %d", tc.want, got)
			}
		})
	}
}

func TestStatusErrorSignalName(t *testing.T) {
	err := statusError(42, unix.WaitStatus(unix.SIGTERM))
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Details["signal"] != "SIGTERM" {
		t.Errorf("expected SIGTERM, got %v", appErr.Details["signal"])
	}
}

func stubWait4(t *testing.T, fn func(int, *unix.WaitStatus, int, *unix.Rusage) (int, error)) {
	t.Helper()
	orig := wait4Func
	wait4Func = fn
	t.Cleanup(func() { wait4Func = orig })
}

func TestWaitForRetriesEINTR(t *testing.T) {
	calls := 0
	stubWait4(t, func(pid int, ws *unix.WaitStatus, _ int, _ *unix.Rusage) (int, error) {
		calls++
		if calls < 3 {
			return -1, unix.EINTR
		}
		*ws = 0
		return pid, nil
	})
	if err := waitFor(7); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWaitForFailure(t *testing.T) {
	stubWait4(t, func(int, *unix.WaitStatus, int, *unix.Rusage) (int, error) {
		return -1, unix.ECHILD
	})
	err := waitFor(7)
	if !errors.HasCode(err, errors.ErrCodeWaitFailed) {
		t.Fatalf("expected WAIT_FAILED, got %v", err)
	}
}

func TestWaitForWrongChild(t *testing.T) {
	stubWait4(t, func(int, *unix.WaitStatus, int, *unix.Rusage) (int, error) {
		return 8, nil
	})
	err := waitFor(7)
	if !errors.HasCode(err, errors.ErrCodeWaitWrongChild) {
		t.Fatalf("expected WAIT_WRONG_CHILD, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["got_pid"] != 8 {
		t.Errorf("expected got_pid 8, got %v", appErr.Details["got_pid"])
	}
}
