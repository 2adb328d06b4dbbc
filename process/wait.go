//go:build unix

package process

import (
	stderrors "errors"

	"golang.org/x/sys/unix"

	"github.com/kbukum/procspawn/errors"
)

var wait4Func = unix.Wait4

// waitFor blocks until pid terminates and translates its status. EINTR is
// retried. It is the only place a termination status is interpreted.
func waitFor(pid int) error {
	var ws unix.WaitStatus
	for {
		got, err := wait4Func(pid, &ws, 0, nil)
		if stderrors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return errors.WaitFailed(pid, err)
		}
		if got != pid {
			return errors.WaitWrongChild(pid, got)
		}
		break
	}
	return statusError(pid, ws)
}

func statusError(pid int, ws unix.WaitStatus) error {
	switch {
	case ws.Signaled():
		return errors.WaitSignaled(pid, unix.SignalName(ws.Signal()))
	case !ws.Exited():
		return errors.WaitNoExit(pid)
	case ws.ExitStatus() != 0:
		return errors.ExitNonZero(pid, ws.ExitStatus())
	default:
		return nil
	}
}
