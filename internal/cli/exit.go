//go:build unix

package cli

import (
	"golang.org/x/sys/unix"

	"github.com/kbukum/procspawn/errors"
)

// Exit codes for outcomes that are not a child's own exit code.
const (
	exitFailure    = 1
	exitNotRunning = 127
	exitSignalBase = 128
)

// exitCodeFor maps a command result to the shell convention: the child's
// code when it exited, 128+N when signal N killed it, 127 when it could not
// be executed and 1 for anything else.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return exitFailure
	}
	switch appErr.Code {
	case errors.ErrCodeExitNonZero:
		return appErr.Status
	case errors.ErrCodeWaitSignaled:
		name, _ := appErr.Details["signal"].(string)
		if sig := unix.SignalNum(name); sig != 0 {
			return exitSignalBase + int(sig)
		}
		return exitFailure
	case errors.ErrCodeExecFailed:
		return exitNotRunning
	default:
		return exitFailure
	}
}

// isChildOutcome reports whether err describes how a started child ended,
// which the child has already reported on its own streams.
func isChildOutcome(err error) bool {
	return errors.HasCode(err, errors.ErrCodeExitNonZero) || errors.HasCode(err, errors.ErrCodeWaitSignaled)
}
