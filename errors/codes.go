package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Launch errors: no child process exists when one of these is returned.
const (
	// ErrCodeForkFailed indicates the OS refused to create a new process.
	ErrCodeForkFailed ErrorCode = "FORK_FAILED"
	// ErrCodeExecFailed indicates the program could not be resolved or executed.
	ErrCodeExecFailed ErrorCode = "EXEC_FAILED"
	// ErrCodePipeFailed indicates a standard-stream pipe could not be set up.
	ErrCodePipeFailed ErrorCode = "PIPE_FAILED"
)

// Join errors: the child existed but could not be reaped cleanly.
const (
	// ErrCodeWaitFailed indicates the wait call itself failed.
	ErrCodeWaitFailed ErrorCode = "WAIT_FAILED"
	// ErrCodeWaitWrongChild indicates wait reported a different process.
	ErrCodeWaitWrongChild ErrorCode = "WAIT_WRONG_CHILD"
	// ErrCodeWaitSignaled indicates the child was terminated by a signal.
	ErrCodeWaitSignaled ErrorCode = "WAIT_SIGNALED"
	// ErrCodeWaitNoExit indicates the child stopped without a normal exit.
	ErrCodeWaitNoExit ErrorCode = "WAIT_NO_EXIT"
	// ErrCodeAsyncWaitFailed indicates an async producer did not finish successfully.
	ErrCodeAsyncWaitFailed ErrorCode = "ASYNC_WAIT_FAILED"
)

// Child outcome.
const (
	// ErrCodeExitNonZero indicates the child ran and exited with a non-zero code.
	ErrCodeExitNonZero ErrorCode = "EXIT_NON_ZERO"
)

// Configuration errors
const (
	// ErrCodeInvalidCommand indicates the command description is unusable.
	ErrCodeInvalidCommand ErrorCode = "INVALID_COMMAND"
	// ErrCodeConfigInvalid indicates service configuration failed validation.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
)

// Reserved numeric statuses. They start above any valid process exit code so
// callers can tell "child ran and failed" from "child could not be launched or
// waited on".
const (
	StatusForkFailed      = 10000
	StatusExecFailed      = 10001
	StatusPipeFailed      = 10002
	StatusWaitFailed      = 10003
	StatusWaitWrongChild  = 10004
	StatusWaitSignaled    = 10005
	StatusWaitNoExit      = 10006
	StatusInvalidCommand  = 10007
	StatusAsyncWaitFailed = 10008
)

var statusByCode = map[ErrorCode]int{
	ErrCodeForkFailed:      StatusForkFailed,
	ErrCodeExecFailed:      StatusExecFailed,
	ErrCodePipeFailed:      StatusPipeFailed,
	ErrCodeWaitFailed:      StatusWaitFailed,
	ErrCodeWaitWrongChild:  StatusWaitWrongChild,
	ErrCodeWaitSignaled:    StatusWaitSignaled,
	ErrCodeWaitNoExit:      StatusWaitNoExit,
	ErrCodeInvalidCommand:  StatusInvalidCommand,
	ErrCodeConfigInvalid:   StatusInvalidCommand,
	ErrCodeAsyncWaitFailed: StatusAsyncWaitFailed,
}

// Resource exhaustion at launch time is transient; everything about the child
// itself is not.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeForkFailed: true,
	ErrCodePipeFailed: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// StatusForCode returns the reserved numeric status for a code, or 0 when the
// code has none (EXIT_NON_ZERO carries the child's own exit code instead).
func StatusForCode(code ErrorCode) int {
	return statusByCode[code]
}
