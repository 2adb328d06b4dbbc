package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Status(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		status    int
		retryable bool
	}{
		{ErrCodeForkFailed, StatusForkFailed, true},
		{ErrCodeExecFailed, StatusExecFailed, false},
		{ErrCodePipeFailed, StatusPipeFailed, true},
		{ErrCodeWaitFailed, StatusWaitFailed, false},
		{ErrCodeWaitWrongChild, StatusWaitWrongChild, false},
		{ErrCodeWaitSignaled, StatusWaitSignaled, false},
		{ErrCodeWaitNoExit, StatusWaitNoExit, false},
		{ErrCodeInvalidCommand, StatusInvalidCommand, false},
		{ErrCodeAsyncWaitFailed, StatusAsyncWaitFailed, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "x")
			if err.Status != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, err.Status)
			}
			if err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, err.Retryable)
			}
		})
	}
}

func TestReservedStatusesAboveExitCodes(t *testing.T) {
	for code, status := range statusByCode {
		if status <= 255 {
			t.Errorf("%s: status %d overlaps process exit codes", code, status)
		}
	}
}

func TestExitNonZero_CarriesCode(t *testing.T) {
	for _, n := range []int{1, 7, 255} {
		err := ExitNonZero(42, n)
		if err.Code != ErrCodeExitNonZero {
			t.Errorf("expected EXIT_NON_ZERO, got %s", err.Code)
		}
		if err.Status != n {
			t.Errorf("expected status %d, got %d", n, err.Status)
		}
		if err.Details["exit_code"] != n {
			t.Errorf("expected exit_code detail %d, got %v", n, err.Details["exit_code"])
		}
		if StatusOf(err) != n {
			t.Errorf("StatusOf: expected %d, got %d", n, StatusOf(err))
		}
	}
}

func TestPipeFailed_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("too many open files")
	err := PipeFailed("stdout", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if err.Details["stream"] != "stdout" {
		t.Errorf("expected stream=stdout, got %v", err.Details["stream"])
	}
	if !strings.Contains(err.Error(), "too many open files") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAsyncWaitFailed_HidesSubKind(t *testing.T) {
	inner := WaitSignaled(10, "killed")
	err := AsyncWaitFailed("feed", inner)
	if err.Cause != nil {
		t.Error("async wait error should not chain the wait sub-kind")
	}
	if HasCode(err, ErrCodeWaitSignaled) {
		t.Error("sub-kind leaked through HasCode")
	}
	if err.Details["reason"] != inner.Error() {
		t.Errorf("expected reason detail, got %v", err.Details["reason"])
	}
}

func TestAppError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", WaitSignaled(1, "terminated"))
	if !stderrors.Is(err, &AppError{Code: ErrCodeWaitSignaled}) {
		t.Error("expected Is to match by code")
	}
	if stderrors.Is(err, &AppError{Code: ErrCodeWaitNoExit}) {
		t.Error("expected Is not to match a different code")
	}
}

func TestCodeOfAndHasCode(t *testing.T) {
	if CodeOf(nil) != "" {
		t.Error("expected empty code for nil")
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("expected empty code for foreign error")
	}
	err := fmt.Errorf("ctx: %w", ForkFailed("ls", nil))
	if CodeOf(err) != ErrCodeForkFailed {
		t.Errorf("expected FORK_FAILED, got %s", CodeOf(err))
	}
	if !HasCode(err, ErrCodeForkFailed) {
		t.Error("expected HasCode true")
	}
	if HasCode(nil, ErrCodeForkFailed) {
		t.Error("expected HasCode false for nil")
	}
	if !IsRetryable(err) {
		t.Error("fork failure should be retryable")
	}
}

func TestStatusOf(t *testing.T) {
	if StatusOf(nil) != 0 {
		t.Error("expected 0 for nil")
	}
	if StatusOf(WaitNoExit(3)) != StatusWaitNoExit {
		t.Errorf("expected %d, got %d", StatusWaitNoExit, StatusOf(WaitNoExit(3)))
	}
	if StatusOf(fmt.Errorf("plain")) != StatusExecFailed {
		t.Error("expected foreign errors to map to exec failure")
	}
}

func TestWithDetails_Merges(t *testing.T) {
	err := InvalidCommand("bad").WithDetail("a", 1).WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestToResponse_JSON(t *testing.T) {
	err := WaitWrongChild(10, 11)
	data, jerr := json.Marshal(err.ToResponse())
	if jerr != nil {
		t.Fatalf("marshal: %v", jerr)
	}
	s := string(data)
	for _, want := range []string{`"code":"WAIT_WRONG_CHILD"`, `"status":10004`, `"got_pid":11`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestAsAppError(t *testing.T) {
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("expected false for plain error")
	}
	appErr, ok := AsAppError(fmt.Errorf("w: %w", ExecFailed("nope", nil)))
	if !ok || appErr.Code != ErrCodeExecFailed {
		t.Errorf("expected EXEC_FAILED AppError, got %v", appErr)
	}
	if !IsAppError(appErr) {
		t.Error("expected IsAppError true")
	}
}
