//go:build unix

package process_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/procspawn/errors"
	"github.com/kbukum/procspawn/process"
)

func TestAsyncRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := &process.Async{Producer: "pattern", Data: []byte("10000")}
	if err := process.StartAsync(ctx, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := io.ReadAll(a.Out)
	a.Out.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, pattern(10000)) {
		t.Fatalf("received %d bytes, not the 10000-byte pattern", len(got))
	}
	if err := process.FinishAsync(ctx, a); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

func TestAsyncLargeData(t *testing.T) {
	ctx := context.Background()
	data := pattern(1 << 18)
	a := &process.Async{Producer: "echo", Data: data}
	if err := process.StartAsync(ctx, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, _ := io.ReadAll(a.Out)
	a.Out.Close()
	if err := process.FinishAsync(ctx, a); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("echoed %d bytes, want %d", len(got), len(data))
	}
}

func TestAsyncProducerFailure(t *testing.T) {
	ctx := context.Background()
	a := &process.Async{Producer: "fail"}
	if err := process.StartAsync(ctx, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	io.Copy(io.Discard, a.Out)
	a.Out.Close()

	err := process.FinishAsync(ctx, a)
	if !errors.HasCode(err, errors.ErrCodeAsyncWaitFailed) {
		t.Fatalf("expected ASYNC_WAIT_FAILED, got %v", err)
	}
	if errors.HasCode(err, errors.ErrCodeExitNonZero) {
		t.Error("the wait sub-kind must not surface as the code")
	}
	appErr, _ := errors.AsAppError(err)
	reason, _ := appErr.Details["reason"].(string)
	if !strings.Contains(reason, string(errors.ErrCodeExitNonZero)) {
		t.Errorf("expected reason to mention the exit, got %q", reason)
	}
}

func TestAsyncValidation(t *testing.T) {
	ctx := context.Background()
	if err := process.StartAsync(ctx, &process.Async{Producer: "unknown"}); !errors.HasCode(err, errors.ErrCodeInvalidCommand) {
		t.Errorf("unregistered producer: expected INVALID_COMMAND, got %v", err)
	}
	if err := process.FinishAsync(ctx, &process.Async{Producer: "echo"}); !errors.HasCode(err, errors.ErrCodeInvalidCommand) {
		t.Errorf("finish before start: expected INVALID_COMMAND, got %v", err)
	}

	a := &process.Async{Producer: "echo"}
	if err := process.StartAsync(ctx, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		a.Out.Close()
		process.FinishAsync(ctx, a)
	}()
	if err := process.StartAsync(ctx, a); !errors.HasCode(err, errors.ErrCodeInvalidCommand) {
		t.Errorf("second start: expected INVALID_COMMAND, got %v", err)
	}
}
