package cli

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestSetupSignalHandler(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background())
	defer stop()

	select {
	case <-ctx.Done():
		t.Error("Context should not be cancelled initially")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestSetupSignalHandlerStop(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background())
	stop()
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("stop() should cancel the context")
	}
}

func TestSetupSignalHandlerParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SetupSignalHandler(parent)
	defer stop()

	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelling the parent should cancel the context")
	}
}

func TestSetupSignalHandlerSignal(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping signal test in short mode")
	}

	ctx, stop := SetupSignalHandler(context.Background())
	defer stop()

	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("FindProcess() failed: %v", err)
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("Signal() failed: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("SIGTERM should cancel the context")
	}
}

func TestWaitForShutdown(t *testing.T) {
	sigChan := WaitForShutdown()
	if sigChan == nil {
		t.Fatal("WaitForShutdown() returned nil channel")
	}

	select {
	case <-sigChan:
		t.Error("Signal channel should be empty initially")
	case <-time.After(10 * time.Millisecond):
	}
}
