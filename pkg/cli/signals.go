package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals are the signals that cancel a command.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupSignalHandler returns a context derived from parent that is
// cancelled on the first SIGINT or SIGTERM. A second signal exits the
// process immediately with ExitFailure. The returned stop function
// releases the signal handler.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, shutdownSignals...)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigChan:
			fmt.Fprintf(os.Stderr, "received %v again, exiting\n", sig)
			os.Exit(ExitFailure)
		case <-done:
		}
	}()

	stop := func() {
		signal.Stop(sigChan)
		select {
		case <-done:
		default:
			close(done)
		}
		cancel()
	}
	return ctx, stop
}

// WaitForShutdown returns a channel that receives shutdown signals.
func WaitForShutdown() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, shutdownSignals...)
	return sigChan
}
