package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/YoshitsuguKoike/donothing/internal/application/workflow"
	"github.com/spf13/cobra"
)

// getSignalsToHandle returns the signals that stop a run between steps
func getSignalsToHandle() []os.Signal {
	return []os.Signal{
		os.Interrupt,    // Ctrl+C (SIGINT)
		syscall.SIGTERM, // kill command
	}
}

// Execute runs the command line for def. The first interrupt stops the run
// before its next step; a second one terminates the process as usual, which
// is safe since every mutation is already checkpointed.
func Execute(def workflow.Definition) error {
	ctx, stop := signal.NotifyContext(context.Background(), getSignalsToHandle()...)
	defer stop()

	return executeUntilInterrupted(ctx, stop, NewRoot(def))
}

// executeUntilInterrupted runs root with ctx. Once ctx is cancelled, restore
// is called so the next signal gets its default behavior. The watcher
// goroutine has exited by the time this returns.
func executeUntilInterrupted(ctx context.Context, restore func(), root *cobra.Command) error {
	finished := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
		case <-finished:
		}
		if ctx.Err() != nil {
			restore()
			fmt.Fprintln(root.ErrOrStderr(), "Interrupted: stopping before the next step. Interrupt again to exit now.")
		}
	}()

	err := root.ExecuteContext(ctx)
	close(finished)
	wg.Wait()
	return err
}
