package differential

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jihwankim/nado/pkg/sandbox"
)

// WithSignalCancel derives a child context that is cancelled the first
// time SIGINT or SIGTERM arrives. RunAll's dispatcher treats cancellation
// as "stop handing out new cases"; every case already dispatched to a
// worker still runs to completion, so no subprocess is ever forcibly
// killed by the first signal — only the wall-clock timeout does that
// (§5).
//
// A second SIGINT/SIGTERM, arriving while the dispatcher is still
// draining in-flight cases, means the operator wants out now rather
// than waiting for the graceful drain. That one is treated as an
// abort: it kills every process sandbox.DefaultTracker still has
// in-flight via KillAll and exits the process directly, since there
// is no well-formed Result to return at that point.
func WithSignalCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			cancel()
		}

		<-sigCh
		summary := sandbox.DefaultTracker.KillAll()
		fmt.Fprintln(os.Stderr, "nado: second interrupt, aborting:", summary)
		os.Exit(130)
	}()

	return ctx, cancel
}
