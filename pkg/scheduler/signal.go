package scheduler

import (
	"context"
	"os"
	"os/signal"
)

// WatchCtrlC links ctx's cancellation to the first SIGINT, and calls onAbort
// on a second SIGINT received after the first (spec.md's supplemented
// double-Ctrl-C semantics: one Ctrl-C requests a graceful, fail-fast-style
// stop; a second forces immediate exit). Ports
// original_source/src/hook.rs::watch_for_ctrl_c, extended with a second
// trap since signal.NotifyContext alone (the Go stdlib idiom) only cancels
// once and then stops listening.
func WatchCtrlC(parent context.Context, onAbort func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt)

	go func() {
		count := 0
		for range ch {
			count++
			if count == 1 {
				cancel()
				continue
			}
			onAbort()
			return
		}
	}()

	stop := func() {
		signal.Stop(ch)
		cancel()
	}
	return ctx, stop
}
