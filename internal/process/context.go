package process

import (
	"context"
	"time"
)

// RunContext runs r and stops it with the given grace period if ctx is
// cancelled first. It returns ctx.Err() without starting anything when ctx is
// already done. Otherwise it returns what Run returns; a cancelled process
// still has an exit code, usually 128 plus the signal number.
func RunContext(ctx context.Context, r *Runner, stopTimeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			r.logger.Info("process_cancelled",
				"path", r.inv.Path,
				"reason", context.Cause(ctx),
			)
			if err := stopWhenStarted(r, stopTimeout); err != nil {
				r.logger.Warn("process_stop_failed", "path", r.inv.Path, "error", err)
			}
		case <-r.Done():
		}
	}()

	err := r.Run()
	<-watcherDone
	return err
}

// stopWhenStarted waits for r to leave its startup states, then stops it.
// Stop alone would return early while the process is still being started.
func stopWhenStarted(r *Runner, timeout time.Duration) error {
	for s := r.State(); s == StateCreated || s == StateStarting; s = r.State() {
		select {
		case <-r.Done():
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}
	return r.Stop(timeout)
}
