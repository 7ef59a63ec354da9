package lifecycle

import (
	"context"
	"fmt"
)

// runWithTimeout runs fn to completion or until ctx is cancelled/expires,
// whichever comes first, per spec.md §5: init, health, cleanup, and remote
// fetches each carry an independent bounded timeout, and a timeout is a
// failure of that step.
func runWithTimeout(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("timed out: %w", ctx.Err())
	}
}
