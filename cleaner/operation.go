package cleaner

import (
	"context"
	"time"

	"github.com/teranos/metaclean/errors"
)

// Operation is one per-file cleaning operation. Apply never panics and never
// returns an error: every failure is captured in the outcome so the engine
// can continue with the remaining operations and files.
//
// Dry-run shares the live code path; only the final mutating call is replaced
// by a no-op that still computes the outcome that would have resulted.
type Operation interface {
	Kind() OperationKind
	Apply(ctx context.Context, path string, dryRun bool) OperationOutcome
}

// runWithTimeout bounds a filesystem call that the host OS may hang on
// (stream enumeration against remote volumes, security descriptor writes).
// The call itself cannot be interrupted; on deadline it is abandoned to its
// goroutine and the operation reports a timeout instead of stalling the run.
func runWithTimeout(ctx context.Context, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		return fn()
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return errors.Wrapf(errors.ErrTimeout, "no response after %s", timeout)
	case <-ctx.Done():
		return errors.WrapSentinel(errors.ErrTimeout, ctx.Err())
	}
}
