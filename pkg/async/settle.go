package async

import (
	"context"
	"fmt"
	"time"
)

// Outcome is the settled result of one task started by Settle.
type Outcome[U any] struct {
	Value    U
	Err      error
	Duration time.Duration
}

// Settle runs fn for every item concurrently and waits for all of them to
// finish, regardless of individual failures. Each call gets its own context
// bounded by timeout; a task that overruns is reported with ErrTimeout.
// A panic inside fn is recovered and reported as that task's error.
// Outcomes are returned in the order of items.
//
// A timeout of zero or less disables the per-task bound.
func Settle[T any, U any](ctx context.Context, timeout time.Duration, items []T, fn func(context.Context, T) (U, error)) []Outcome[U] {
	futures := make([]*Future[Outcome[U]], len(items))

	for i, item := range items {
		futures[i] = Async(ctx, item, func(ctx context.Context, item T) (out Outcome[U], err error) {
			start := time.Now()
			taskCtx, cancel := ctx, context.CancelFunc(func() {})
			if timeout > 0 {
				taskCtx, cancel = context.WithTimeout(ctx, timeout)
			}
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					out.Err = fmt.Errorf("%w: %v", ErrPanic, r)
				}
				out.Duration = time.Since(start)
			}()

			out.Value, out.Err = fn(taskCtx, item)
			if out.Err == nil && taskCtx.Err() == context.DeadlineExceeded {
				out.Err = ErrTimeout
			}
			return out, nil
		})
	}

	outcomes := make([]Outcome[U], len(items))
	for i, f := range futures {
		var (
			out Outcome[U]
			err error
		)
		if timeout > 0 {
			// Grace period lets a task that honours its context report its own error.
			out, err = f.AwaitWithTimeout(timeout + timeout/10 + 10*time.Millisecond)
		} else {
			out, err = f.Await()
		}
		if err != nil {
			out = Outcome[U]{Err: err, Duration: timeout}
		}
		outcomes[i] = out
	}
	return outcomes
}
