package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		})
		got, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.True(t, f.IsComplete())
	})

	t.Run("propagates error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			return 0, boom
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("skips function when context is cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		f := async.Async(ctx, 0, func(context.Context, int) (int, error) {
			called = true
			return 1, nil
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("await with timeout", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			time.Sleep(200 * time.Millisecond)
			return 1, nil
		})
		_, err := f.AwaitWithTimeout(10 * time.Millisecond)
		assert.ErrorIs(t, err, async.ErrTimeout)
	})
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ctx := context.Background()
	square := func(_ context.Context, n int) (int, error) {
		if n < 0 {
			return 0, boom
		}
		return n * n, nil
	}

	results, err := async.WaitAll(
		async.Async(ctx, 2, square),
		async.Async(ctx, 3, square),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 9}, results)

	results, err = async.WaitAll(
		async.Async(ctx, 2, square),
		async.Async(ctx, -1, square),
	)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, results[0])
}

func TestSettle(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	items := []string{"ok", "fail", "slow", "panic"}

	outcomes := async.Settle(context.Background(), 50*time.Millisecond, items,
		func(ctx context.Context, item string) (string, error) {
			switch item {
			case "fail":
				return "", boom
			case "slow":
				<-ctx.Done()
				return "", ctx.Err()
			case "panic":
				panic("kaboom")
			}
			return item + "!", nil
		})

	require.Len(t, outcomes, len(items))
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, "ok!", outcomes[0].Value)
	assert.ErrorIs(t, outcomes[1].Err, boom)
	assert.ErrorIs(t, outcomes[2].Err, context.DeadlineExceeded)
	assert.ErrorIs(t, outcomes[3].Err, async.ErrPanic)
}

func TestSettleIgnoresContextWithoutTimeout(t *testing.T) {
	t.Parallel()

	outcomes := async.Settle(context.Background(), 20*time.Millisecond, []int{1},
		func(context.Context, int) (int, error) {
			time.Sleep(300 * time.Millisecond)
			return 1, nil
		})
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, async.ErrTimeout)
}

func TestSettleEmpty(t *testing.T) {
	t.Parallel()
	outcomes := async.Settle(context.Background(), time.Second, []int(nil),
		func(context.Context, int) (int, error) { return 0, nil })
	assert.Empty(t, outcomes)
}
