package tokenbucket_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tokenbucket/pkg/clock"
	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

func TestMemoryGateway_LoadSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing key is not an error", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway()

		_, ok, err := gw.Load(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("returns saved state per key", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway()

		a := state(3, testTime)
		b := state(7, testTime.Add(time.Hour))
		require.NoError(t, gw.Save(ctx, "a", a))
		require.NoError(t, gw.Save(ctx, "b", b))

		got, ok, err := gw.Load(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Equal(a))

		got, ok, err = gw.Load(ctx, "b")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Equal(b))
		assert.Equal(t, 2, gw.Len())
	})

	t.Run("save replaces previous state", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway()

		require.NoError(t, gw.Save(ctx, "k", state(3, testTime)))
		require.NoError(t, gw.Save(ctx, "k", state(1, testTime)))

		got, _, err := gw.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Remaining)
		assert.Equal(t, int64(2), gw.Stats().Saves)
	})

	t.Run("delete removes record", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway()

		require.NoError(t, gw.Save(ctx, "k", state(3, testTime)))
		require.NoError(t, gw.Delete(ctx, "k"))
		require.NoError(t, gw.Delete(ctx, "never-existed"))

		_, ok, err := gw.Load(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cancelled context fails fast", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway()

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := gw.Load(cctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, gw.Save(cctx, "k", state(1, testTime)), context.Canceled)
	})
}

func TestMemoryGateway_WithBucket(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("state survives bucket reconstruction", func(t *testing.T) {
		t.Parallel()

		gw := tokenbucket.NewMemoryGateway()
		clk := clock.NewManual(testTime)

		first, err := tokenbucket.New(ctx, gw, testBucketKey, 10, 24*time.Hour, clk)
		require.NoError(t, err)

		ok, err := first.TryConsume(ctx, 8)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, clk.Advance(time.Hour))
		second, err := tokenbucket.New(ctx, gw, testBucketKey, 100, time.Minute, clk)
		require.NoError(t, err)

		remaining, err := second.Remaining(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), remaining)
		assert.Equal(t, defaultLimit, second.Limit())
	})

	t.Run("keys are isolated", func(t *testing.T) {
		t.Parallel()

		gw := tokenbucket.NewMemoryGateway()
		clk := clock.NewManual(testTime)

		a, err := tokenbucket.New(ctx, gw, "a", 5, time.Hour, clk)
		require.NoError(t, err)
		b, err := tokenbucket.New(ctx, gw, "b", 5, time.Hour, clk)
		require.NoError(t, err)

		ok, err := a.TryConsume(ctx, 5)
		require.NoError(t, err)
		require.True(t, ok)

		remaining, err := b.Remaining(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), remaining)
	})
}

func TestMemoryGateway_RemoveStale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.NewManual(testTime)
	gw := tokenbucket.NewMemoryGateway(
		tokenbucket.WithStaleThreshold(time.Hour),
		tokenbucket.WithMemoryGatewayClock(clk),
	)

	require.NoError(t, gw.Save(ctx, "old", state(1, testTime)))
	require.NoError(t, clk.Advance(50*time.Minute))
	require.NoError(t, gw.Save(ctx, "fresh", state(1, testTime)))

	require.NoError(t, clk.Advance(11*time.Minute))
	assert.Equal(t, 1, gw.RemoveStale())

	_, ok, err := gw.Load(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = gw.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)

	stats := gw.Stats()
	assert.Equal(t, int64(1), stats.RecordsRemoved)
	assert.Equal(t, 1, stats.ActiveRecords)
}

func TestMemoryGateway_StartStop(t *testing.T) {
	t.Parallel()

	t.Run("start and stop cleanup successfully", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway(
			tokenbucket.WithCleanupInterval(50 * time.Millisecond),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			_ = gw.Start(ctx)
		}()

		require.Eventually(t, func() bool { return gw.Stats().IsRunning }, time.Second, 5*time.Millisecond)
		assert.NoError(t, gw.Healthcheck(ctx))

		assert.NoError(t, gw.Stop())
		assert.False(t, gw.Stats().IsRunning)
	})

	t.Run("fails to start when already started", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway(
			tokenbucket.WithCleanupInterval(50 * time.Millisecond),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			_ = gw.Start(ctx)
		}()
		require.Eventually(t, func() bool { return gw.Stats().IsRunning }, time.Second, 5*time.Millisecond)

		err := gw.Start(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already started")

		_ = gw.Stop()
	})

	t.Run("parent context cancellation resets lifecycle", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway(
			tokenbucket.WithCleanupInterval(50 * time.Millisecond),
		)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- gw.Start(ctx)
		}()
		require.Eventually(t, func() bool { return gw.Stats().IsRunning }, time.Second, 5*time.Millisecond)

		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)
		assert.False(t, gw.Stats().IsRunning)
		assert.Error(t, gw.Healthcheck(context.Background()))

		restartCtx, restartCancel := context.WithCancel(context.Background())
		defer restartCancel()
		go func() {
			errCh <- gw.Start(restartCtx)
		}()
		require.Eventually(t, func() bool { return gw.Stats().IsRunning }, time.Second, 5*time.Millisecond)
		assert.NoError(t, gw.Healthcheck(restartCtx))

		require.NoError(t, gw.Stop())
		assert.ErrorIs(t, <-errCh, context.Canceled)
	})

	t.Run("fails to stop when not started", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway()

		err := gw.Stop()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not started")
	})

	t.Run("fails to start with zero cleanup interval", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway(tokenbucket.WithCleanupInterval(0))

		err := gw.Start(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cleanup interval must be > 0")
	})
}

func TestMemoryGateway_Run(t *testing.T) {
	t.Parallel()

	gw := tokenbucket.NewMemoryGateway(
		tokenbucket.WithCleanupInterval(50 * time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Run(ctx)()
	}()

	require.Eventually(t, func() bool { return gw.Stats().IsRunning }, time.Second, 5*time.Millisecond)

	cancel()

	assert.NoError(t, <-errCh)
	assert.False(t, gw.Stats().IsRunning)
}

func TestMemoryGateway_Healthcheck(t *testing.T) {
	t.Parallel()

	t.Run("healthy when cleanup disabled", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway(tokenbucket.WithCleanupInterval(0))
		assert.NoError(t, gw.Healthcheck(context.Background()))
	})

	t.Run("unhealthy when cleanup configured but not running", func(t *testing.T) {
		t.Parallel()
		gw := tokenbucket.NewMemoryGateway(tokenbucket.WithCleanupInterval(time.Minute))
		err := gw.Healthcheck(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not running")
	})
}

func TestMemoryGateway_ConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency test in short mode")
	}
	t.Parallel()

	ctx := context.Background()
	gw := tokenbucket.NewMemoryGateway()
	clk := clock.NewManual(testTime)

	goroutines := 50
	var wg sync.WaitGroup
	wg.Add(goroutines)

	// One bucket per key, each owned by a single goroutine.
	for i := range goroutines {
		go func(id int) {
			defer wg.Done()
			b, err := tokenbucket.New(ctx, gw, fmt.Sprintf("key-%d", id), 10, time.Hour, clk)
			if !assert.NoError(t, err) {
				return
			}
			for range 15 {
				_, err := b.TryConsume(ctx, 1)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, goroutines, gw.Len())
	for i := range goroutines {
		st, ok, err := gw.Load(ctx, fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Zero(t, st.Remaining)
	}
}
