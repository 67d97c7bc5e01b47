package tokenbucket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/tokenbucket/core/logger"
)

// Compile-time check that MemoryGateway implements Gateway.
var _ Gateway = (*MemoryGateway)(nil)

// record is a stored state plus bookkeeping for stale cleanup.
type record struct {
	state     BucketState
	lastWrite time.Time // Used by cleanup to identify stale records
}

// MemoryGateway implements Gateway using in-memory storage.
// It is safe for concurrent use; state does not survive process restarts.
type MemoryGateway struct {
	mu      sync.RWMutex
	records map[string]*record

	// Configuration
	cleanupInterval time.Duration
	staleThreshold  time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time

	// State management
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability metrics
	saves          atomic.Int64
	recordsRemoved atomic.Int64
}

// MemoryGatewayStats provides observability metrics for monitoring and debugging
type MemoryGatewayStats struct {
	Saves          int64 // Total number of Save calls
	RecordsRemoved int64 // Total number of stale records removed
	ActiveRecords  int   // Current number of stored records
	IsRunning      bool  // Whether the cleanup goroutine is running
}

// MemoryGatewayOption configures a MemoryGateway.
type MemoryGatewayOption func(*MemoryGateway)

// WithCleanupInterval sets the cleanup interval for removing stale records.
// Set to 0 to disable automatic cleanup.
func WithCleanupInterval(interval time.Duration) MemoryGatewayOption {
	return func(mg *MemoryGateway) {
		mg.cleanupInterval = interval
	}
}

// WithStaleThreshold sets how long a record may go without writes before cleanup drops it.
func WithStaleThreshold(threshold time.Duration) MemoryGatewayOption {
	return func(mg *MemoryGateway) {
		if threshold > 0 {
			mg.staleThreshold = threshold
		}
	}
}

// WithMemoryGatewayShutdownTimeout sets the graceful shutdown timeout.
func WithMemoryGatewayShutdownTimeout(timeout time.Duration) MemoryGatewayOption {
	return func(mg *MemoryGateway) {
		if timeout > 0 {
			mg.shutdownTimeout = timeout
		}
	}
}

// WithMemoryGatewayLogger sets the logger for internal operations.
func WithMemoryGatewayLogger(l *slog.Logger) MemoryGatewayOption {
	return func(mg *MemoryGateway) {
		if l != nil {
			mg.logger = l
		}
	}
}

// WithMemoryGatewayClock sets the clock used to track record staleness.
func WithMemoryGatewayClock(clk Clock) MemoryGatewayOption {
	return func(mg *MemoryGateway) {
		if clk != nil {
			mg.now = clk.Now
		}
	}
}

// NewMemoryGateway creates a new in-memory gateway.
// Call Start() to begin background cleanup.
func NewMemoryGateway(opts ...MemoryGatewayOption) *MemoryGateway {
	mg := &MemoryGateway{
		records:         make(map[string]*record),
		cleanupInterval: 5 * time.Minute,
		staleThreshold:  24 * time.Hour,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(mg)
	}

	return mg
}

// Load returns the stored state for key.
func (mg *MemoryGateway) Load(ctx context.Context, key string) (BucketState, bool, error) {
	if err := ctx.Err(); err != nil {
		return BucketState{}, false, err
	}

	mg.mu.RLock()
	defer mg.mu.RUnlock()

	r, ok := mg.records[key]
	if !ok {
		return BucketState{}, false, nil
	}
	return r.state, true, nil
}

// Save stores state for key, replacing any previous value.
func (mg *MemoryGateway) Save(ctx context.Context, key string, state BucketState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mg.mu.Lock()
	defer mg.mu.Unlock()

	mg.records[key] = &record{state: state, lastWrite: mg.now()}
	mg.saves.Add(1)
	return nil
}

// Delete removes the record for key. Deleting a missing key is not an error.
func (mg *MemoryGateway) Delete(ctx context.Context, key string) error {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	delete(mg.records, key)
	return nil
}

// Len returns the number of stored records.
func (mg *MemoryGateway) Len() int {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	return len(mg.records)
}

// Start begins the background cleanup goroutine. This is a blocking operation
// that runs until the context is cancelled. Use Run() for errgroup pattern or call this in a goroutine.
func (mg *MemoryGateway) Start(ctx context.Context) error {
	mg.mu.Lock()
	if mg.cancel != nil {
		mg.mu.Unlock()
		return fmt.Errorf("memory gateway already started")
	}

	if mg.cleanupInterval <= 0 {
		mg.mu.Unlock()
		return fmt.Errorf("cleanup interval must be > 0, got %v (use WithCleanupInterval to configure)", mg.cleanupInterval)
	}

	runCtx, cancel := context.WithCancel(ctx)
	mg.ctx, mg.cancel = runCtx, cancel
	mg.running.Store(true)
	mg.mu.Unlock()

	// Clear the lifecycle state on any exit, including parent cancellation,
	// unless Stop already did and a new Start took over.
	defer func() {
		mg.mu.Lock()
		if mg.ctx == runCtx {
			mg.ctx, mg.cancel = nil, nil
			mg.running.Store(false)
		}
		mg.mu.Unlock()
		cancel()
	}()

	mg.logger.InfoContext(runCtx, "memory gateway cleanup started",
		slog.Duration("cleanup_interval", mg.cleanupInterval),
		slog.Duration("stale_threshold", mg.staleThreshold))

	ticker := time.NewTicker(mg.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			mg.logger.InfoContext(context.Background(), "memory gateway cleanup stopping")
			return runCtx.Err()
		case <-ticker.C:
			mg.cleanupWithWait()
		}
	}
}

// Stop gracefully shuts down the background cleanup with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (mg *MemoryGateway) Stop() error {
	mg.mu.Lock()
	if mg.cancel == nil {
		mg.mu.Unlock()
		return fmt.Errorf("memory gateway not started")
	}

	cancel := mg.cancel
	mg.ctx, mg.cancel = nil, nil
	mg.running.Store(false)
	mg.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), mg.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		mg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		mg.logger.InfoContext(context.Background(), "memory gateway stopped cleanly")
		return nil
	case <-ctx.Done():
		mg.logger.WarnContext(context.Background(), "memory gateway shutdown timeout exceeded",
			slog.Duration("timeout", mg.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", mg.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
func (mg *MemoryGateway) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- mg.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = mg.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

func (mg *MemoryGateway) cleanupWithWait() {
	mg.mu.RLock()
	if mg.cancel == nil {
		mg.mu.RUnlock()
		return
	}
	mg.wg.Add(1)
	mg.mu.RUnlock()

	defer mg.wg.Done()
	mg.RemoveStale()
}

// RemoveStale drops records that have not been written for longer than the
// stale threshold and returns how many were removed. A dropped key starts over
// as a fresh full bucket the next time it is constructed.
func (mg *MemoryGateway) RemoveStale() int {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	now := mg.now()
	removed := 0
	for key, r := range mg.records {
		if now.Sub(r.lastWrite) > mg.staleThreshold {
			delete(mg.records, key)
			removed++
		}
	}

	if removed > 0 {
		mg.recordsRemoved.Add(int64(removed))
		mg.logger.Debug("memory gateway removed stale records", logger.Count("removed", removed))
	}
	return removed
}

// Stats returns current memory gateway statistics.
func (mg *MemoryGateway) Stats() MemoryGatewayStats {
	mg.mu.RLock()
	isRunning := mg.running.Load()
	active := len(mg.records)
	mg.mu.RUnlock()

	return MemoryGatewayStats{
		Saves:          mg.saves.Load(),
		RecordsRemoved: mg.recordsRemoved.Load(),
		ActiveRecords:  active,
		IsRunning:      isRunning,
	}
}

// Healthcheck validates that the memory gateway is operational.
func (mg *MemoryGateway) Healthcheck(ctx context.Context) error {
	stats := mg.Stats()

	if mg.cleanupInterval > 0 && !stats.IsRunning {
		return fmt.Errorf("cleanup is configured but not running")
	}

	return nil
}
