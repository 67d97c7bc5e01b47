package tokenbucket

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tokenbucket/core/logger"
)

// TokenBucket is the public contract of a rate-limited resource.
type TokenBucket interface {
	// TryConsume takes n tokens if available and reports whether it did.
	TryConsume(ctx context.Context, n int64) (bool, error)

	// Remaining returns the tokens currently available.
	// It may refill and persist the bucket when a window has elapsed.
	Remaining(ctx context.Context) (int64, error)
}

// Compile-time check that PersistentBucket implements TokenBucket.
var _ TokenBucket = (*PersistentBucket)(nil)

// PersistentBucket is a lazily-refilling token bucket whose state is written
// through a Gateway on every change.
//
// The in-memory state is authoritative for the lifetime of the value; the
// gateway copy is a side effect. A PersistentBucket is not safe for concurrent
// use: callers sharing one instance must serialize access.
type PersistentBucket struct {
	key     string
	gateway Gateway
	clock   Clock
	logger  *slog.Logger
	state   BucketState
}

// Option configures a PersistentBucket.
type Option func(*PersistentBucket)

// WithLogger sets the logger for internal operations.
func WithLogger(l *slog.Logger) Option {
	return func(b *PersistentBucket) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a bucket for key, recovering its state from the gateway.
//
// When the gateway holds a record for key it is adopted verbatim, including its
// limit; no refill is applied until the first operation. Otherwise a full bucket
// with the default quantity and window is created and saved immediately.
func New(ctx context.Context, gw Gateway, key string, quantity int64, window time.Duration, clk Clock, opts ...Option) (*PersistentBucket, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: bucket key is required", ErrInvalidConfig)
	}
	if gw == nil {
		return nil, fmt.Errorf("%w: gateway is required", ErrInvalidConfig)
	}
	if clk == nil {
		return nil, fmt.Errorf("%w: clock is required", ErrInvalidConfig)
	}

	limit := Limit{Quantity: quantity, Window: window}
	if err := limit.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	b := &PersistentBucket{
		key:     key,
		gateway: gw,
		clock:   clk,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}

	state, ok, err := gw.Load(ctx, key)
	if err != nil {
		b.logger.ErrorContext(ctx, "bucket state load failed", b.keyAttr(), logger.Error(err))
		return nil, err
	}
	if ok {
		b.state = state
		b.logger.DebugContext(ctx, "bucket state recovered", b.keyAttr(),
			logger.Tokens("remaining", state.Remaining))
		return b, nil
	}

	b.state = NewBucketState(limit, clk.Now())
	if err := b.save(ctx); err != nil {
		return nil, err
	}
	b.logger.DebugContext(ctx, "bucket created", b.keyAttr(),
		logger.Tokens("quantity", quantity),
		slog.Duration("window", window))

	return b, nil
}

// TryConsume refills the bucket if a window has elapsed, then takes n tokens
// when enough remain. Up to two saves may happen: one for the refill and one
// for the consumption. On denial nothing is deducted.
func (b *PersistentBucket) TryConsume(ctx context.Context, n int64) (bool, error) {
	if n < 0 {
		return false, fmt.Errorf("%w: must be >= 0, got %d", ErrInvalidTokenCount, n)
	}

	now := b.clock.Now()
	if err := b.refill(ctx, now); err != nil {
		return false, err
	}

	if b.state.Remaining < n {
		b.logger.DebugContext(ctx, "tokens denied", b.keyAttr(),
			logger.Tokens("requested", n),
			logger.Tokens("remaining", b.state.Remaining))
		return false, nil
	}

	if err := b.update(ctx, b.state.Remaining-n, now); err != nil {
		return false, err
	}
	return true, nil
}

// Remaining refills the bucket if a window has elapsed and returns the tokens left.
func (b *PersistentBucket) Remaining(ctx context.Context) (int64, error) {
	if err := b.refill(ctx, b.clock.Now()); err != nil {
		return 0, err
	}
	return b.state.Remaining, nil
}

// State returns the current in-memory snapshot without refilling or persisting.
func (b *PersistentBucket) State() BucketState {
	return b.state
}

// Key returns the bucket identifier.
func (b *PersistentBucket) Key() string {
	return b.key
}

// Limit returns the quota in effect, which may come from a recovered record.
func (b *PersistentBucket) Limit() Limit {
	return b.state.Limit
}

// ResetAt returns the earliest instant the next refill can occur.
func (b *PersistentBucket) ResetAt() time.Time {
	return b.state.ResetAt()
}

// refill resets the bucket to full capacity once a whole window has elapsed
// since the last refill. Elapsed windows are not accumulated.
func (b *PersistentBucket) refill(ctx context.Context, now time.Time) error {
	if !b.state.refillDue(now) {
		return nil
	}
	b.logger.DebugContext(ctx, "bucket refilled", b.keyAttr(),
		slog.Duration("since_last_refill", now.Sub(b.state.LastRefill)))
	return b.update(ctx, b.state.Limit.Quantity, now)
}

// update replaces the whole state and persists it. The new state stays in
// effect even if the save fails.
func (b *PersistentBucket) update(ctx context.Context, remaining int64, at time.Time) error {
	b.state = b.state.with(remaining, at)
	return b.save(ctx)
}

func (b *PersistentBucket) save(ctx context.Context) error {
	if err := b.gateway.Save(ctx, b.key, b.state); err != nil {
		b.logger.ErrorContext(ctx, "bucket state save failed", b.keyAttr(), logger.Error(err))
		return err
	}
	return nil
}

func (b *PersistentBucket) keyAttr() slog.Attr {
	return logger.Key("bucket_key", b.key)
}
