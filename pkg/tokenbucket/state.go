package tokenbucket

import (
	"fmt"
	"time"
)

// Limit describes the bucket quota: Quantity tokens available per Window.
type Limit struct {
	Quantity int64
	Window   time.Duration
}

// Validate reports whether the limit can drive a bucket.
// A zero Quantity is accepted and yields a bucket that only admits zero-token requests.
func (l Limit) Validate() error {
	if l.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0, got %d", ErrInvalidLimit, l.Quantity)
	}
	if l.Window <= 0 {
		return fmt.Errorf("%w: window must be > 0, got %v", ErrInvalidLimit, l.Window)
	}
	return nil
}

// BucketState is an immutable snapshot of a bucket.
// Transitions produce a new value; fields are never updated in place.
type BucketState struct {
	Limit      Limit
	Remaining  int64
	LastRefill time.Time
}

// NewBucketState returns a full bucket for the given limit, refilled at the given instant.
func NewBucketState(limit Limit, at time.Time) BucketState {
	return BucketState{
		Limit:      limit,
		Remaining:  limit.Quantity,
		LastRefill: at,
	}
}

// Equal compares states by value. Instants are compared with time.Time.Equal
// so that values differing only in location or monotonic reading match.
func (s BucketState) Equal(other BucketState) bool {
	return s.Limit == other.Limit &&
		s.Remaining == other.Remaining &&
		s.LastRefill.Equal(other.LastRefill)
}

// ResetAt returns the earliest instant at which the bucket refills.
func (s BucketState) ResetAt() time.Time {
	return s.LastRefill.Add(s.Limit.Window)
}

// refillDue reports whether a full window has elapsed between LastRefill and at.
func (s BucketState) refillDue(at time.Time) bool {
	return at.Sub(s.LastRefill) >= s.Limit.Window
}

// with returns a copy carrying the same limit with new remaining and refill values.
func (s BucketState) with(remaining int64, at time.Time) BucketState {
	return BucketState{
		Limit:      s.Limit,
		Remaining:  remaining,
		LastRefill: at,
	}
}
