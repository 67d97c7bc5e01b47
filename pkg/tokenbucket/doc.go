// Package tokenbucket provides a durable, lazily-refilling token bucket with
// pluggable persistence.
//
// A bucket tracks a capped quantity of tokens for one named resource. Once a
// full window has elapsed since the last refill, the next operation resets the
// bucket to its quota. The reset is a hard one: no proportional credit, and no
// bonus for windows that passed unobserved. State is written through a Gateway
// on every change, so limits survive restarts and can be shared by instances
// that recover the same key.
//
// # Core Types
//
//   - Limit: quota (Quantity) and refill period (Window)
//   - BucketState: immutable snapshot (limit, remaining tokens, last refill)
//   - Gateway: Load/Save of BucketState by key, supplied by the integrator
//   - Clock: source of the current instant
//   - TokenBucket: TryConsume(ctx, n) and Remaining(ctx)
//   - PersistentBucket: the TokenBucket implementation
//
// # Usage
//
//	gw := tokenbucket.NewMemoryGateway()
//
//	// 10 crawls per day
//	bucket, err := tokenbucket.New(ctx, gw, "crawler.maxCrawlCount", 10, 24*time.Hour, clock.NewSystem())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ok, err := bucket.TryConsume(ctx, 1)
//	if err != nil {
//		log.Printf("Bucket error: %v", err)
//		return
//	}
//	if !ok {
//		log.Printf("Quota exhausted until %v", bucket.ResetAt())
//		return
//	}
//
// # Construction and Recovery
//
// New loads the key from the gateway. A stored record is adopted verbatim,
// including its limit, and refill is deferred to the first operation. Without a
// record a full bucket is created from the default quantity and window and
// saved immediately.
//
// # Persistence
//
// Every transition replaces the whole state and calls Gateway.Save
// synchronously. TryConsume can therefore write twice (refill, then
// consumption). Remaining writes only when a refill happens; callers must not
// treat it as side-effect free. A successful consumption records the request
// instant as the last refill, so the next window starts from it.
//
// # Error Handling
//
//   - ErrInvalidConfig: bad construction parameters (empty key, nil gateway or
//     clock, invalid limit)
//   - ErrInvalidLimit: negative quantity or non-positive window
//   - ErrInvalidTokenCount: negative TryConsume argument
//
// Gateway errors are returned as-is. There are no retries and no fallback to
// defaults. A stored record whose remaining count lies outside [0, quota] is
// trusted until the next refill.
//
// # Concurrency
//
// PersistentBucket is not safe for concurrent use. Use one instance per key
// from a single goroutine or guard it with a mutex. The package does not
// provide cross-process atomicity: either keep one writer per key or use a
// gateway that serializes writers.
//
// # Gateways
//
// MemoryGateway is goroutine-safe and can drop idle records in the background
// (Start/Stop/Run). Durable gateways for Redis, PostgreSQL, MongoDB,
// OpenSearch and S3 live under integration/.
package tokenbucket
