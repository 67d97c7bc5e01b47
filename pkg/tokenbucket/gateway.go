package tokenbucket

import (
	"context"
	"time"
)

// Gateway persists bucket state keyed by bucket identifier.
// Implementations are supplied by the integrator (memory, Redis, PostgreSQL, etc.).
type Gateway interface {
	// Load returns the state previously saved for key.
	// A missing record is reported as ok == false with a nil error.
	Load(ctx context.Context, key string) (state BucketState, ok bool, err error)

	// Save durably stores state for key. It must complete before returning.
	Save(ctx context.Context, key string, state BucketState) error
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}
