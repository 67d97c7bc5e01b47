// Package healthcheck runs dependency probes such as redis.Healthcheck or
// pg.Healthcheck and reports whether all of them pass.
package healthcheck

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/tokenbucket/core/logger"
)

// ErrNotReady is returned when at least one probe fails.
var ErrNotReady = errors.New("healthcheck: dependency not ready")

// Check executes each probe in order. With no probes it reports the process
// as alive. Failures are logged together, keyed by probe position, and the
// returned error wraps ErrNotReady and every probe error.
//
//	err := healthcheck.Check(ctx, log,
//		pg.Healthcheck(pool),
//		redis.Healthcheck(client),
//	)
func Check(ctx context.Context, log *slog.Logger, fn ...func(context.Context) error) error {
	if log == nil {
		log = slog.Default()
	}

	errs := make([]error, len(fn))
	failed := 0
	for i, f := range fn {
		if f == nil {
			continue
		}
		if errs[i] = f(ctx); errs[i] != nil {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}

	log.ErrorContext(ctx, "readiness check failed",
		logger.Count("failed", failed),
		logger.Errors(errs...))
	return errors.Join(append([]error{ErrNotReady}, errs...)...)
}
