package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Helpers that receive nothing worth logging return the zero slog.Attr,
// which handlers drop. Callers can pass a possibly-nil error straight through.

// Error returns err under "error", or the zero Attr when err is nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors", keyed by their position
// in errs. Returns the zero Attr when every error is nil.
func Errors(errs ...error) slog.Attr {
	var as []slog.Attr
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Elapsed records the time passed since start.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// Component names the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Action names the operation being performed.
func Action(action string) slog.Attr {
	return slog.String("action", action)
}

// Count records an integer tally under key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Key records an arbitrary value under key. Nil values are dropped.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// Tokens records a token amount, such as a requested or remaining count.
func Tokens(key string, n int64) slog.Attr {
	return slog.Int64(key, n)
}
