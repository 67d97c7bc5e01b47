package tokenbucket

import "errors"

// Package-level error definitions for token bucket operations.
var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrInvalidTokenCount = errors.New("invalid token count")
	ErrCorruptRecord     = errors.New("corrupt bucket record")
)
