package s3

import "errors"

var (
	ErrInvalidConfig      = errors.New("s3: invalid configuration")
	ErrNilClient          = errors.New("s3: client is nil")
	ErrBucketNotFound     = errors.New("s3: bucket not found")
	ErrAccessDenied       = errors.New("s3: access denied")
	ErrRequestTimeout     = errors.New("s3: request timeout")
	ErrServiceUnavailable = errors.New("s3: service unavailable")
	ErrOperationTimeout   = errors.New("s3: operation timeout")
	ErrOperationCanceled  = errors.New("s3: operation canceled")
)
