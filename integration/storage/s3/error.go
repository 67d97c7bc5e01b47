package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// isNotFound reports whether err means the object does not exist.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// classifyS3Error maps S3 failures onto package sentinels. The original
// error stays in the chain.
func classifyS3Error(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Context errors first so cancellation is never reported as a service fault.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s bucket state: %w", ErrOperationTimeout, operation, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s bucket state: %w", ErrOperationCanceled, operation, err)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch code {
		case "AccessDenied":
			return fmt.Errorf("%w: %s bucket state: %w", ErrAccessDenied, operation, err)
		case "RequestTimeout":
			return fmt.Errorf("%w: %s bucket state: %w", ErrRequestTimeout, operation, err)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: %s bucket state: %w", ErrServiceUnavailable, operation, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
		default:
			return fmt.Errorf("%s bucket state failed (code: %s): %w", operation, code, err)
		}
	}

	return fmt.Errorf("%s bucket state failed: %w", operation, err)
}
