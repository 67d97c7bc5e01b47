package opensearch

import "errors"

var (
	ErrConnectionFailed  = errors.New("opensearch: connection failed")
	ErrHealthcheckFailed = errors.New("opensearch: healthcheck failed")
	ErrNilTransport      = errors.New("opensearch: transport is nil")
	ErrEmptyIndex        = errors.New("opensearch: index name is empty")
	ErrUnexpectedStatus  = errors.New("opensearch: unexpected response status")
)
