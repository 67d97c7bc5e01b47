package mongo

import "errors"

// Domain-specific MongoDB errors.
var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrEmptyConnectionURL     = errors.New("empty mongo connection URL")
	ErrNilCollection          = errors.New("mongo collection is nil")
)
