package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// Domain-specific PostgreSQL errors.
var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrEmptyConnString          = errors.New("empty postgres connection string")
	ErrHealthcheckFailed        = errors.New("postgres healthcheck failed")
	ErrMigrationFailed          = errors.New("failed to apply migrations")
	ErrMigrationsDirNotFound    = errors.New("migrations directory not found")
	ErrNilDB                    = errors.New("postgres db is nil")
	ErrCustomBucketsTable       = errors.New("custom buckets table is not covered by embedded migrations")
)

// IsNotFoundError reports whether err means the query matched no rows.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
