package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

// Compile-time check that Gateway implements tokenbucket.Gateway.
var _ tokenbucket.Gateway = (*Gateway)(nil)

// DB is the query surface used by Gateway. *pgxpool.Pool, *pgx.Conn and pgx.Tx satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Gateway stores one row per bucket key. When the context carries a pgx.Tx
// (see WithTx) queries run inside that transaction.
type Gateway struct {
	db        DB
	loadSQL   string
	upsertSQL string
}

// GatewayOption configures a Gateway.
type GatewayOption func(*gatewayOptions)

type gatewayOptions struct {
	table string
}

// WithTable sets the table name. The table must have the columns created by
// the embedded migration.
func WithTable(table string) GatewayOption {
	return func(o *gatewayOptions) {
		if table != "" {
			o.table = table
		}
	}
}

// NewGateway creates a PostgreSQL-backed gateway.
func NewGateway(db DB, opts ...GatewayOption) (*Gateway, error) {
	if db == nil {
		return nil, ErrNilDB
	}

	o := gatewayOptions{table: DefaultBucketsTable}
	for _, opt := range opts {
		opt(&o)
	}
	table := pgx.Identifier{o.table}.Sanitize()

	return &Gateway{
		db: db,
		loadSQL: fmt.Sprintf(
			`SELECT quantity, window_ns, remaining, last_refill_unix_ns FROM %s WHERE key = $1`, table),
		upsertSQL: fmt.Sprintf(`INSERT INTO %s (key, quantity, window_ns, remaining, last_refill_unix_ns, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (key) DO UPDATE SET
	quantity = EXCLUDED.quantity,
	window_ns = EXCLUDED.window_ns,
	remaining = EXCLUDED.remaining,
	last_refill_unix_ns = EXCLUDED.last_refill_unix_ns,
	updated_at = EXCLUDED.updated_at`, table),
	}, nil
}

// Load reads the row for key. No row means no record.
func (g *Gateway) Load(ctx context.Context, key string) (tokenbucket.BucketState, bool, error) {
	var quantity, windowNS, remaining, lastRefillNS int64

	err := g.conn(ctx).QueryRow(ctx, g.loadSQL, key).Scan(&quantity, &windowNS, &remaining, &lastRefillNS)
	if IsNotFoundError(err) {
		return tokenbucket.BucketState{}, false, nil
	}
	if err != nil {
		return tokenbucket.BucketState{}, false, err
	}

	return tokenbucket.BucketState{
		Limit:      tokenbucket.Limit{Quantity: quantity, Window: time.Duration(windowNS)},
		Remaining:  remaining,
		LastRefill: time.Unix(0, lastRefillNS).UTC(),
	}, true, nil
}

// Save upserts the row for key.
func (g *Gateway) Save(ctx context.Context, key string, state tokenbucket.BucketState) error {
	_, err := g.conn(ctx).Exec(ctx, g.upsertSQL,
		key,
		state.Limit.Quantity,
		int64(state.Limit.Window),
		state.Remaining,
		state.LastRefill.UnixNano(),
	)
	return err
}

func (g *Gateway) conn(ctx context.Context) DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return g.db
}
