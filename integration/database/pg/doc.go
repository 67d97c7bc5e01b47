// Package pg stores token bucket state in PostgreSQL and provides connection,
// migration and health-check helpers built on pgx.
//
// Connect builds a pgxpool.Pool from Config and pings it with exponential
// backoff. Healthcheck returns a probe func. Migrate applies goose migrations
// from Config.MigrationsPath; MigrateBuckets applies the embedded migration that
// creates the token_buckets table. MigrateBuckets refuses a Config whose
// BucketsTable names any other table (ErrCustomBucketsTable); create such a
// table with your own migrations and pass it to NewGateway via WithTable.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateBuckets(ctx, pool, cfg, logger); err != nil {
//		log.Fatal(err)
//	}
//
//	gw, _ := pg.NewGateway(pool)
//	bucket, err := tokenbucket.New(ctx, gw, "crawler.maxCrawlCount", 10, 24*time.Hour, clock.NewSystem())
//
// # Transactions
//
// Gateway runs its queries on the pgx.Tx stored in the context by WithTx, if
// any, so bucket writes commit or roll back together with the caller's own
// changes:
//
//	tx, _ := pool.Begin(ctx)
//	defer tx.Rollback(ctx)
//	ctx = pg.WithTx(ctx, tx)
//	ok, err := bucket.TryConsume(ctx, 1)
//	...
//	tx.Commit(ctx)
//
// The last refill instant is stored as Unix nanoseconds so it round-trips
// exactly; a TIMESTAMPTZ column would truncate to microseconds.
package pg
