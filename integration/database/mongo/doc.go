// Package mongo stores token bucket state in MongoDB and provides client
// initialization and health checking built on the official v2 driver.
//
// New connects and pings with exponential backoff, which covers MongoDB Atlas
// cold starts (5-8 seconds) and brief network interruptions. NewWithDatabase
// returns a database handle directly.
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, cfg.Database)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gw, _ := mongo.NewGateway(db.Collection(cfg.Collection))
//	bucket, err := tokenbucket.New(ctx, gw, "crawler.maxCrawlCount", 10, 24*time.Hour, clock.NewSystem())
//
// Gateway keeps one document per bucket with _id set to the bucket key and
// writes with an upserting ReplaceOne.
//
// # Configuration
//
//	MONGODB_URL                 (required)
//	MONGODB_CONNECT_TIMEOUT     (default: 10s)
//	MONGODB_MAX_POOL_SIZE       (default: 100)
//	MONGODB_MIN_POOL_SIZE       (default: 1)
//	MONGODB_MAX_CONN_IDLE_TIME  (default: 300s)
//	MONGODB_RETRY_WRITES        (default: true)
//	MONGODB_RETRY_READS         (default: true)
//	MONGODB_RETRY_ATTEMPTS      (default: 3)
//	MONGODB_RETRY_INTERVAL      (default: 5s)
//	MONGODB_DATABASE            (default: tokenbucket)
//	MONGODB_BUCKETS_COLLECTION  (default: token_buckets)
package mongo
