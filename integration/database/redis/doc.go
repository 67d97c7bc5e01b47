// Package redis stores token bucket state in Redis and provides connection
// helpers built on go-redis.
//
// Connect validates the URL (redis:// or rediss://), creates a client and
// waits for PING with exponential backoff. Healthcheck returns a probe func
// suitable for readiness checks.
//
// Gateway implements tokenbucket.Gateway. Each bucket is one JSON string under
// prefix+key (default prefix "tokenbucket:"). A missing key (redis.Nil) means
// no record. WithKeyTTL lets idle buckets expire; an expired bucket is recreated
// full on next construction.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	gw, _ := redis.NewGateway(client, redis.WithKeyPrefix(cfg.KeyPrefix), redis.WithKeyTTL(cfg.KeyTTL))
//	bucket, err := tokenbucket.New(ctx, gw, "crawler.maxCrawlCount", 10, 24*time.Hour, clock.NewSystem())
//
// Each Save is a plain SET, so concurrent writers for the same key follow
// last-write-wins. Keep one writer per key.
package redis
