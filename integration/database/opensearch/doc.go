// Package opensearch stores token bucket state as OpenSearch documents and
// provides client initialization with health checking.
//
// New builds a client from Config and pings the cluster, retrying with
// exponential backoff, so a broken client is never handed to callers.
//
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gw, _ := opensearch.NewGateway(client, opensearch.WithIndex(cfg.Index))
//	bucket, err := tokenbucket.New(ctx, gw, "crawler.maxCrawlCount", 10, 24*time.Hour, clock.NewSystem())
//
// Each bucket is one document whose ID is the bucket key and whose source is
// the tokenbucket.Record JSON form. Writes use refresh=true by default so a
// subsequent Load through the GET API sees them; WithRefresh relaxes this.
//
// # Configuration
//
//	OPENSEARCH_ADDRESSES         (required)
//	OPENSEARCH_USERNAME          (required)
//	OPENSEARCH_PASSWORD          (required)
//	OPENSEARCH_MAX_RETRIES       (default: 3)
//	OPENSEARCH_DISABLE_RETRY     (default: false)
//	OPENSEARCH_CONNECT_ATTEMPTS  (default: 3)
//	OPENSEARCH_CONNECT_INTERVAL  (default: 2s)
//	OPENSEARCH_BUCKETS_INDEX     (default: token-buckets)
//
// # Errors
//
// ErrConnectionFailed and ErrHealthcheckFailed wrap client failures.
// Non-2xx responses other than a 404 on read surface as ErrUnexpectedStatus.
package opensearch
