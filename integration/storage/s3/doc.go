// Package s3 stores token bucket state as JSON objects in Amazon S3 or an
// S3-compatible service such as MinIO, DigitalOcean Spaces or Wasabi.
//
//	client, err := s3.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gw, _ := s3.NewGateway(client, cfg.Bucket, s3.WithKeyPrefix(cfg.KeyPrefix))
//	bucket, err := tokenbucket.New(ctx, gw, "crawler.maxCrawlCount", 10, 24*time.Hour, clock.NewSystem())
//
// Each bucket lives at <prefix><key> and holds the tokenbucket.Record JSON
// form. A NoSuchKey response on read means the bucket has never been saved.
//
// Static credentials are used when both AccessKeyID and SecretKey are set;
// otherwise the default AWS credential chain (env vars, shared config, IAM
// roles) applies. Set Endpoint and ForcePathStyle for MinIO.
//
// # Errors
//
// Failures are classified into package sentinels (ErrAccessDenied,
// ErrServiceUnavailable, ErrBucketNotFound and so on) with the SDK error kept
// in the chain, so both errors.Is(err, s3.ErrAccessDenied) and errors.As into
// smithy.APIError work.
package s3
