package s3

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Option configures client construction in New.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient      *http.Client
	configOptions   []func(*config.LoadOptions) error
	s3ClientOptions []func(*s3aws.Options)
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithConfigOption adds a custom AWS config option.
func WithConfigOption(option func(*config.LoadOptions) error) Option {
	return func(o *clientOptions) {
		o.configOptions = append(o.configOptions, option)
	}
}

// WithClientOption adds a custom S3 client option.
func WithClientOption(option func(*s3aws.Options)) Option {
	return func(o *clientOptions) {
		o.s3ClientOptions = append(o.s3ClientOptions, option)
	}
}

// New builds an S3 client from cfg. Works with AWS S3 and S3-compatible services.
func New(ctx context.Context, cfg Config, opts ...Option) (*s3aws.Client, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	awsOptions := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	// Fall back to IAM roles and env vars when no static keys are given.
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		awsOptions = append(awsOptions,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretKey,
				"",
			)),
		)
	}
	if o.httpClient != nil {
		awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
	}
	awsOptions = append(awsOptions, o.configOptions...)

	awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS config: %w", ErrInvalidConfig, err)
	}

	return s3aws.NewFromConfig(awsConfig, func(so *s3aws.Options) {
		if cfg.Endpoint != "" {
			so.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		so.UsePathStyle = cfg.ForcePathStyle
		for _, opt := range o.s3ClientOptions {
			opt(so)
		}
	}), nil
}

// Healthcheck returns a function that verifies the bucket is reachable.
func Healthcheck(client BucketHeader, bucket string) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrNilClient
		}
		_, err := client.HeadBucket(ctx, &s3aws.HeadBucketInput{Bucket: aws.String(bucket)})
		return classifyS3Error(err, "check")
	}
}

// BucketHeader is implemented by *s3.Client.
type BucketHeader interface {
	HeadBucket(ctx context.Context, params *s3aws.HeadBucketInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error)
}
