package s3

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

// Compile-time check that Gateway implements tokenbucket.Gateway.
var _ tokenbucket.Gateway = (*Gateway)(nil)

// S3Client defines the S3 operations used by Gateway.
type S3Client interface {
	GetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
}

// Gateway stores every bucket as a JSON object at prefix+key.
type Gateway struct {
	client S3Client
	bucket string
	prefix string
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithKeyPrefix sets the object key prefix. A trailing slash is added when missing.
func WithKeyPrefix(prefix string) GatewayOption {
	return func(g *Gateway) {
		prefix = strings.TrimPrefix(prefix, "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		g.prefix = prefix
	}
}

// NewGateway creates an S3-backed gateway writing into bucket.
func NewGateway(client S3Client, bucket string, opts ...GatewayOption) (*Gateway, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if bucket == "" {
		return nil, ErrInvalidConfig
	}

	g := &Gateway{
		client: client,
		bucket: bucket,
		prefix: "token-buckets/",
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Load reads the object for key. NoSuchKey means no record.
func (g *Gateway) Load(ctx context.Context, key string) (tokenbucket.BucketState, bool, error) {
	out, err := g.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(g.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return tokenbucket.BucketState{}, false, nil
		}
		return tokenbucket.BucketState{}, false, classifyS3Error(err, "load")
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return tokenbucket.BucketState{}, false, classifyS3Error(err, "read")
	}

	state, err := tokenbucket.UnmarshalState(data)
	if err != nil {
		return tokenbucket.BucketState{}, false, err
	}
	return state, true, nil
}

// Save overwrites the object for key.
func (g *Gateway) Save(ctx context.Context, key string, state tokenbucket.BucketState) error {
	data, err := tokenbucket.MarshalState(state)
	if err != nil {
		return err
	}

	_, err = g.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(g.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	return classifyS3Error(err, "save")
}

func (g *Gateway) objectKey(key string) string {
	return g.prefix + key
}
