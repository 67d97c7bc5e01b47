package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

// Compile-time check that Gateway implements tokenbucket.Gateway.
var _ tokenbucket.Gateway = (*Gateway)(nil)

// Client is the subset of the go-redis API used by Gateway.
// *redis.Client, *redis.ClusterClient and redis.UniversalClient satisfy it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Gateway stores bucket states as JSON strings under prefix+key.
type Gateway struct {
	client Client
	prefix string
	ttl    time.Duration
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithKeyPrefix sets the prefix prepended to bucket keys.
func WithKeyPrefix(prefix string) GatewayOption {
	return func(g *Gateway) {
		g.prefix = prefix
	}
}

// WithKeyTTL expires records that are not written for ttl. Zero disables expiry.
// An expired key starts over as a fresh full bucket.
func WithKeyTTL(ttl time.Duration) GatewayOption {
	return func(g *Gateway) {
		if ttl >= 0 {
			g.ttl = ttl
		}
	}
}

// NewGateway creates a Redis-backed gateway.
func NewGateway(client Client, opts ...GatewayOption) (*Gateway, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	g := &Gateway{
		client: client,
		prefix: "tokenbucket:",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Load reads the state stored for key. redis.Nil is reported as not found.
func (g *Gateway) Load(ctx context.Context, key string) (tokenbucket.BucketState, bool, error) {
	data, err := g.client.Get(ctx, g.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return tokenbucket.BucketState{}, false, nil
	}
	if err != nil {
		return tokenbucket.BucketState{}, false, err
	}

	state, err := tokenbucket.UnmarshalState(data)
	if err != nil {
		return tokenbucket.BucketState{}, false, err
	}
	return state, true, nil
}

// Save writes state for key, overwriting the previous value.
func (g *Gateway) Save(ctx context.Context, key string, state tokenbucket.BucketState) error {
	data, err := tokenbucket.MarshalState(state)
	if err != nil {
		return err
	}
	return g.client.Set(ctx, g.prefix+key, data, g.ttl).Err()
}
