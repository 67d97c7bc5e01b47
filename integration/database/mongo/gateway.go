package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/tokenbucket/pkg/clock"
	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

// Compile-time check that Gateway implements tokenbucket.Gateway.
var _ tokenbucket.Gateway = (*Gateway)(nil)

// Collection is the subset of *mongo.Collection used by Gateway.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error)
}

// bucketDocument is the stored form of a bucket. The refill instant is kept
// in nanoseconds because BSON datetimes only hold milliseconds.
type bucketDocument struct {
	Key              string    `bson:"_id"`
	Quantity         int64     `bson:"quantity"`
	WindowNS         int64     `bson:"window_ns"`
	Remaining        int64     `bson:"remaining"`
	LastRefillUnixNS int64     `bson:"last_refill_unix_ns"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

// Gateway stores one document per bucket key, with _id set to the key.
type Gateway struct {
	coll  Collection
	clock tokenbucket.Clock
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithClock sets the clock that stamps updated_at. Defaults to the wall clock.
func WithClock(clk tokenbucket.Clock) GatewayOption {
	return func(g *Gateway) {
		if clk != nil {
			g.clock = clk
		}
	}
}

// NewGateway creates a MongoDB-backed gateway.
func NewGateway(coll Collection, opts ...GatewayOption) (*Gateway, error) {
	if coll == nil {
		return nil, ErrNilCollection
	}

	g := &Gateway{
		coll:  coll,
		clock: clock.NewSystem(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Load finds the document for key. mongo.ErrNoDocuments means no record.
func (g *Gateway) Load(ctx context.Context, key string) (tokenbucket.BucketState, bool, error) {
	var doc bucketDocument
	err := g.coll.FindOne(ctx, byKey(key)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return tokenbucket.BucketState{}, false, nil
	}
	if err != nil {
		return tokenbucket.BucketState{}, false, err
	}

	return tokenbucket.BucketState{
		Limit:      tokenbucket.Limit{Quantity: doc.Quantity, Window: time.Duration(doc.WindowNS)},
		Remaining:  doc.Remaining,
		LastRefill: time.Unix(0, doc.LastRefillUnixNS).UTC(),
	}, true, nil
}

// Save replaces the document for key, inserting it if missing.
func (g *Gateway) Save(ctx context.Context, key string, state tokenbucket.BucketState) error {
	doc := bucketDocument{
		Key:              key,
		Quantity:         state.Limit.Quantity,
		WindowNS:         int64(state.Limit.Window),
		Remaining:        state.Remaining,
		LastRefillUnixNS: state.LastRefill.UnixNano(),
		UpdatedAt:        g.clock.Now().UTC(),
	}
	_, err := g.coll.ReplaceOne(ctx, byKey(key), doc, options.Replace().SetUpsert(true))
	return err
}

func byKey(key string) bson.D {
	return bson.D{{Key: "_id", Value: key}}
}
