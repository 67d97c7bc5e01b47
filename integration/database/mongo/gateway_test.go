package mongo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	drivermongo "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/tokenbucket/integration/database/mongo"
	"github.com/dmitrymomot/tokenbucket/pkg/clock"
	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) FindOne(ctx context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *drivermongo.SingleResult {
	args := m.Called(ctx, filter)
	return args.Get(0).(*drivermongo.SingleResult)
}

func (m *MockCollection) ReplaceOne(ctx context.Context, filter any, replacement any, _ ...options.Lister[options.ReplaceOptions]) (*drivermongo.UpdateResult, error) {
	args := m.Called(ctx, filter, replacement)
	res, _ := args.Get(0).(*drivermongo.UpdateResult)
	return res, args.Error(1)
}

var (
	testState = tokenbucket.BucketState{
		Limit:      tokenbucket.Limit{Quantity: 10, Window: 24 * time.Hour},
		Remaining:  4,
		LastRefill: time.Date(2026, 10, 18, 9, 0, 0, 123456, time.UTC),
	}
	keyFilter = bson.D{{Key: "_id", Value: "crawler"}}
)

func TestNewGateway(t *testing.T) {
	t.Parallel()

	_, err := mongo.NewGateway(nil)
	assert.ErrorIs(t, err, mongo.ErrNilCollection)
}

func TestGateway_Load(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no documents means not found", func(t *testing.T) {
		t.Parallel()

		coll := &MockCollection{}
		coll.On("FindOne", mock.Anything, keyFilter).
			Return(drivermongo.NewSingleResultFromDocument(bson.D{}, drivermongo.ErrNoDocuments, nil))

		gw, err := mongo.NewGateway(coll)
		require.NoError(t, err)

		_, ok, err := gw.Load(ctx, "crawler")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("decodes stored document", func(t *testing.T) {
		t.Parallel()

		doc := bson.D{
			{Key: "_id", Value: "crawler"},
			{Key: "quantity", Value: int64(10)},
			{Key: "window_ns", Value: int64(24 * time.Hour)},
			{Key: "remaining", Value: int64(4)},
			{Key: "last_refill_unix_ns", Value: testState.LastRefill.UnixNano()},
		}
		coll := &MockCollection{}
		coll.On("FindOne", mock.Anything, keyFilter).
			Return(drivermongo.NewSingleResultFromDocument(doc, nil, nil))

		gw, err := mongo.NewGateway(coll)
		require.NoError(t, err)

		got, ok, err := gw.Load(ctx, "crawler")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Equal(testState))
	})

	t.Run("propagates driver errors", func(t *testing.T) {
		t.Parallel()

		driverErr := errors.New("server selection timeout")
		coll := &MockCollection{}
		coll.On("FindOne", mock.Anything, mock.Anything).
			Return(drivermongo.NewSingleResultFromDocument(bson.D{}, driverErr, nil))

		gw, err := mongo.NewGateway(coll)
		require.NoError(t, err)

		_, _, err = gw.Load(ctx, "crawler")
		assert.ErrorIs(t, err, driverErr)
	})
}

func TestGateway_Save(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("replaces document by key", func(t *testing.T) {
		t.Parallel()

		coll := &MockCollection{}
		coll.On("ReplaceOne", mock.Anything, keyFilter, mock.MatchedBy(func(doc any) bool {
			raw, err := bson.Marshal(doc)
			if err != nil {
				return false
			}
			var m bson.M
			if err := bson.Unmarshal(raw, &m); err != nil {
				return false
			}
			return m["_id"] == "crawler" &&
				m["quantity"] == int64(10) &&
				m["remaining"] == int64(4) &&
				m["last_refill_unix_ns"] == testState.LastRefill.UnixNano()
		})).Return(&drivermongo.UpdateResult{UpsertedCount: 1}, nil)

		gw, err := mongo.NewGateway(coll)
		require.NoError(t, err)

		require.NoError(t, gw.Save(ctx, "crawler", testState))
		coll.AssertExpectations(t)
	})

	t.Run("stamps updated_at from the injected clock", func(t *testing.T) {
		t.Parallel()

		writtenAt := time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC)
		coll := &MockCollection{}
		coll.On("ReplaceOne", mock.Anything, keyFilter, mock.MatchedBy(func(doc any) bool {
			raw, err := bson.Marshal(doc)
			if err != nil {
				return false
			}
			var m struct {
				UpdatedAt time.Time `bson:"updated_at"`
			}
			if err := bson.Unmarshal(raw, &m); err != nil {
				return false
			}
			return m.UpdatedAt.Equal(writtenAt)
		})).Return(&drivermongo.UpdateResult{ModifiedCount: 1}, nil)

		gw, err := mongo.NewGateway(coll, mongo.WithClock(clock.NewManual(writtenAt)))
		require.NoError(t, err)

		require.NoError(t, gw.Save(ctx, "crawler", testState))
		coll.AssertExpectations(t)
	})

	t.Run("propagates driver errors", func(t *testing.T) {
		t.Parallel()

		writeErr := errors.New("not primary")
		coll := &MockCollection{}
		coll.On("ReplaceOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, writeErr)

		gw, err := mongo.NewGateway(coll)
		require.NoError(t, err)

		assert.Equal(t, writeErr, gw.Save(ctx, "crawler", testState))
	})
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := mongo.New(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := mongo.Healthcheck(nil)(context.Background())
	assert.ErrorIs(t, err, mongo.ErrHealthcheckFailed)
}
