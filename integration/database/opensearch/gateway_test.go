package opensearch_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tokenbucket/integration/database/opensearch"
	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

// fakeTransport serves the document API from memory, keyed by request path.
type fakeTransport struct {
	mu       sync.Mutex
	docs     map[string][]byte
	status   int
	err      error
	requests []*http.Request
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{docs: make(map[string][]byte)}
}

func (f *fakeTransport) Perform(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.status != 0 {
		return respond(f.status, `{"error":"boom"}`), nil
	}

	switch req.Method {
	case http.MethodHead:
		return respond(http.StatusOK, ""), nil
	case http.MethodPut, http.MethodPost:
		body, _ := io.ReadAll(req.Body)
		f.docs[req.URL.Path] = body
		return respond(http.StatusCreated, `{"result":"created"}`), nil
	case http.MethodGet:
		src, ok := f.docs[req.URL.Path]
		if !ok {
			return respond(http.StatusNotFound, `{"found":false}`), nil
		}
		doc, _ := json.Marshal(map[string]any{
			"found":   true,
			"_source": json.RawMessage(src),
		})
		return respond(http.StatusOK, string(doc)), nil
	}
	return respond(http.StatusMethodNotAllowed, ""), nil
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

var testState = tokenbucket.BucketState{
	Limit:      tokenbucket.Limit{Quantity: 10, Window: 24 * time.Hour},
	Remaining:  7,
	LastRefill: time.Date(2026, 10, 18, 9, 0, 0, 987654321, time.UTC),
}

func TestNewGateway(t *testing.T) {
	t.Parallel()

	_, err := opensearch.NewGateway(nil)
	assert.ErrorIs(t, err, opensearch.ErrNilTransport)

	_, err = opensearch.NewGateway(newFakeTransport(), opensearch.WithIndex(""))
	assert.ErrorIs(t, err, opensearch.ErrEmptyIndex)
}

func TestGateway_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	transport := newFakeTransport()

	gw, err := opensearch.NewGateway(transport, opensearch.WithIndex("buckets"))
	require.NoError(t, err)

	_, ok, err := gw.Load(ctx, "crawler")
	require.NoError(t, err)
	assert.False(t, ok, "missing document should report no record")

	require.NoError(t, gw.Save(ctx, "crawler", testState))

	got, ok, err := gw.Load(ctx, "crawler")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(testState), "got %+v", got)

	save := transport.requests[1]
	assert.Equal(t, "/buckets/_doc/crawler", save.URL.Path)
	assert.Equal(t, "true", save.URL.Query().Get("refresh"))
}

func TestGateway_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("transport failure is returned as is", func(t *testing.T) {
		t.Parallel()

		transportErr := errors.New("connection refused")
		transport := newFakeTransport()
		transport.err = transportErr

		gw, err := opensearch.NewGateway(transport)
		require.NoError(t, err)

		_, _, err = gw.Load(ctx, "crawler")
		assert.ErrorIs(t, err, transportErr)
		assert.ErrorIs(t, gw.Save(ctx, "crawler", testState), transportErr)
	})

	t.Run("server error status", func(t *testing.T) {
		t.Parallel()

		transport := newFakeTransport()
		transport.status = http.StatusInternalServerError

		gw, err := opensearch.NewGateway(transport)
		require.NoError(t, err)

		_, _, err = gw.Load(ctx, "crawler")
		assert.ErrorIs(t, err, opensearch.ErrUnexpectedStatus)
		assert.ErrorIs(t, gw.Save(ctx, "crawler", testState), opensearch.ErrUnexpectedStatus)
	})

	t.Run("corrupt source", func(t *testing.T) {
		t.Parallel()

		transport := newFakeTransport()
		transport.docs["/token-buckets/_doc/crawler"] = []byte(`"not an object"`)

		gw, err := opensearch.NewGateway(transport)
		require.NoError(t, err)

		_, _, err = gw.Load(ctx, "crawler")
		assert.ErrorIs(t, err, tokenbucket.ErrCorruptRecord)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	assert.NoError(t, opensearch.Healthcheck(newFakeTransport())(ctx))

	down := newFakeTransport()
	down.status = http.StatusServiceUnavailable
	assert.ErrorIs(t, opensearch.Healthcheck(down)(ctx), opensearch.ErrHealthcheckFailed)

	assert.ErrorIs(t, opensearch.Healthcheck(nil)(ctx), opensearch.ErrHealthcheckFailed)
}

func TestGateway_SaveBody(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	gw, err := opensearch.NewGateway(transport)
	require.NoError(t, err)

	require.NoError(t, gw.Save(context.Background(), "crawler", testState))

	stored := transport.docs["/token-buckets/_doc/crawler"]
	want, err := tokenbucket.MarshalState(testState)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, stored), "stored %s", stored)
}
