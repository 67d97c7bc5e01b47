package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

// Compile-time check that Gateway implements tokenbucket.Gateway.
var _ tokenbucket.Gateway = (*Gateway)(nil)

// Gateway stores each bucket as a document in a single index, with the
// bucket key as the document ID.
type Gateway struct {
	transport opensearchapi.Transport
	index     string
	refresh   string
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithIndex sets the index that holds bucket documents.
func WithIndex(index string) GatewayOption {
	return func(g *Gateway) {
		g.index = index
	}
}

// WithRefresh sets the refresh policy for writes ("true", "false" or "wait_for").
// Defaults to "true" so the next Load observes the write.
func WithRefresh(refresh string) GatewayOption {
	return func(g *Gateway) {
		g.refresh = refresh
	}
}

// NewGateway creates an OpenSearch-backed gateway. *opensearch.Client
// satisfies opensearchapi.Transport.
func NewGateway(transport opensearchapi.Transport, opts ...GatewayOption) (*Gateway, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	g := &Gateway{
		transport: transport,
		index:     "token-buckets",
		refresh:   "true",
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.index == "" {
		return nil, ErrEmptyIndex
	}

	return g, nil
}

type getResponse struct {
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// Load fetches the document by ID. A 404 means no record.
func (g *Gateway) Load(ctx context.Context, key string) (tokenbucket.BucketState, bool, error) {
	resp, err := opensearchapi.GetRequest{
		Index:      g.index,
		DocumentID: key,
	}.Do(ctx, g.transport)
	if err != nil {
		return tokenbucket.BucketState{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return tokenbucket.BucketState{}, false, nil
	}
	if resp.IsError() {
		return tokenbucket.BucketState{}, false, statusError(resp)
	}

	var doc getResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return tokenbucket.BucketState{}, false, fmt.Errorf("%w: %w", tokenbucket.ErrCorruptRecord, err)
	}
	if !doc.Found {
		return tokenbucket.BucketState{}, false, nil
	}

	state, err := tokenbucket.UnmarshalState(doc.Source)
	if err != nil {
		return tokenbucket.BucketState{}, false, err
	}
	return state, true, nil
}

// Save indexes the state under key, replacing any previous document.
func (g *Gateway) Save(ctx context.Context, key string, state tokenbucket.BucketState) error {
	data, err := tokenbucket.MarshalState(state)
	if err != nil {
		return err
	}

	resp, err := opensearchapi.IndexRequest{
		Index:      g.index,
		DocumentID: key,
		Body:       bytes.NewReader(data),
		Refresh:    g.refresh,
	}.Do(ctx, g.transport)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return statusError(resp)
	}
	return nil
}

func statusError(resp *opensearchapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %s: %s", ErrUnexpectedStatus, resp.Status(), bytes.TrimSpace(body))
}
