package opensearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/sethvargo/go-retry"
)

// New creates an OpenSearch client and verifies the cluster answers before
// returning it. The first ping is retried with exponential backoff.
func New(ctx context.Context, cfg Config) (*opensearch.Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.DisableRetry,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	check := Healthcheck(client)
	err = retry.Do(ctx, backoff(cfg), func(ctx context.Context) error {
		if err := check(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return client, nil
}

// Healthcheck returns a function that pings the cluster through transport.
func Healthcheck(transport opensearchapi.Transport) func(context.Context) error {
	return func(ctx context.Context) error {
		if transport == nil {
			return errors.Join(ErrHealthcheckFailed, ErrNilTransport)
		}
		resp, err := opensearchapi.PingRequest{}.Do(ctx, transport)
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		defer resp.Body.Close()
		if resp.IsError() {
			return errors.Join(ErrHealthcheckFailed, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status()))
		}
		return nil
	}
}

func backoff(cfg Config) retry.Backoff {
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}
	attempts := max(cfg.RetryAttempts, 1)
	return retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(interval))
}
