package opensearch

import "time"

// Config holds OpenSearch connection settings.
type Config struct {
	Addresses     []string      `env:"OPENSEARCH_ADDRESSES,required"`
	Username      string        `env:"OPENSEARCH_USERNAME,notEmpty"`
	Password      string        `env:"OPENSEARCH_PASSWORD,notEmpty"`
	MaxRetries    int           `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry  bool          `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
	RetryAttempts int           `env:"OPENSEARCH_CONNECT_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"OPENSEARCH_CONNECT_INTERVAL" envDefault:"2s"`
	Index         string        `env:"OPENSEARCH_BUCKETS_INDEX" envDefault:"token-buckets"`
}
