package redis

import "time"

// Config holds Redis connection and bucket-storage settings.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	KeyPrefix      string        `env:"REDIS_BUCKET_KEY_PREFIX" envDefault:"tokenbucket:"`
	KeyTTL         time.Duration `env:"REDIS_BUCKET_KEY_TTL" envDefault:"0"` // 0 keeps records forever
}
