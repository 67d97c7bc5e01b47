package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tokenbucket/core/config"
)

type bucketConfig struct {
	Key      string        `env:"TEST_BUCKET_KEY,required"`
	Quantity int64         `env:"TEST_BUCKET_QUANTITY" envDefault:"10"`
	Window   time.Duration `env:"TEST_BUCKET_WINDOW" envDefault:"24h"`
}

type requiredConfig struct {
	URL string `env:"TEST_CONFIG_MISSING_URL,required"`
}

// Tests mutate the environment and the shared cache, so they are not parallel.

func TestLoad(t *testing.T) {
	t.Run("parses environment with defaults", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_BUCKET_KEY", "crawler.maxCrawlCount")

		var cfg bucketConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "crawler.maxCrawlCount", cfg.Key)
		assert.Equal(t, int64(10), cfg.Quantity)
		assert.Equal(t, 24*time.Hour, cfg.Window)
	})

	t.Run("caches per type", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_BUCKET_KEY", "first")

		var first bucketConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("TEST_BUCKET_KEY", "second")
		var second bucketConfig
		require.NoError(t, config.Load(&second))

		assert.Equal(t, first, second)
		assert.Equal(t, "first", second.Key)
	})

	t.Run("reset re-reads environment", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_BUCKET_KEY", "first")

		var cfg bucketConfig
		require.NoError(t, config.Load(&cfg))

		config.Reset()
		t.Setenv("TEST_BUCKET_KEY", "second")
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "second", cfg.Key)
	})

	t.Run("missing required variable", func(t *testing.T) {
		config.Reset()

		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.Error(t, err)
	})

	t.Run("must load panics on error", func(t *testing.T) {
		config.Reset()

		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})
}
