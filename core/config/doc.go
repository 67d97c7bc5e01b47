// Package config fills env-tagged structs from the process environment.
//
// The first call loads a .env file from the working directory if one exists;
// variables already set in the environment win. Parsing is done by
// caarlos0/env, so struct tags follow its syntax:
//
//	type BucketConfig struct {
//		Backend string        `env:"BUCKET_BACKEND" envDefault:"memory"`
//		Window  time.Duration `env:"BUCKET_WINDOW" envDefault:"24h"`
//		DSN     string        `env:"PG_CONN_URL,required"`
//	}
//
//	var cfg BucketConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// MustLoad panics instead of returning the error and is meant for startup code.
//
// # Caching
//
// The result is cached per Go type, so every integration package can call
// Load for its own Config without re-reading the environment. A second Load of
// the same type returns the cached value even if the environment changed in
// between. Reset drops the cache; it exists for tests.
package config
