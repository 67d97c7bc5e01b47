// Command bucketctl inspects and drives a persistent token bucket against one
// of the supported storage backends.
//
//	bucketctl [flags] consume [N]   take N tokens (default 1)
//	bucketctl [flags] remaining     print tokens left after any due refill
//	bucketctl [flags] state         print the stored state as JSON
//	bucketctl [flags] health        check backend connectivity
//	bucketctl [flags] migrate       create backend schema (postgres only)
//
// Flag defaults come from the environment (BUCKET_BACKEND, BUCKET_KEY,
// BUCKET_QUANTITY, BUCKET_WINDOW, APP_ENV, LOG_LEVEL) and a .env file.
// Backend connection settings are read from the backend's own variables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dmitrymomot/tokenbucket/core/config"
	"github.com/dmitrymomot/tokenbucket/core/healthcheck"
	"github.com/dmitrymomot/tokenbucket/core/logger"
	"github.com/dmitrymomot/tokenbucket/pkg/clock"
	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

const serviceName = "bucketctl"

var (
	errUsage              = errors.New("usage: bucketctl [flags] consume [N] | remaining | state | health | migrate")
	errUnknownCommand     = errors.New("unknown command")
	errUnknownBackend     = errors.New("unknown backend")
	errMigrateUnsupported = errors.New("backend has no schema to migrate")
)

type settings struct {
	Backend  string        `env:"BUCKET_BACKEND" envDefault:"memory"`
	Key      string        `env:"BUCKET_KEY" envDefault:"default"`
	Quantity int64         `env:"BUCKET_QUANTITY" envDefault:"10"`
	Window   time.Duration `env:"BUCKET_WINDOW" envDefault:"24h"`
	AppEnv   string        `env:"APP_ENV" envDefault:"development"`
	LogLevel string        `env:"LOG_LEVEL"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "bucketctl:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var s settings
	if err := config.Load(&s); err != nil {
		return err
	}

	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&s.Backend, "backend", s.Backend, "storage backend: memory|redis|postgres|mongo|opensearch|s3")
	fs.StringVar(&s.Key, "key", s.Key, "bucket key")
	fs.Int64Var(&s.Quantity, "quantity", s.Quantity, "tokens per window for a new bucket")
	fs.DurationVar(&s.Window, "window", s.Window, "refill window for a new bucket")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "override log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	log := newLogger(s, stderr)

	b, err := openBackend(ctx, s.Backend, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.close(); err != nil {
			log.WarnContext(ctx, "backend close failed", logger.Error(err))
		}
	}()

	cmd, start := fs.Arg(0), time.Now()
	defer func() {
		log.DebugContext(ctx, "command finished", logger.Action(cmd), logger.Elapsed(start))
	}()

	switch cmd {
	case "health":
		if err := healthcheck.Check(ctx, log, b.health); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "ok")
		return nil
	case "migrate":
		if b.migrate == nil {
			return fmt.Errorf("%w: %s", errMigrateUnsupported, s.Backend)
		}
		return b.migrate(ctx)
	case "consume", "remaining", "state":
		bucket, err := tokenbucket.New(ctx, b.gateway, s.Key, s.Quantity, s.Window, clock.NewSystem(),
			tokenbucket.WithLogger(log.With(logger.Component("tokenbucket"))))
		if err != nil {
			return err
		}
		return runBucketCommand(ctx, bucket, cmd, fs.Args()[1:], stdout)
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, cmd)
	}
}

func runBucketCommand(ctx context.Context, bucket *tokenbucket.PersistentBucket, cmd string, args []string, stdout io.Writer) error {
	switch cmd {
	case "consume":
		n := int64(1)
		if len(args) > 0 {
			v, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %w", tokenbucket.ErrInvalidTokenCount, err)
			}
			n = v
		}
		ok, err := bucket.TryConsume(ctx, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "allowed=%t remaining=%d\n", ok, bucket.State().Remaining)
		return nil

	case "remaining":
		n, err := bucket.Remaining(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, n)
		return nil

	default:
		out := struct {
			Key string `json:"key"`
			tokenbucket.Record
			ResetAt time.Time `json:"reset_at"`
		}{
			Key:     bucket.Key(),
			Record:  tokenbucket.RecordFromState(bucket.State()),
			ResetAt: bucket.ResetAt().UTC(),
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}

func newLogger(s settings, w io.Writer) *slog.Logger {
	opts := []logger.Option{logger.WithOutput(w)}
	switch s.AppEnv {
	case "production":
		opts = append(opts, logger.WithProduction(serviceName))
	case "staging":
		opts = append(opts, logger.WithStaging(serviceName))
	default:
		opts = append(opts, logger.WithDevelopment(serviceName))
	}
	if s.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(s.LogLevel)))
	}
	return logger.New(opts...)
}
