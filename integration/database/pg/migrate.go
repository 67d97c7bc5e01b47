package pg

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/tokenbucket/core/logger"
)

//go:embed migrations/*.sql
var bucketMigrations embed.FS

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// Migrate applies the migrations found in cfg.MigrationsPath.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	if _, err := os.Stat(cfg.MigrationsPath); err != nil {
		return errors.Join(ErrMigrationsDirNotFound, err)
	}
	return MigrateFS(ctx, pool, os.DirFS(cfg.MigrationsPath), ".", cfg.MigrationsTable, log)
}

// MigrateBuckets creates the token_buckets table from the embedded migrations.
// The embedded schema only knows DefaultBucketsTable; a custom cfg.BucketsTable
// must be created by the application's own migrations (see Migrate).
func MigrateBuckets(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	if cfg.BucketsTable != "" && cfg.BucketsTable != DefaultBucketsTable {
		return fmt.Errorf("%w: embedded migrations create %q, not %q",
			ErrCustomBucketsTable, DefaultBucketsTable, cfg.BucketsTable)
	}
	return MigrateFS(ctx, pool, bucketMigrations, "migrations", cfg.MigrationsTable, log)
}

// MigrateFS applies goose migrations from dir inside fsys.
// goose works on database/sql, so the pool is wrapped with pgx's stdlib adapter.
func MigrateFS(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, dir, table string, log *slog.Logger) error {
	if pool == nil {
		return ErrNilDB
	}
	if log == nil {
		log = slog.Default()
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}

	return withVersionTable(table, func() error {
		if err := goose.UpContext(ctx, db, dir); err != nil {
			return errors.Join(ErrMigrationFailed, err)
		}
		return nil
	})
}

// withVersionTable runs fn with goose's version table set to table and puts
// the previous name back afterwards. An empty table leaves the name untouched.
// Callers must hold gooseMu.
func withVersionTable(table string, fn func() error) error {
	prev := goose.TableName()
	defer goose.SetTableName(prev)

	if table != "" {
		goose.SetTableName(table)
	}
	return fn()
}

// gooseLogger routes goose output to slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...), logger.Component("goose"))
}

// Fatalf logs at error level; goose's default would exit the process.
func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...), logger.Component("goose"))
}
