// Package logger provides structured logging utilities built on Go's standard slog package.
//
// New builds a *slog.Logger from options, with presets per environment:
//
//	log := logger.New(logger.WithDevelopment("bucketctl"))   // text, debug
//	log := logger.New(logger.WithProduction("bucketctl"))    // JSON, info
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelWarn),
//		logger.WithJSONFormatter(),
//		logger.WithOutput(os.Stderr),
//	)
//
// Attribute helpers return an empty slog.Attr for nil or empty inputs, so they
// are safe to pass without checks:
//
//	log.Error("bucket state save failed",
//		logger.Key("bucket_key", key),
//		logger.Error(err),
//	)
package logger
