// Package logger holds the process-wide zap logger.
//
// Log is a no-op until InitLogger runs, so library packages can log
// unconditionally:
//
//	if err := logger.InitLogger("debug", "console"); err != nil {
//	    log.Fatal(err)
//	}
//	logger.Log.Info("session stored", zap.Int("user_id", user.ID))
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log = zap.NewNop()

// InitLogger replaces Log. level is a zap level name and falls back to info;
// format is "json" (default) or "console". Output goes to stderr so the CLI
// keeps stdout for command results.
func InitLogger(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return fmt.Errorf("logger: unknown format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.Fields(zap.String("app", "medgas")))
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	Log = l
	return nil
}
