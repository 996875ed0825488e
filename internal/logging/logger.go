// Package logging builds the zap logger used by the CLI and the engine.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joshharrison/planloom/internal/config"
)

// atomicLevel is shared by every logger built here so the level can change at runtime
var atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Build creates a logger writing Info and below to stdout-like out and
// Error and above to errOut.
func Build(cfg config.LoggerConfig, out, errOut io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	atomicLevel.SetLevel(lvl)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	encoder := zapcore.NewJSONEncoder(encCfg)
	if cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	highPriority := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return atomicLevel.Enabled(l) && l >= zapcore.ErrorLevel
	})
	lowPriority := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return atomicLevel.Enabled(l) && l < zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(out), lowPriority),
		zapcore.NewCore(encoder, zapcore.AddSync(errOut), highPriority),
	)
	return zap.New(core, zap.AddCaller()), nil
}

// BuildOrNop is Build writing to stderr for both streams, falling back to a
// no-op logger on a bad level.
func BuildOrNop(cfg config.LoggerConfig) *zap.Logger {
	l, err := Build(cfg, os.Stderr, os.Stderr)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// SetLevel changes the level of every logger built by this package.
func SetLevel(level string) error {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	atomicLevel.SetLevel(l)
	return nil
}

// Level returns the current shared level.
func Level() zapcore.Level {
	return atomicLevel.Level()
}
