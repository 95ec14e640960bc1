// Package logging builds the process logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger at the given level together with
// the handle that can change the level at runtime. An empty level means info.
func New(level string) (*zap.Logger, zap.AtomicLevel, error) {
	atomic, err := ParseLevel(level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.Level = atomic
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.With(zap.String("service", "gastos-bot")), atomic, nil
}

// ParseLevel accepts zap level names in any case, plus "warning".
func ParseLevel(level string) (zap.AtomicLevel, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	case "warning":
		level = "warn"
	}

	var parsed zapcore.Level
	if err := parsed.Set(level); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zap.NewAtomicLevelAt(parsed), nil
}
