// Package logging builds the zap logger used for diagnostics. User-facing
// command output does not go through it.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps debug|info|warn|error to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s (use debug, info, warn or error)", s)
}

// Config returns the console-encoded configuration shared by every sink.
func Config(level zapcore.Level) zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// New returns a logger writing to w.
func New(w io.Writer, level zapcore.Level) *zap.Logger {
	return newLogger(zapcore.AddSync(w), level)
}

func newLogger(ws zapcore.WriteSyncer, level zapcore.Level) *zap.Logger {
	cfg := Config(level)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg.EncoderConfig), ws, cfg.Level)
	return zap.New(core)
}

// Discard returns a logger that drops everything.
func Discard() *zap.Logger { return zap.NewNop() }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NopCloser is returned with loggers that own no file.
var NopCloser io.Closer = nopCloser{}

type fileCloser struct {
	logger *zap.Logger
	close  func()
}

func (c fileCloser) Close() error {
	err := c.logger.Sync()
	c.close()
	return err
}

// Open returns a logger appending to path, or writing to stderr when path is
// empty. The returned closer flushes and releases the file.
func Open(path string, level zapcore.Level) (*zap.Logger, io.Closer, error) {
	if path == "" {
		return newLogger(zapcore.Lock(os.Stderr), level), NopCloser, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	ws, closeSink, err := zap.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	l := newLogger(ws, level)
	return l, fileCloser{logger: l, close: closeSink}, nil
}
