package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	TimeStampKey = "timestamp"
	MessageKey   = "message"
	VersionKey   = "version"
)

// Logger owns the zap core behind a logr.Logger so it can be flushed and
// closed on exit.
type Logger struct {
	logr.Logger
	zap  *zap.Logger
	file *os.File
}

// ParseLevel maps a level name to a zap level. Unknown names are an error.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// Open creates a JSON logger appending to path. The terminal belongs to the
// UI, so logs never go to stdout or stderr. An empty path discards logs.
func Open(path string, level zapcore.Level, version string) (*Logger, error) {
	if path == "" {
		return &Logger{Logger: logr.Discard()}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return newLogger(zapcore.AddSync(f), level, version, f), nil
}

func newLogger(sink zapcore.WriteSyncer, level zapcore.Level, version string, f *os.File) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(sink),
		zap.NewAtomicLevelAt(level),
	).With([]zapcore.Field{zap.String(VersionKey, version)})

	zl := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	return &Logger{
		Logger: zapr.NewLogger(zl),
		zap:    zl,
		file:   f,
	}
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	if l.zap != nil {
		_ = l.zap.Sync()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// WithLogger returns a context carrying log.
func WithLogger(ctx context.Context, log logr.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(logr.Logger); ok {
		return log
	}
	return logr.Discard()
}
