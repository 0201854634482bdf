// Package logger wraps zap for the pwctl command line.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "WARNING"

// Logger holds the process logger.
type Logger struct {
	Log *zap.Logger
	out io.Writer
}

// New returns a Logger that discards everything until Init is called.
func New() *Logger {
	return &Logger{Log: zap.NewNop(), out: os.Stderr}
}

// NewWithWriter is New with output going to w instead of stderr.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{Log: zap.NewNop(), out: w}
}

// ParseLevel maps a level name to a zap level. Besides zap's own names it
// accepts WARNING and CRITICAL, in any case.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "WARNING":
		return zapcore.WarnLevel, nil
	case "CRITICAL":
		return zapcore.DPanicLevel, nil
	}

	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logger: unknown level %q", level)
	}
	return l, nil
}

// Init builds a console logger at level. An unknown level logs a warning and
// falls back to INFO; the returned error reports it.
func (l *Logger) Init(level string) error {
	lvl, parseErr := ParseLevel(level)

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(l.out)),
		lvl,
	)
	l.Log = zap.New(core).Named("pwctl")

	if parseErr != nil {
		l.Log.Warn("invalid logging level, using INFO", zap.String("level", level))
	}
	return parseErr
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.Log.Sync()
}
