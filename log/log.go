// Package log is the runtime's structured logger, a thin facade over zap
package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field aliases keep call sites free of a direct zap import
type Field = zap.Field

var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Uint32   = zap.Uint32
	Float64  = zap.Float64
	Bool     = zap.Bool
	Duration = zap.Duration
	Err      = zap.Error
	Any      = zap.Any
)

// Logger is the logging surface handed to every runtime component
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	Named(name string) Logger

	Sync() error
}

var _ Logger = (*ZapLogger)(nil)

// Config selects sinks and verbosity
type Config struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	Console  bool   `yaml:"console"`
	Sampling bool   `yaml:"sampling"`
}

// ZapLogger implements Logger; the root instance also owns the level and the file sink
type ZapLogger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
	file  *os.File
}

// New builds a logger from cfg
// Console output goes through a locked stderr; File appends JSON lines
// Every root logger carries a session id so interleaved runs in one file can be separated
func New(cfg Config) (*ZapLogger, error) {
	lvl := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		lvl = parsed
	}
	atom := zap.NewAtomicLevelAt(lvl)

	var cores []zapcore.Core
	var file *os.File

	if cfg.Console {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), atom))
	}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.Lock(f), atom))
	}

	core := zapcore.NewTee(cores...)
	if cfg.Sampling {
		// Per-frame script warnings repeat at the tick rate
		core = zapcore.NewSamplerWithOptions(core, time.Second, 5, 100)
	}

	zl := zap.New(core).With(zap.String("session", uuid.NewString()))
	return &ZapLogger{zl: zl, level: atom, file: file}, nil
}

// NewWriter builds a console-encoded logger over w, used by tools and tests that capture output
func NewWriter(w io.Writer, level zapcore.Level) *ZapLogger {
	atom := zap.NewAtomicLevelAt(level)
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), atom)
	return &ZapLogger{zl: zap.New(core), level: atom}
}

// Wrap adapts an existing zap logger, e.g. one backed by zaptest/observer
func Wrap(zl *zap.Logger) *ZapLogger {
	return &ZapLogger{zl: zl, level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

// Nop discards everything
func Nop() *ZapLogger {
	return Wrap(zap.NewNop())
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.zl.Debug(msg, fields...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.zl.Info(msg, fields...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.zl.Warn(msg, fields...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.zl.Error(msg, fields...) }

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{zl: l.zl.With(fields...), level: l.level}
}

func (l *ZapLogger) Named(name string) Logger {
	return &ZapLogger{zl: l.zl.Named(name), level: l.level}
}

// SetLevel changes verbosity for this logger and every child derived from it
func (l *ZapLogger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

func (l *ZapLogger) Level() zapcore.Level {
	return l.level.Level()
}

func (l *ZapLogger) Sync() error {
	return l.zl.Sync()
}

// Close flushes and releases the file sink; children must not be used afterwards
func (l *ZapLogger) Close() error {
	_ = l.zl.Sync()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
