package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"moul.io/zapfilter"
)

// Level is an alias to the zap levels. This way consumers don't need to
// import zapcore themselves.
type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

func ParseLevel(text string) (Level, error) {
	return zapcore.ParseLevel(text)
}

type (
	Field  = zap.Field
	Option = zap.Option
)

func WithCaller(enabled bool) Option {
	return zap.WithCaller(enabled)
}

func AddCallerSkip(skip int) Option {
	return zap.AddCallerSkip(skip)
}

// function aliases for the most common field types
var (
	Skip       = zap.Skip
	Binary     = zap.Binary
	Bool       = zap.Bool
	Int        = zap.Int
	Int32      = zap.Int32
	Int64      = zap.Int64
	Uint       = zap.Uint
	Uint32     = zap.Uint32
	Uint64     = zap.Uint64
	Float32    = zap.Float32
	Float64    = zap.Float64
	String     = zap.String
	Stringer   = zap.Stringer
	Time       = zap.Time
	Duration   = zap.Duration
	Any        = zap.Any
	ErrorField = zap.Error
)

// Logger is a thin wrapper around zap.Logger. It keeps track of its
// configured level since zap doesn't expose it.
type Logger struct {
	l     *zap.Logger
	sugar *zap.SugaredLogger
	level Level
}

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Debugf(template string, args ...any) { l.sugar.Debugf(template, args...) }
func (l *Logger) Infof(template string, args ...any)  { l.sugar.Infof(template, args...) }
func (l *Logger) Warnf(template string, args ...any)  { l.sugar.Warnf(template, args...) }
func (l *Logger) Errorf(template string, args ...any) { l.sugar.Errorf(template, args...) }
func (l *Logger) Fatalf(template string, args ...any) { l.sugar.Fatalf(template, args...) }

func (l *Logger) Debugw(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Named(name string) *Logger {
	named := l.l.Named(name)
	return &Logger{l: named, sugar: named.Sugar(), level: l.level}
}

func (l *Logger) WithOptions(opts ...Option) *Logger {
	clone := l.l.WithOptions(opts...)
	return &Logger{l: clone, sugar: clone.Sugar(), level: l.level}
}

func (l *Logger) Sync() error {
	return l.l.Sync()
}

// New creates a logger with a json encoder writing to w.
// This is the flavor used in production.
func New(w io.Writer, level Level, opts ...Option) *Logger {
	if w == nil {
		panic("the writer is nil")
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.AddSync(w),
		level,
	)
	return fromCore(core, level, opts...)
}

// DevLogger creates a logger with a console encoder writing to w.
func DevLogger(w io.Writer, level Level, opts ...Option) *Logger {
	if w == nil {
		panic("the writer is nil")
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(w),
		level,
	)
	return fromCore(core, level, opts...)
}

// NewWithFilters works like New but wraps the core with zapfilter rules.
// Rules use the zapfilter syntax, for example "debug:replay.* info:*".
func NewWithFilters(w io.Writer, level Level, rules string, opts ...Option) (
	*Logger, error,
) {
	if w == nil {
		panic("the writer is nil")
	}
	filter, err := zapfilter.ParseRules(rules)
	if err != nil {
		return nil, fmt.Errorf("invalid filter rules: %w", err)
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.AddSync(w),
		level,
	)
	return fromCore(zapfilter.NewFilteringCore(core, filter), level, opts...), nil
}

func fromCore(core zapcore.Core, level Level, opts ...Option) *Logger {
	l := zap.New(core, opts...)
	return &Logger{l: l, sugar: l.Sugar(), level: level}
}

var std = New(os.Stderr, InfoLevel)

func Default() *Logger {
	return std
}

// ResetDefault replaces the default logger used by the package level
// functions. Not safe for concurrent use.
func ResetDefault(l *Logger) {
	std = l
	Debug = std.Debug
	Info = std.Info
	Warn = std.Warn
	Error = std.Error
	Fatal = std.Fatal
	Fatalf = std.Fatalf
	Debugw = std.Debugw
}

var (
	Debug  = std.Debug
	Info   = std.Info
	Warn   = std.Warn
	Error  = std.Error
	Fatal  = std.Fatal
	Fatalf = std.Fatalf
	Debugw = std.Debugw
)

type ctxKey struct{}

// AddToContext stores the logger in the context.
func AddToContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// GetFromContext returns the logger stored in the context.
// Falls back to the default logger.
func GetFromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return std
}

// Config describes the content of the file referenced by --log-config.
type Config struct {
	DefaultLevel string   `yaml:"defaultLevel"`
	Filters      []string `yaml:"filters"`
}

// Rules returns the filters in zapfilter syntax. Without any filter
// entry everything passes (zapfilter would otherwise drop all logs).
func (c *Config) Rules() string {
	if len(c.Filters) == 0 {
		return "*"
	}
	return strings.Join(c.Filters, " ")
}

// LoadConfig reads a logger configuration from a yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ret := &Config{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, err
	}
	return ret, nil
}
