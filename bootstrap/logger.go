package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"ragbackend/config"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// logTimeLayout renders timestamps at second resolution
	logTimeLayout = "2006-01-02 15:04:05"

	// ErrorLogFile receives error-level entries only
	ErrorLogFile = "error.log"
	// CombinedLogFile receives every entry that passes the level filter
	CombinedLogFile = "combined.log"
)

var levelColors = map[zapcore.Level]*color.Color{
	zapcore.DebugLevel:  color.New(color.FgBlue),
	zapcore.InfoLevel:   color.New(color.FgGreen),
	zapcore.WarnLevel:   color.New(color.FgYellow),
	zapcore.ErrorLevel:  color.New(color.FgRed),
	zapcore.DPanicLevel: color.New(color.FgRed, color.Bold),
	zapcore.PanicLevel:  color.New(color.FgRed, color.Bold),
	zapcore.FatalLevel:  color.New(color.FgRed, color.Bold),
}

type loggerOptions struct {
	console zapcore.WriteSyncer
}

// LoggerOption customizes InitLogger
type LoggerOption func(*loggerOptions)

// WithConsoleWriter replaces stdout as the console sink
func WithConsoleWriter(ws zapcore.WriteSyncer) LoggerOption {
	return func(o *loggerOptions) {
		o.console = ws
	}
}

// InitLogger builds the process logger. Entries are teed into three sinks:
// a colorized console, a rotating error-only file and a rotating combined
// file, all rendered as "<timestamp> [<LEVEL>]: <message>".
func InitLogger(cfg *config.Config, opts ...LoggerOption) (*zap.Logger, *zap.SugaredLogger, error) {
	o := loggerOptions{console: zapcore.Lock(os.Stdout)}
	for _, opt := range opts {
		opt(&o)
	}

	// File transports must not be configured against a missing directory
	if err := EnsureLogDirectory(cfg.Log.Dir); err != nil {
		return nil, nil, err
	}

	level := MinimumLevel(cfg)

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(newEncoderConfig(true)),
		o.console,
		level,
	)

	fileEncoder := zapcore.NewConsoleEncoder(newEncoderConfig(false))
	errorCore := zapcore.NewCore(
		fileEncoder,
		zapcore.AddSync(newRotatingFile(cfg, ErrorLogFile)),
		zapcore.ErrorLevel,
	)
	combinedCore := zapcore.NewCore(
		fileEncoder,
		zapcore.AddSync(newRotatingFile(cfg, CombinedLogFile)),
		level,
	)

	// Stacks are attached only at panic levels; components that want them on
	// errors opt in with their own AddStacktrace
	logger := zap.New(
		zapcore.NewTee(consoleCore, errorCore, combinedCore),
		zap.AddStacktrace(zapcore.DPanicLevel),
	)
	return logger, logger.Sugar(), nil
}

// MinimumLevel returns debug outside production and info in production
func MinimumLevel(cfg *config.Config) zapcore.Level {
	if cfg.IsProduction() {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

// newRotatingFile rotates at MaxSizeMB megabytes and keeps MaxBackups old files
func newRotatingFile(cfg *config.Config, name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Log.Dir, name),
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
}

func newEncoderConfig(colorize bool) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "message",
		StacktraceKey:    "stack",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(logTimeLayout),
		EncodeLevel:      bracketLevelEncoder(colorize),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// bracketLevelEncoder renders the level as "[INFO]:"
func bracketLevelEncoder(colorize bool) zapcore.LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		label := l.CapitalString()
		if c, ok := levelColors[l]; ok && colorize {
			label = c.Sprint(label)
		}
		enc.AppendString("[" + label + "]:")
	}
}

// AccessLogWriter adapts the logger to the line-oriented io.Writer expected
// by the access-log middleware. Each write is one pre-formatted request line.
type AccessLogWriter struct {
	logger *zap.SugaredLogger
}

// NewAccessLogWriter returns a writer that records lines at info level
func NewAccessLogWriter(logger *zap.SugaredLogger) *AccessLogWriter {
	return &AccessLogWriter{logger: logger}
}

// Write strips trailing whitespace from p and logs it at info level.
func (w *AccessLogWriter) Write(p []byte) (int, error) {
	line := strings.TrimRightFunc(string(p), unicode.IsSpace)
	if line != "" {
		w.logger.Info(line)
	}
	return len(p), nil
}
