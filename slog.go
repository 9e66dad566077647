package docsbot

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SLogger is the docsbot internal logging interface. A zap.SugaredLogger implements this interface
type SLogger interface {
	Printf(format string, v ...interface{})

	Debugf(format string, v ...interface{})

	Errorf(format string, v ...interface{})
}

type sLogger struct {
	logger *zap.SugaredLogger
}

// NewSLogger creates a new docsbot logger backed by a zap logger
func NewSLogger(log *zap.Logger) (l *sLogger) {
	l = new(sLogger)
	l.logger = log.WithOptions(zap.AddCallerSkip(1)).Sugar()

	return l
}

// Debugf logs a line at debug level
func (sl *sLogger) Debugf(format string, v ...interface{}) {
	sl.logger.Debugf(format, v...)
}

// Printf logs a line at info level
func (sl *sLogger) Printf(format string, v ...interface{}) {
	sl.logger.Infof(format, v...)
}

// Errorf logs a line at error level
func (sl *sLogger) Errorf(format string, v ...interface{}) {
	sl.logger.Errorf(format, v...)
}

// With returns a logger adding the key/value pairs to every line it logs
func (sl *sLogger) With(keysAndValues ...interface{}) (l *sLogger) {
	return &sLogger{logger: sl.logger.With(keysAndValues...)}
}

// NewZapLogger creates a json logger writing to stdout at the given level (debug, info, warn or error)
func NewZapLogger(level string) (logger *zap.Logger, err error) {
	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(parseLevel(level)),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
