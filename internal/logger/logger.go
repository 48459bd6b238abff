// ==================================
// File: internal/logger/logger.go
// ==================================
// Package logger wraps zap with file rotation and launch-specific helpers.
package logger

import (
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger extends zap.Logger with pipeline context helpers.
type Logger struct {
	*zap.Logger
	config *Config
}

// New creates a logger writing human-readable output to stdout and JSON to a
// rotated log file.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logRotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.TimeKey = "timestamp"
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileEncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	fileEncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	level := zapcore.InfoLevel
	if cfg.Development {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder(), zapcore.AddSync(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(logRotator), level),
	)

	return &Logger{
		Logger: zap.New(core,
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		),
		config: cfg,
	}, nil
}

// Nop returns a logger that discards everything. Test use only.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), config: DefaultConfig()}
}

func (l *Logger) child(core *zap.Logger) *Logger {
	return &Logger{Logger: core, config: l.config}
}

// Named adds a sub-logger name, keeping the pipeline helpers available.
func (l *Logger) Named(name string) *Logger {
	return l.child(l.Logger.Named(name))
}

// WithRun tags all entries with the launch run identifier.
func (l *Logger) WithRun(runID string) *Logger {
	return l.child(l.With(zap.String("run_id", runID)))
}

// WithStage creates a logger for a single pipeline stage.
func (l *Logger) WithStage(stage string) *Logger {
	return l.child(l.With(
		zap.String("stage", stage),
		zap.String("correlation_id", uuid.New().String()),
		zap.Time("start_time", time.Now().UTC()),
	))
}

// WithWallet adds the acting wallet's public key.
func (l *Logger) WithWallet(pubkey string) *Logger {
	return l.child(l.With(zap.String("wallet", pubkey)))
}

// Sync flushes buffered entries, ignoring the spurious stdout sync errors
// some platforms report.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if err != nil && (err.Error() == "sync /dev/stdout: invalid argument" ||
		err.Error() == "sync /dev/stderr: inappropriate ioctl for device") {
		return nil
	}
	return err
}
