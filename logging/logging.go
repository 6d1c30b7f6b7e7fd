// Package logging builds the process logger: a slog front backed by a zap core,
// optionally teed into a rotated file and fanned out to further slog handlers.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/networkteam/sitecheck/config"
)

// Options configure New.
type Options struct {
	// Writer receives the formatted log lines. Default: os.Stderr
	Writer io.Writer
	// Handlers receive every record in addition to the zap core.
	Handlers []slog.Handler
}

// Logger is the process logger and the resources behind it.
type Logger struct {
	*slog.Logger

	core zapcore.Core
	file *lumberjack.Logger
}

// New builds a logger for cfg.
func New(cfg config.LogConfig, opts Options) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(cfg.Format), zapcore.Lock(zapcore.AddSync(w)), level),
	}

	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		// Files are always JSON.
		cores = append(cores, zapcore.NewCore(encoder("json"), zapcore.AddSync(file), level))
	}

	core := zapcore.NewTee(cores...)
	handlers := append([]slog.Handler{
		zapslog.NewHandler(core, zapslog.AddStacktraceAt(slog.LevelError)),
	}, opts.Handlers...)

	return &Logger{
		Logger: slog.New(slogmulti.Fanout(handlers...)),
		core:   core,
		file:   file,
	}, nil
}

// Close flushes buffered output and closes the log file.
func (l *Logger) Close() error {
	var errs []error
	// Syncing a terminal fails with EINVAL on some platforms.
	if err := l.core.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		errs = append(errs, err)
	}
	if l.file != nil {
		errs = append(errs, l.file.Close())
	}
	return errors.Join(errs...)
}

func encoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}
