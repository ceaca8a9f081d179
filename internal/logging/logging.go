// Package logging builds the process zap logger: JSON lines into a rotating
// file, plus a console core for interactive use.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls New.
type Options struct {
	// File is the rotated JSON log. Empty disables the file core.
	File string
	// Production switches the console core to JSON at info level.
	Production bool
	// Console receives human-oriented output. Nil disables the console core.
	Console io.Writer
}

// New returns a logger teeing a lumberjack-rotated JSON file core with an
// optional console core. The returned close func syncs and closes the file.
func New(opts Options) (*zap.Logger, func() error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	var cores []zapcore.Core
	var rotator *lumberjack.Logger

	if opts.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), zap.InfoLevel))
	}

	if opts.Console != nil {
		consoleEncoder := jsonEncoder
		level := zap.InfoLevel
		if !opts.Production {
			consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
			level = zap.DebugLevel
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(opts.Console), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() error { return nil }
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closer := func() error {
		_ = logger.Sync()
		if rotator != nil {
			return rotator.Close()
		}
		return nil
	}
	return logger, closer
}

// Stderr is the console writer used by interactive commands.
func Stderr() io.Writer {
	return zapcore.Lock(os.Stderr)
}
