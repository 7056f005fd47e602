package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logFilePermissions restricts the log file to the current user.
const logFilePermissions = 0o600

// coreWithLevel wraps a zapcore.Core with its own minimum level,
// independent of the level the wrapped core was built with.
type coreWithLevel struct {
	zapcore.Core

	// level is the minimum log level for this core to process messages.
	level zapcore.LevelEnabler
}

// Enabled reports whether the entry level passes the wrapper's own level.
func (c *coreWithLevel) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds the core to a checked entry if the log entry level is enabled for logging.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *coreWithLevel) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With returns a new core with added fields, keeping the wrapper's level.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *coreWithLevel) With(fields []zapcore.Field) zapcore.Core {
	return &coreWithLevel{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// fileLevel keeps warnings and errors in the file even when the console
// is configured to be quieter.
type fileLevel struct {
	console zapcore.LevelEnabler
}

func (f fileLevel) Enabled(l zapcore.Level) bool {
	return l >= zapcore.WarnLevel || f.console.Enabled(l)
}

// FileSink is a log file opened by NewWithFile.
type FileSink struct {
	// Logger writes to the console and to the file.
	Logger *zap.SugaredLogger
	// Journal writes to the file only. It records what the user already
	// sees on the terminal without printing it a second time.
	Journal *zap.SugaredLogger

	file *os.File
}

// Close flushes both loggers and closes the file.
func (s *FileSink) Close() error {
	//nolint:errcheck // Sync on a console core fails on some terminals; the file is closed below.
	_ = s.Logger.Sync()
	_ = s.Journal.Sync()

	return s.file.Close()
}

// NewWithFile opens the file at path for appending JSON records and returns
// a console+file logger together with a file-only journal.
func NewWithFile(level zapcore.LevelEnabler, path string, options ...zap.Option) (*FileSink, error) {
	if level == nil {
		level = defaultLevel
	}

	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	//nolint:exhaustruct // I'm okay with default encoder configuration values.
	encoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "time",
		MessageKey:     "message",
		LevelKey:       "level",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	})

	fileCore := &coreWithLevel{
		Core:  zapcore.NewCore(encoder, zapcore.Lock(file), zapcore.DebugLevel),
		level: fileLevel{console: level},
	}

	return &FileSink{
		Logger:  zap.New(zapcore.NewTee(consoleCore(level), fileCore), options...).Sugar(),
		Journal: zap.New(fileCore, options...).Sugar(),
		file:    file,
	}, nil
}
