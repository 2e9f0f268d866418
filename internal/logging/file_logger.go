package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vvka-141/csvload/pkg/csvload"
)

// FileLogger appends log lines to a file:
//
//	2024-05-01T10:00:00.000Z - INFO - Loaded chunk 1 (10000 rows)	{"run_id": "..."}
//
// Verbose messages are written at debug level and only when verbose is set.
type FileLogger struct {
	sugar *zap.SugaredLogger
	file  *os.File
}

var _ csvload.Logger = (*FileLogger)(nil)

// NewFileLogger opens (or creates) path for appending.
// The caller must call Close when done.
func NewFileLogger(path string, verbose bool, runID string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	l := newFileLogger(zapcore.Lock(f), verbose, runID)
	l.file = f
	return l, nil
}

func newFileLogger(ws zapcore.WriteSyncer, verbose bool, runID string) *FileLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.ConsoleSeparator = " - "

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	logger := zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, level))
	if runID != "" {
		logger = logger.With(zap.String("run_id", runID))
	}

	return &FileLogger{sugar: logger.Sugar()}
}

func (l *FileLogger) Verbose(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *FileLogger) Info(format string, args ...interface{})    { l.sugar.Infof(format, args...) }
func (l *FileLogger) Warn(format string, args ...interface{})    { l.sugar.Warnf(format, args...) }
func (l *FileLogger) Error(format string, args ...interface{})   { l.sugar.Errorf(format, args...) }

// Close flushes buffered entries and closes the file.
func (l *FileLogger) Close() error {
	_ = l.sugar.Sync()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
