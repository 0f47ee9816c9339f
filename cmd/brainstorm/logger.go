package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger writes JSON lines to logFilePath and console lines to stderr.
// Stderr is only added when it is a terminal or when there is no log file,
// so daemonised runs (stderr redirected to the same file) do not log twice.
func newLogger(logFilePath string, level zapcore.Level) (*zap.Logger, error) {
	atom := zap.NewAtomicLevelAt(level)
	var cores []zapcore.Core

	stderrIsTerminal := false
	if info, err := os.Stderr.Stat(); err == nil {
		stderrIsTerminal = (info.Mode() & os.ModeCharDevice) != 0
	}

	hasLogFile := false
	lower := strings.ToLower(logFilePath)
	if lower != "none" && lower != "off" && logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir %s: %w", filepath.Dir(logFilePath), err)
		}
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", logFilePath, err)
		}
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), atom))
		hasLogFile = true
	}

	if stderrIsTerminal || !hasLogFile {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !stderrIsTerminal {
			enc.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), atom))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named("brainstorm"), nil
}
