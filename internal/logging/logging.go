// Package logging builds lyra's structured logger. Every subcommand gets
// one zap.Logger that writes JSON lines to the configured log file and,
// when --verbose is set, mirrors them to stderr at debug level — the same
// dual-sink shape the teacher's CLI used for its own zap setup.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/boshu2/lyra/internal/config"
)

// New builds a zap.Logger per cfg.Logging. The file sink always logs at
// cfg.Logging.Level or above; the stderr sink only exists when verbose is
// true, and always logs at debug.
func New(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	level := parseLevel(cfg.Logging.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Logging.Path), 0o755); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("logging: create log directory: %w", err)
	}

	file, err := os.OpenFile(cfg.Logging.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(file), level),
	}
	if verbose {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(os.Stderr), zapcore.DebugLevel))
	}

	core := zapcore.NewTee(cores...)
	return zap.New(core), nil
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
