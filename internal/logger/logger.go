// Package logger builds the structured zap logger shared by every command.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls log level and encoding.
type Config struct {
	Level  string
	Format string // "console" or "json"
}

func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
	}
}

// New builds a logger writing to stderr. Stdout stays reserved for command output.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

// Nop returns a logger that discards everything. Used by tests and library callers.
func Nop() *zap.Logger {
	return zap.NewNop()
}
