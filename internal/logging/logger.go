package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotated JSON log inside Options.Dir.
const FileName = "availability.log"

// Options controls where the logger writes and how verbose it is.
type Options struct {
	// Dir receives FileName. Empty disables the file sink.
	Dir   string
	Level zapcore.Level
	// Console, when set, gets a human readable copy of every entry.
	Console io.Writer
}

// ParseLevel maps a level name (debug, info, warn, error, ...) to a zap
// level. Unknown or empty names fall back to info and report false.
func ParseLevel(name string) (zapcore.Level, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return zap.InfoLevel, false
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return zap.InfoLevel, false
	}
	return lvl, true
}

// New builds a JSON logger over a lumberjack rotated file, optionally teed
// to a console encoder.
func New(opts Options) (*zap.Logger, error) {
	var cores []zapcore.Core

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, err
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, opts.Level))
	}

	if opts.Console != nil {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(opts.Console), opts.Level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}
