package utils

import (
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the logger for a run. Terminals get a colored
// console encoder, anything else gets JSON lines. When LogFile is set
// the log is additionally written to a size-rotated file.
func NewLogger(o Options) *zap.Logger {
	level := zapcore.InfoLevel
	if o.Verbose {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if isatty.IsTerminal(os.Stderr.Fd()) {
		cfg := zap.NewDevelopmentEncoderConfig()
		if !o.NoColorize {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(cfg)
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}
	if o.LogFile != "" {
		sink := &lumberjack.Logger{
			Filename:   o.LogFile,
			MaxSize:    50,
			MaxBackups: 3,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(sink),
			level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
