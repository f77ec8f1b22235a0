package logx

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level, encoder and destination.
type Config struct {
	Level   string
	Dev     bool
	Console bool
	Output  io.Writer
}

var levelMap = map[string]zapcore.Level{
	"debug":  zapcore.DebugLevel,
	"info":   zapcore.InfoLevel,
	"warn":   zapcore.WarnLevel,
	"error":  zapcore.ErrorLevel,
	"dpanic": zapcore.DPanicLevel,
	"panic":  zapcore.PanicLevel,
	"fatal":  zapcore.FatalLevel,
}

// ParseLevel maps a level name to a zap level. Unknown names are info.
func ParseLevel(lvl string) zapcore.Level {
	level, ok := levelMap[lvl]
	if !ok {
		return zapcore.InfoLevel
	}
	return level
}

// New builds a logger. Console mode writes human-readable lines to stdout,
// otherwise JSON goes to cfg.Output (stderr when nil).
func New(cfg Config) *zap.Logger {
	var w zapcore.WriteSyncer
	switch {
	case cfg.Console:
		w = zapcore.AddSync(os.Stdout)
	case cfg.Output != nil:
		w = zapcore.AddSync(cfg.Output)
	default:
		w = zapcore.AddSync(os.Stderr)
	}

	var encoderCfg zapcore.EncoderConfig
	if cfg.Dev {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
	}
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Console {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, w, zap.NewAtomicLevelAt(ParseLevel(cfg.Level)))
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Dev {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...)
}
