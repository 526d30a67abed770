// Package logger builds the zap loggers used by the client and the stub gateway.
package logger

import (
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006/01/02 15:04:05"

// New builds a console logger writing to w.
// debug enables debug level with colored levels; otherwise only warnings and
// errors are written.
func New(debug bool, w io.Writer) *zap.Logger {
	var encCfg zapcore.EncoderConfig
	level := zapcore.WarnLevel
	if debug {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		level = zapcore.DebugLevel
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

// NewServer builds the logger for the stub gateway: info level, JSON unless
// development is set.
func NewServer(development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// HTTPRequest returns the standard fields describing an outbound or inbound request.
func HTTPRequest(r *http.Request) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
}

// HTTPResult returns the standard fields describing a finished request.
func HTTPResult(status int, started time.Time) []zap.Field {
	return []zap.Field{
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(started)),
	}
}
