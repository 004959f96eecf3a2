// Package logging constructs the process-wide structured logger used for
// remote-tool diagnostics and protocol audit events.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a human-readable console logger. When debug is false, only
// info-and-above records are emitted; debug also surfaces captured
// subprocess diagnostics from the Remote Driver.
func New(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
