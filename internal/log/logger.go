// Package log wires the process-wide zap logger for agentpipe. The
// default logger is a no-op so diagnostic output never mixes with the
// chunk stream on stdout; --debug swaps in a development logger that
// writes timestamped, colored lines to stderr.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

// InitLogger installs the global logger. Call once at startup, before
// any zap.S() call site runs.
func InitLogger(debug bool) {
	l := zap.NewNop()
	if debug {
		l = newDebugLogger()
	}

	zap.ReplaceGlobals(l)
	zap.RedirectStdLog(l)
	logger = l.Sugar()
}

func newDebugLogger() *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	config.DisableStacktrace = true

	l, err := config.Build()
	if err != nil {
		panic(err)
	}
	return l
}

// GetLogger returns the global sugared logger, initializing a silent one
// if InitLogger was never called
func GetLogger() *zap.SugaredLogger {
	if logger == nil {
		InitLogger(false)
	}
	return logger
}
