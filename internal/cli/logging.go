// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/netascode/go-fmg"
)

// ZapLogger adapts a zap logger to fmg.Logger
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ fmg.Logger = (*ZapLogger)(nil)

// NewZapLogger wraps l
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar()}
}

func (z *ZapLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	z.sugar.Debugw(msg, keysAndValues...)
}

func (z *ZapLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	z.sugar.Infow(msg, keysAndValues...)
}

func (z *ZapLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	z.sugar.Warnw(msg, keysAndValues...)
}

func (z *ZapLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	z.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes buffered log entries
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}

// newLogger builds a console logger writing to w: debug level when debug is
// set, warnings and errors otherwise
func newLogger(w io.Writer, debug bool) *zap.Logger {
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}
