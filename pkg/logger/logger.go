package logger

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Context(ctx context.Context) context.Context

	Debug(ctx context.Context, log string, fields ...zapcore.Field)
	Info(ctx context.Context, log string, fields ...zapcore.Field)
	Warn(ctx context.Context, log string, fields ...zapcore.Field)
	Error(ctx context.Context, log string, fields ...zapcore.Field)
}

var Module = fx.Provide(func() Logger {
	return New(os.Getenv("LOG_LEVEL"))
})

// New constructs a new logger.
func New(level string) Logger {
	stdoutSyncer := zapcore.Lock(os.Stdout)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.FunctionKey = "func"

	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			stdoutSyncer,
			getLevel(level),
		),
	)

	// AddCallerSkip skips the wrapper frame below
	log := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &logger{
		lg:          log,
		idGenerator: defaultIDGenerator(),
	}
}

type logger struct {
	lg          *zap.Logger
	idGenerator IDGenerator
}

func getLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.DebugLevel
	}
}

func (l *logger) Context(ctx context.Context) context.Context {
	_, ok := ctx.Value(&logCtx).(*logContext)
	if ok {
		return ctx
	}

	return context.WithValue(ctx, &logCtx, newLogContext(l.idGenerator.NewLogID(ctx)))
}

func (l *logger) Debug(ctx context.Context, log string, fields ...zapcore.Field) {
	l.lg.Debug(log, withAttrs(ctx, fields)...)
}

func (l *logger) Info(ctx context.Context, log string, fields ...zapcore.Field) {
	l.lg.Info(log, withAttrs(ctx, fields)...)
}

func (l *logger) Warn(ctx context.Context, log string, fields ...zapcore.Field) {
	l.lg.Warn(log, withAttrs(ctx, fields)...)
}

func (l *logger) Error(ctx context.Context, log string, fields ...zapcore.Field) {
	l.lg.Error(log, withAttrs(ctx, fields)...)
}

func withAttrs(ctx context.Context, fields []zapcore.Field) []zapcore.Field {
	if ctx == nil {
		return fields
	}
	return append(fields, getAttrs(ctx)...)
}
