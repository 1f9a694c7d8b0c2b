package logger

import (
	"bytes"
	"context"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
)

const logIDKey = "logID"

type logCtxKey struct{}

var logCtx logCtxKey

type LogID [8]byte

func (lid LogID) String() string {
	return hex.EncodeToString(lid[:])
}

var nilLogID = LogID{}

func (lid LogID) IsValid() bool {
	return !bytes.Equal(lid[:], nilLogID[:])
}

type logContext struct {
	StartTime time.Time
	LogID     LogID
}

func newLogContext(logID LogID) *logContext {
	return &logContext{
		LogID:     logID,
		StartTime: time.Now(),
	}
}

func getAttrs(ctx context.Context) []zap.Field {
	lgCtx, _ := ctx.Value(&logCtx).(*logContext)
	if lgCtx == nil {
		return nil
	}

	return []zap.Field{zap.String(logIDKey, lgCtx.LogID.String())}
}
