// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapAdapter(zap.New(core)), logs
}

func TestZapWrapper_Fields(t *testing.T) {
	log, logs := observed(zapcore.DebugLevel)

	log.WithFields(map[string]interface{}{"taskType": "validate-document"}).
		Info("Validated document", map[string]interface{}{"loanId": "loan-001", "issues": 2})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Validated document", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "validate-document", ctx["taskType"])
	assert.Equal(t, "loan-001", ctx["loanId"])
	assert.EqualValues(t, 2, ctx["issues"])
}

func TestZapWrapper_WithError(t *testing.T) {
	log, logs := observed(zapcore.DebugLevel)

	log.WithError(errors.New("CONDITION_NOT_FOUND")).Warn("clear failed", nil)
	log.Error("index failed", map[string]interface{}{"error": errors.New("es down")})

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "CONDITION_NOT_FOUND", logs.All()[0].ContextMap()["error"])
	assert.Equal(t, "es down", logs.All()[1].ContextMap()["error"])
}

func TestZapWrapper_LevelFiltering(t *testing.T) {
	log, logs := observed(zapcore.WarnLevel)

	log.Debug("debug", nil)
	log.Info("info", nil)
	log.Warn("warn", nil)
	log.With(map[string]interface{}{"k": "v"}).Error("error", nil)

	assert.Equal(t, 2, logs.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew_Formats(t *testing.T) {
	assert.NotNil(t, New("info", "json", "stderr"))
	assert.NotNil(t, New("debug", "console", ""))
	assert.NotNil(t, NewNoOpLogger())
}
