package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	for name, cfg := range map[string]Config{
		"telemetry off": {Enabled: false, LogsEnabled: true},
		"logs off":      {Enabled: true, LogsEnabled: false},
	} {
		t.Run(name, func(t *testing.T) {
			lp, err := NewLoggerProvider(ctx, cfg, zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.False(t, lp.IsEnabled())
			assert.NoError(t, lp.Shutdown(ctx))
			assert.NoError(t, lp.Shutdown(ctx))
		})
	}
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), Config{}, nil)
	require.NoError(t, err)

	for _, core := range []zapcore.Core{
		NewZapOTELCore(nil, "invoice-test", zapcore.InfoLevel),
		NewZapOTELCore(lp, "invoice-test", zapcore.InfoLevel),
	} {
		assert.False(t, core.Enabled(zapcore.ErrorLevel))
	}
}

func TestNewZapOTELCore_Enabled(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	lp := &LoggerProvider{provider: provider, logger: zap.NewNop()}

	core := NewZapOTELCore(lp, "invoice-test", zapcore.WarnLevel)

	filtered, ok := core.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, filtered.minLevel)
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	log := zap.New(core)

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestLevelFilterCore_With(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	child := core.With([]zapcore.Field{zap.String("component", "dashboard")})
	filtered, ok := child.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, filtered.minLevel)

	log := zap.New(child)
	log.Info("dropped")
	log.Warn("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "dashboard", logs.All()[0].ContextMap()["component"])
}
