package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestOTelHandlerWritesToWrappedHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewOTelHandler(slog.NewJSONHandler(&buf, nil), "test")
	logger := slog.New(handler).With("component", "registry")

	logger.InfoContext(context.Background(), "Civilization created", "civilization_id", "c1", "members", 1)

	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), `"msg":"Civilization created"`)
	assert.Contains(t, buf.String(), `"component":"registry"`)
	assert.Contains(t, buf.String(), `"members":1`)
}

func TestTelemetryDisabledInstallsLogger(t *testing.T) {
	t.Setenv("ENABLE_TELEMETRY", "false")
	t.Setenv("LOG_LEVEL", "debug")

	tm := NewTelemetryManager()
	require.NoError(t, tm.Initialize(context.Background()))

	assert.NotNil(t, tm.Logger())
	assert.True(t, tm.Logger().Enabled(context.Background(), slog.LevelDebug))
	assert.NoError(t, tm.Shutdown(context.Background()))
}
