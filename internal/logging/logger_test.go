package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "json", Output: &buf})
	ctx := context.Background()

	logger.Debug(ctx, "hidden")
	assert.Empty(t, buf.String())

	logger.WithComponent("sidebar").With("route", "/guides").
		Warn(ctx, errors.New("boom"), "collision", "section", "Guides")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "collision", entry["msg"])
	assert.Equal(t, "sidebar", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "/guides", entry["route"])
	assert.Equal(t, "Guides", entry["section"])
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	ctx := context.Background()

	// nothing to observe; must not panic
	logger.Error(ctx, errors.New("x"), "dropped")
	logger.With("a", 1).WithComponent("c").Info(ctx, "dropped")
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Output: &buf})
	logger.Debug(context.Background(), "hello", "key", "value", "dangling")

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "key=value")
	assert.False(t, strings.Contains(out, "dangling"))
}

func TestPerfLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Output: &buf})

	op := logger.StartOperation("generate")
	op.EndWithError(context.Background(), errors.New("failed"))

	out := buf.String()
	assert.Contains(t, out, "operation=generate")
	assert.Contains(t, out, "duration_ms=")
	assert.Contains(t, out, "error=failed")
}
