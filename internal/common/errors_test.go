package common

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError(t *testing.T) {
	inner := errors.New("boom")
	err := NewUserError("Could not start", inner)

	assert.Equal(t, "Could not start: boom", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewUserError("Just a message", nil)
	assert.Equal(t, "Just a message", bare.Error())
}

func TestStage(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "panel", err: fmt.Errorf("login: %w", ErrPanelRequest), want: "panel"},
		{name: "transfer", err: fmt.Errorf("download: %w", ErrTransfer), want: "transfer"},
		{name: "parse", err: fmt.Errorf("csv: %w", ErrParse), want: "parse"},
		{name: "workspace", err: fmt.Errorf("mkdir: %w", ErrWorkspace), want: "workspace"},
		{name: "arguments", err: ErrInvalidArguments, want: "startup"},
		{name: "config", err: ErrInvalidConfig, want: "startup"},
		{name: "other", err: errors.New("mystery"), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stage(tt.err))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "invalid", input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)
	logger.Info("hello", "cycle", "abc")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"cycle":"abc"`)

	buf.Reset()
	logger, err = NewLogger(&buf, slog.LevelWarn, "console")
	require.NoError(t, err)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	_, err = NewLogger(&buf, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
