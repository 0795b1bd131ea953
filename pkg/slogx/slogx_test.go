package slogx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWriter(t *testing.T) {
	t.Run("json by default with app attribute", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriter(&buf, Config{App: "smartapp"})
		logger.Info("token refreshed", "server_url", "https://ehr.example.com")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		require.Equal(t, "smartapp", record["app"])
		require.Equal(t, "token refreshed", record["msg"])
		require.Equal(t, "https://ehr.example.com", record["server_url"])
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriter(&buf, Config{Format: "text"})
		logger.Info("hello")
		require.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriter(&buf, Config{Level: "warn"})
		logger.Info("dropped")
		logger.Warn("kept")
		require.NotContains(t, buf.String(), "dropped")
		require.Contains(t, buf.String(), "kept")
	})
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("debug"))
	require.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestContext(t *testing.T) {
	base := Discard()
	ctx := WithContext(context.Background(), base)
	require.Same(t, base, FromContext(ctx))

	// An unadorned context falls back to the default logger.
	require.NotNil(t, FromContext(context.Background()))
}
