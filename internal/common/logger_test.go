package common

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, slog.LevelInfo, "json")
		require.NoError(t, err)

		ComponentLogger(logger, "coach").Info("routed question", "intent", "finance")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "routed question", entry["msg"])
		assert.Equal(t, "coach", entry["component"])
		assert.Equal(t, "finance", entry["intent"])
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, slog.LevelWarn, "console")
		require.NoError(t, err)

		logger.Debug("hidden")
		logger.Info("hidden too")
		assert.Empty(t, buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := NewLogger(&bytes.Buffer{}, slog.LevelInfo, "xml")
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestContainsWord(t *testing.T) {
	assert.True(t, ContainsWord("what does a latte cost?", "cost"))
	assert.False(t, ContainsWord("costco run", "cost"))
	assert.True(t, ContainsWord("How Much did I spend", "how much"))
	assert.True(t, ContainsWord("rice", "rice"))
	assert.False(t, ContainsWord("licorice", "rice"))
	assert.True(t, ContainsWord("is c++ (the item) here", "c++"))
	assert.False(t, ContainsWord("anything", ""))
}
