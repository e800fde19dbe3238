package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RASEED_TEST_DIR", "/tmp/raseed")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "tilde only", input: "~", want: home},
		{name: "tilde prefix", input: "~/data/raseed.db", want: filepath.Join(home, "data/raseed.db")},
		{name: "env var", input: "$RASEED_TEST_DIR/raseed.db", want: "/tmp/raseed/raseed.db"},
		{name: "absolute", input: "/var/lib/raseed.db", want: "/var/lib/raseed.db"},
		{name: "tilde in middle untouched", input: "/data/~/x", want: "/data/~/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}

func TestPathOrDefault(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/custom/db.sqlite", PathOrDefault("/custom/db.sqlite", DefaultDatabasePath))
	assert.Equal(t, "/home/tester/.local/share/raseed/raseed.db", PathOrDefault("  ", DefaultDatabasePath))
}
