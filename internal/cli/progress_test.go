package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgressBar(t *testing.T) {
	var out bytes.Buffer
	bar := NewProgressBar(&out, 2, "Scanning receipts...")

	require.NoError(t, bar.Add(1))
	require.NoError(t, bar.Add(1))

	assert.True(t, bar.IsFinished())
	assert.Contains(t, out.String(), "Scanning receipts...")
	assert.Contains(t, out.String(), "2/2")
}
