package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	var names []string
	for _, command := range rootCmd.Commands() {
		names = append(names, command.Name())
	}

	assert.Contains(t, names, "handle")
	assert.Contains(t, names, "backfill")
	assert.Contains(t, names, "daemon")
}

func TestReadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"detail":{}}`), 0o644))

	payload, err := readPayload(path)
	require.NoError(t, err)
	assert.Equal(t, `{"detail":{}}`, string(payload))

	_, err = readPayload(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
