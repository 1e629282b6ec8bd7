package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/progrium/synapse-go/internal/config"
)

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "synapse.log")
	log, err := New(config.LogConfig{
		Level:   "info",
		Format:  "json",
		Outputs: []string{path},
	})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("channel created")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"channel created"`)
	require.NotContains(t, string(data), "hidden")
}

func TestRotatedOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotated.log")
	log, err := New(config.LogConfig{
		Level:   "debug",
		Outputs: []string{path},
		Rotation: config.RotationConfig{
			Enable:    true,
			MaxSizeMB: 1,
		},
	})
	require.NoError(t, err)
	log.Debug("peer joined")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "peer joined")
}

func TestBadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Outputs: []string{"stderr"}})
	require.Error(t, err)
}
