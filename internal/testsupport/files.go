package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sieve/internal/asset"
)

// WriteSamplesFile writes samples as raw little-endian float32 PCM to path,
// creating parent directories as needed.
func WriteSamplesFile(t testing.TB, path string, samples []float32) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "mkdir for %s", path)
	require.NoError(t, os.WriteFile(path, asset.EncodeSamples(samples), 0o644), "write %s", path)
}

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "mkdir for %s", path)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "write %s", path)
}
