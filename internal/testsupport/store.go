package testsupport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sieve/internal/config"
	"sieve/internal/contentdb"
	"sieve/internal/logging"
)

// MustOpenStore opens a contentdb.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *contentdb.Store {
	t.Helper()

	store, err := contentdb.Open(cfg.Paths.ContentDB, logging.NewNop())
	require.NoError(t, err, "contentdb.Open")
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustImport decodes a YAML manifest and imports it into store.
func MustImport(t testing.TB, store *contentdb.Store, manifestYAML string) contentdb.ImportResult {
	t.Helper()

	manifest, err := contentdb.DecodeManifest(strings.NewReader(manifestYAML))
	require.NoError(t, err, "decode manifest")
	result, err := store.Import(context.Background(), manifest)
	require.NoError(t, err, "import manifest")
	return result
}
