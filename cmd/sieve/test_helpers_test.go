package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"

	"sieve/internal/config"
	"sieve/internal/testsupport"
)

type cliTestEnv struct {
	cfg          *config.Config
	configPath   string
	manifestPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	require.NoError(t, os.MkdirAll(homeDir, 0o755))
	t.Setenv("HOME", homeDir)
	t.Setenv("SIEVE_CONTENT_DB", "")
	t.Setenv("SIEVE_LOG_LEVEL", "")

	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(base, "sieve.toml")
	writeTestConfig(t, configPath, cfg)

	manifestPath := filepath.Join(base, "project.yaml")
	testsupport.WriteFile(t, manifestPath, testsupport.ProjectManifest)

	return &cliTestEnv{cfg: cfg, configPath: configPath, manifestPath: manifestPath}
}

// setupImportedEnv returns an environment whose content database holds the
// shared test project.
func setupImportedEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"import", env.manifestPath}, env.configPath)
	require.NoError(t, err, "import")
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRunCLI runs args and fails the test on error.
func mustRunCLI(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, configPath)
	require.NoError(t, err, "sieve %v\n%s", args, stderr)
	return out
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
