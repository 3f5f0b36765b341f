package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sieve/internal/config"
	"sieve/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func decodeRecord(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	return record
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	require.NoError(t, err)
	logger.Debug("debug message")

	assert.Contains(t, readLog(t, filepath.Join(cfg.Paths.LogDir, "sieve.log")), "debug message")
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	require.NoError(t, err)
	logging.NewComponentLogger(logger, "ownership").Info("classified", logging.Int("anchors", 3))

	line := readLog(t, logPath)
	assert.NotContains(t, line, ".go:", "info logs carry no caller")
	assert.Contains(t, line, "ownership: classified anchors=3")
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	require.NoError(t, err)
	logger.Info("message with caller")

	assert.Contains(t, readLog(t, logPath), ".go:")
}

func TestJSONLoggerShape(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	require.NoError(t, err)
	logger.Warn("json message", logging.String("k", "v"))

	record := decodeRecord(t, []byte(readLog(t, logPath)))
	assert.Equal(t, "warn", record["level"])
	assert.Contains(t, record, "ts")
	assert.Equal(t, "v", record["k"])
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	assert.Error(t, err)
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "cycle", "dependency_cycle", logging.String(logging.FieldImpact, "edge skipped"))

	record := decodeRecord(t, buf.Bytes())
	assert.Equal(t, "dependency_cycle", record[logging.FieldEventType])
	assert.NotNil(t, record[logging.FieldErrorHint])
	assert.Equal(t, "edge skipped", record[logging.FieldImpact], "impact is not overridden")
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logging.WithAnalysis(context.Background(), "ownership")
	ctx = logging.WithRunID(ctx, "run-1")
	logging.WithContext(ctx, logger).Info("contextual log")

	record := decodeRecord(t, buf.Bytes())
	assert.Equal(t, "ownership", record[logging.FieldAnalysis])
	assert.Equal(t, "run-1", record[logging.FieldRunID])
}

func TestNopLoggerDiscards(t *testing.T) {
	assert.False(t, logging.NewNop().Enabled(context.Background(), slog.LevelError))
}

func TestConsoleLoggerPrefixAndGroups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-groups.log")
	logger, err := logging.New(logging.Options{Level: "info", OutputPaths: []string{logPath}})
	require.NoError(t, err)
	logger = logging.NewComponentLogger(logger, "dedup").With(logging.Analysis("audio_duplicates"))
	logger.WithGroup("bucket").Info("scanned", logging.EntityID("sfx/a"), logging.String("note", "two words"))

	line := readLog(t, logPath)
	assert.Contains(t, line, "INFO  [audio_duplicates] dedup: scanned")
	assert.Contains(t, line, `bucket.entity_id=sfx/a bucket.note="two words"`)
}

func TestParseLevelAcceptsWarning(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Level: "WARNING", Format: "json", OutputPaths: []string{logPath}})
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo), "info is disabled at warning level")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn), "warn is enabled at warning level")
}
