package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	now := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)

	f, err := openLogFile("test", dir, now)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, filepath.Join(dir, "test_2025-03-10_08-30-00.log"), f.Name())

	f2, err := openLogFile("", dir, now)
	require.NoError(t, err)
	defer f2.Close()
	assert.Equal(t, "default_2025-03-10_08-30-00.log", filepath.Base(f2.Name()))
}

func TestNewLogger_SplitsLevels(t *testing.T) {
	var console, file bytes.Buffer
	logger := newLogger(zapcore.AddSync(&console), zapcore.AddSync(&file))

	logger.Debug("looking up session", zap.String("session_id", "s-1"))
	logger.Info("session claimed", zap.String("session_id", "s-1"))
	require.NoError(t, logger.Sync())

	// Console only shows Info and above
	assert.NotContains(t, console.String(), "looking up session")
	assert.Contains(t, console.String(), "session claimed")

	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "session claimed", entry["msg"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestInitLogger(t *testing.T) {
	dir := t.TempDir()
	logger, err := InitLogger("test", dir)
	require.NoError(t, err)
	logger.Debug("hello")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "test_"))
}
