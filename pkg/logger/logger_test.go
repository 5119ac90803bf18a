package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func parseLogs(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestGetLoggerWithNamesAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)
	defer SetTestLoggerNop()

	GetLoggerWith(NameEngine, zap.String("category", "alarm")).Info("alarm activated")
	GetLogger().Debug("dropped below level")

	logs := parseLogs(t, &buf)
	require.Len(t, logs, 1)
	assert.Equal(t, "engine", logs[0]["logger"])
	assert.Equal(t, "alarm", logs[0]["category"])
	assert.Equal(t, "alarm activated", logs[0]["msg"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, parseLevel("INFO"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("verbose"))
}

func TestInitWritesRotatingFile(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	dir := t.TempDir()
	require.NoError(t, Init(InfoLevel, dir))
	defer SetTestLoggerNop()

	GetLoggerWith(NameStore).Info("opened")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"opened"`)
}
