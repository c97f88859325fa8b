package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogDir_ContainsSymbolgraphLogs(t *testing.T) {
	dir := DefaultLogDir()
	assert.NotEmpty(t, dir)
	assert.True(t, strings.Contains(dir, ".symbolgraph") && strings.Contains(dir, "logs"))
}

func TestDefaultLogPath_EndsWithSymbolgraphLog(t *testing.T) {
	assert.Equal(t, "symbolgraph.log", filepath.Base(DefaultLogPath()))
}

func TestDefaultConfig_HasSensibleDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 5, cfg.MaxFiles)
	assert.True(t, cfg.WriteToStderr)
}

func TestDebugConfig_RaisesLevelOnly(t *testing.T) {
	cfg := DebugConfig()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, DefaultConfig().MaxSizeMB, cfg.MaxSizeMB)
}

func TestSetup_WritesJSONLogLine(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, cleanup, err := Setup(Config{
		Level:         "debug",
		FilePath:      logPath,
		MaxSizeMB:     1,
		MaxFiles:      3,
		WriteToStderr: false,
	})
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, logger)

	logger.Info("test message")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"test message"`)
}

func TestParseLevel_AllLevelsAndUnknownDefault(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"DEBUG", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"ERROR", "ERROR"},
		{"unknown", "INFO"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, parseLevel(tc.input).String(), tc.input)
	}
}

func TestEnsureLogDir_CreatesDirectory(t *testing.T) {
	require.NoError(t, EnsureLogDir())
	info, err := os.Stat(DefaultLogDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRotatingWriter_ImmediateSyncIsVisibleWithoutClose(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)
	defer w.Close()

	data := []byte(`{"time":"2026-01-01T00:00:00Z","level":"INFO","msg":"test"}` + "\n")
	n, err := w.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, data, content)
}

func TestRotatingWriter_DisableImmediateSyncStillPersistsAfterManualSync(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)
	defer w.Close()

	w.SetImmediateSync(false)

	data := []byte("buffered line\n")
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, data, content)
}

func TestRotatingWriter_RotatesPastMaxSize(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rotate.log")

	w, err := NewRotatingWriter(logPath, 0, 3) // maxSize 0 rotates on any write
	require.NoError(t, err)
	defer w.Close()

	large := make([]byte, 2048)
	for i := range large {
		large[i] = 'x'
	}

	_, err = w.Write(large)
	require.NoError(t, err)
	_, err = w.Write(large)
	require.NoError(t, err)

	assert.FileExists(t, logPath)
	assert.FileExists(t, logPath+".1")
}

func TestRotatingWriter_DropsGenerationsBeyondMaxFiles(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "maxfiles.log")

	w, err := NewRotatingWriter(logPath, 0, 2)
	require.NoError(t, err)
	defer w.Close()

	large := make([]byte, 1024)
	for i := 0; i < 5; i++ {
		_, _ = w.Write(large)
	}

	_, err = os.Stat(logPath + ".3")
	assert.True(t, os.IsNotExist(err), "rotated file .3 should not survive beyond maxFiles")
}

func TestRotatingWriter_CloseAndSync(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "close.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)

	_, err = w.Write([]byte("test data\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
}

func TestRotatingWriter_ConcurrentWritesDontRace(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")

	w, err := NewRotatingWriter(logPath, 10, 3)
	require.NoError(t, err)
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = w.Write([]byte(fmt.Sprintf(`{"id":%d,"iter":%d}`, id, j) + "\n"))
			}
		}(i)
	}
	wg.Wait()

	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
