package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRunLog(t *testing.T, fl *FileLogger) string {
	t.Helper()
	require.NoError(t, fl.Close())
	data, err := os.ReadFile(fl.RunFile())
	require.NoError(t, err)
	return string(data)
}

// TestFileLoggerCreatesLayout verifies the directory, run log and symlink
func TestFileLoggerCreatesLayout(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	fl, err := NewFileLogger(logDir, "info")
	require.NoError(t, err)
	defer fl.Close()

	assert.DirExists(t, filepath.Join(logDir, "reports"))
	assert.True(t, strings.HasPrefix(filepath.Base(fl.RunFile()), "run-"))

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(fl.RunFile()), target)
}

func TestFileLoggerReplacesSymlink(t *testing.T) {
	logDir := t.TempDir()
	require.NoError(t, os.Symlink("stale.log", filepath.Join(logDir, "latest.log")))

	fl, err := NewFileLogger(logDir, "info")
	require.NoError(t, err)
	defer fl.Close()

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	require.NoError(t, err)
	assert.NotEqual(t, "stale.log", target)
}

func TestFileLoggerContent(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir(), "info")
	require.NoError(t, err)

	fl.LogDebug("hidden")
	fl.LogInfo("Browser session ready")
	fl.LogStepStart(1, 9, "Load page")
	fl.LogStepResult(1, 9, "Load page", true, true)
	fl.LogStepResult(7, 9, "Wait for upsell popup", false, false)
	fl.LogVerdict("A - $59 Direct Flow", true, 1500*time.Millisecond)

	content := readRunLog(t, fl)
	assert.Contains(t, content, "=== funnelcheck Run Log ===")
	assert.NotContains(t, content, "hidden")
	assert.NotContains(t, content, "Step 1/9: Load page")
	assert.Contains(t, content, "[INFO] Browser session ready")
	assert.Contains(t, content, "Step 1/9 Load page (mandatory): ok")
	assert.Contains(t, content, "Step 7/9 Wait for upsell popup (soft): soft-fail")
	assert.Contains(t, content, "Verdict:    PASSED")
	assert.Contains(t, content, "Total time: 1.5s")
}

func TestFileLoggerWriteReport(t *testing.T) {
	logDir := t.TempDir()
	fl, err := NewFileLogger(logDir, "info")
	require.NoError(t, err)
	defer fl.Close()

	require.NoError(t, fl.WriteReport("A - $59 Direct Flow", []byte(`{"passed":true}`)))

	data, err := os.ReadFile(filepath.Join(logDir, "reports", "a-59-direct-flow.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"passed":true}`, string(data))
}

func TestFileLoggerCloseTwice(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir(), "info")
	require.NoError(t, err)

	require.NoError(t, fl.Close())
	assert.NoError(t, fl.Close())
	fl.LogInfo("after close is dropped")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "a-59-direct-flow", slug("A - $59 Direct Flow"))
	assert.Equal(t, "c-ui-quality", slug("C - UI Quality"))
	assert.Equal(t, "x", slug("--x--"))
}
