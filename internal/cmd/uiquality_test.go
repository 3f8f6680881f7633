package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/funnelcheck/internal/browser/browsertest"
	"github.com/harrison/funnelcheck/internal/history"
	"github.com/harrison/funnelcheck/internal/models"
)

func pageWithBrokenImage() *browsertest.Page {
	page := storePage()
	page.Add("img", &browsertest.Element{Tag: "IMG", Attrs: map[string]string{"src": "/img/missing.jpg"}})
	return page
}

func TestUIQualityCommand_PassesWithSummary(t *testing.T) {
	l := &fakeLauncher{build: storePage}
	useLauncher(t, l)
	env := newTestEnv(t, testConfig{uiExit: true})

	stdout, stderr, err := execute(t, "ui-quality", "--config", env.configPath, "--summary")
	require.NoError(t, err)

	got := decode(t, stdout)
	assert.Equal(t, models.TestUIQuality, got["test"])
	assert.Equal(t, true, got["passed"])
	assert.Equal(t, float64(3), got["images_total"])
	assert.Equal(t, true, got["mobile_viewport_ok"])
	assert.Contains(t, stderr, "C - UI Quality: PASSED")

	store, err := history.Open(env.historyDB())
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.List(context.Background(), models.TestUIQuality, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	runDir := filepath.Join(env.artifactDir(), runs[0].RunID)
	for _, name := range []string{"desktop.png", "mobile.png", "ui-quality-summary.md", "ui-quality-summary.html"} {
		assert.FileExists(t, filepath.Join(runDir, name))
	}

	md, err := os.ReadFile(filepath.Join(runDir, "ui-quality-summary.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), runs[0].RunID)

	_, released := l.counts()
	assert.Equal(t, 1, released)
}

func TestUIQualityCommand_ExitToggle(t *testing.T) {
	tests := []struct {
		name     string
		cfg      testConfig
		args     []string
		wantExit bool
	}{
		{"config on", testConfig{uiExit: true}, nil, true},
		{"config off", testConfig{}, nil, false},
		{"flag off overrides config", testConfig{uiExit: true}, []string{"--exit-on-failure=false"}, false},
		{"flag on overrides config", testConfig{}, []string{"--exit-on-failure"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useLauncher(t, &fakeLauncher{build: pageWithBrokenImage})
			env := newTestEnv(t, tt.cfg)

			args := append([]string{"ui-quality", "--config", env.configPath}, tt.args...)
			stdout, _, err := execute(t, args...)

			got := decode(t, stdout)
			assert.Equal(t, false, got["passed"])
			broken, ok := got["broken_images"].([]any)
			require.True(t, ok)
			assert.Len(t, broken, 1)

			if tt.wantExit {
				var exitErr *ExitError
				require.True(t, errors.As(err, &exitErr), "want ExitError, got %v", err)
				assert.Equal(t, 1, exitErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUIQualityCommand_SessionFailure(t *testing.T) {
	useLauncher(t, &fakeLauncher{err: errors.New("chrome not found")})
	env := newTestEnv(t, testConfig{})

	stdout, _, err := execute(t, "ui-quality", "--config", env.configPath)
	require.NoError(t, err)

	got := decode(t, stdout)
	assert.Equal(t, false, got["passed"])
	assert.Equal(t, []any{"Test execution error: chrome not found"}, got["errors"])
}

func TestUIQualityCommand_UsesDesktopViewportFirst(t *testing.T) {
	var pages []*browsertest.Page
	useLauncher(t, &fakeLauncher{build: func() *browsertest.Page {
		p := storePage()
		pages = append(pages, p)
		return p
	}})
	env := newTestEnv(t, testConfig{})

	_, _, err := execute(t, "ui-quality", "--config", env.configPath)
	require.NoError(t, err)

	require.Len(t, pages, 1)
	require.NotEmpty(t, pages[0].Viewports)
	assert.Equal(t, "desktop", pages[0].Viewports[0].Name)
	assert.Equal(t, "mobile", pages[0].Viewports[len(pages[0].Viewports)-1].Name)
	assert.Equal(t, []string{testTargetURL}, pages[0].Navigations[:1])
}
