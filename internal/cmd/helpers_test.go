package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harrison/funnelcheck/internal/browser"
	"github.com/harrison/funnelcheck/internal/browser/browsertest"
)

const (
	testTargetURL  = "https://shop.example.com/product"
	testPaymentURL = "https://simpleswap.io/exchange?id=abc123"
	addToCart      = `button:has-text("Add to Cart")`
	touchTargets   = `button, a.button, .cta-button, input[type="submit"]`
)

// storePage passes both tests: the funnel redirects to the payment
// provider and the page has no visual defects.
func storePage() *browsertest.Page {
	page := browsertest.NewPage("about:blank")

	page.Add("button.size", &browsertest.Element{Tag: "button"})
	page.Add(".popup", &browsertest.Element{Tag: "div", Hidden: true})
	page.Add("button.cta", &browsertest.Element{Tag: "button", OnClick: func(p *browsertest.Page) {
		p.Show(".popup")
	}})
	page.Add("button.decline", &browsertest.Element{Tag: "button", OnClick: func(p *browsertest.Page) {
		p.CurrentURL = testPaymentURL
	}})

	page.Body = strings.Repeat("Handcrafted linen blazer. ", 10)
	page.DocMetrics = browser.DocumentMetrics{ScrollWidth: 390, ClientWidth: 390}
	page.MetricsByViewport = map[string]browser.DocumentMetrics{
		"desktop": {ScrollWidth: 1920, ClientWidth: 1920},
	}
	for i, alt := range []string{"Front", "Back", "Detail"} {
		page.Add("img", &browsertest.Element{Tag: "IMG", Natural: 600, Attrs: map[string]string{
			"src": fmt.Sprintf("/img/%d.jpg", i), "alt": alt,
		}})
	}
	page.Add(touchTargets, &browsertest.Element{Tag: "BUTTON", Box: &browser.Box{Width: 120, Height: 48}})
	page.Add(addToCart, &browsertest.Element{Tag: "BUTTON", Box: &browser.Box{Y: 600, Width: 300, Height: 50}})
	return page
}

// fakeLauncher hands out a fresh scripted page per session.
type fakeLauncher struct {
	build func() *browsertest.Page
	err   error

	mu       sync.Mutex
	launched int
	released int
	opts     []browser.Options
}

func (l *fakeLauncher) counts() (launched, released int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launched, l.released
}

func useLauncher(t *testing.T, l *fakeLauncher) {
	t.Helper()
	orig := launchBrowser
	launchBrowser = func(ctx context.Context, opts browser.Options) (browser.Page, func(), error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.launched++
		l.opts = append(l.opts, opts)
		if l.err != nil {
			return nil, nil, l.err
		}
		release := func() {
			l.mu.Lock()
			l.released++
			l.mu.Unlock()
		}
		return l.build(), release, nil
	}
	t.Cleanup(func() { launchBrowser = orig })
}

type testConfig struct {
	flowExit bool
	uiExit   bool
}

// testEnv is a config file plus the directories it points at.
type testEnv struct {
	dir        string
	configPath string
}

func (e testEnv) logDir() string      { return filepath.Join(e.dir, "logs") }
func (e testEnv) artifactDir() string { return filepath.Join(e.dir, "artifacts") }
func (e testEnv) historyDB() string   { return filepath.Join(e.dir, "history.db") }

func newTestEnv(t *testing.T, tc testConfig) testEnv {
	t.Helper()
	env := testEnv{dir: t.TempDir()}
	env.configPath = filepath.Join(env.dir, "config.yaml")

	content := fmt.Sprintf(`target_url: %s
log_dir: %q
artifact_dir: %q
history_db: %q
purchase_flow:
  exit_on_failure: %t
  size_selectors: ["button.size"]
  cta_selectors: ["button.cta"]
  popup_selectors: [".popup"]
  decline_selectors: ["button.decline"]
ui_quality:
  exit_on_failure: %t
  cta_selectors: ['%s']
`, testTargetURL, env.logDir(), env.artifactDir(), env.historyDB(), tc.flowExit, tc.uiExit, addToCart)

	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0644))
	return env
}

// execute runs the root command with args and captures both streams.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}
