package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/funnelcheck/internal/browser"
	"github.com/harrison/funnelcheck/internal/models"
	"github.com/harrison/funnelcheck/internal/verdict"
)

// ViewportConfig is one viewport preset size in CSS pixels
type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ViewportsConfig holds the desktop and mobile presets
type ViewportsConfig struct {
	Desktop ViewportConfig `yaml:"desktop"`
	Mobile  ViewportConfig `yaml:"mobile"`
}

// PurchaseFlowConfig represents the purchase-flow test configuration
type PurchaseFlowConfig struct {
	// ExitOnFailure makes a failed verdict exit with code 1
	ExitOnFailure bool `yaml:"exit_on_failure"`

	// RedirectDomain is the payment provider the funnel must end on
	RedirectDomain string `yaml:"redirect_domain"`

	// Candidate selector catalogs, tried in order
	SizeSelectors    []string `yaml:"size_selectors"`
	CTASelectors     []string `yaml:"cta_selectors"`
	PopupSelectors   []string `yaml:"popup_selectors"`
	DeclineSelectors []string `yaml:"decline_selectors"`

	// LocateTimeout bounds each candidate selector
	LocateTimeout time.Duration `yaml:"locate_timeout"`

	// RetryTimeout bounds each candidate on the post-scroll retry pass
	RetryTimeout time.Duration `yaml:"retry_timeout"`

	// RedirectWait is how long to wait after declining the upsell
	RedirectWait time.Duration `yaml:"redirect_wait"`

	// Verdict is the pass rule over report flags
	Verdict verdict.Rule `yaml:"verdict"`
}

// UIQualityConfig represents the UI quality audit configuration
type UIQualityConfig struct {
	// ExitOnFailure makes a failed verdict exit with code 1
	ExitOnFailure bool `yaml:"exit_on_failure"`

	// ImageSettle is the wait for lazy-loaded images after navigation
	ImageSettle time.Duration `yaml:"image_settle"`

	TouchTargetSelector string   `yaml:"touch_target_selector"`
	CTASelectors        []string `yaml:"cta_selectors"`
	AccordionSelector   string   `yaml:"accordion_selector"`
	AccordionLimit      int      `yaml:"accordion_limit"`

	// MinTextLength is the minimum trimmed body text length
	MinTextLength int `yaml:"min_text_length"`
}

// Config represents funnelcheck configuration options
type Config struct {
	// TargetURL is the landing page under test
	TargetURL string `yaml:"target_url"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// ArtifactDir is the directory screenshots and summaries are written under
	ArtifactDir string `yaml:"artifact_dir"`

	// HistoryDB is the path to the run history database
	HistoryDB string `yaml:"history_db"`

	// Headless runs the browser without a window
	Headless bool `yaml:"headless"`

	// UserAgent overrides the browser user agent (empty = browser default)
	UserAgent string `yaml:"user_agent"`

	// NavigationTimeout bounds page loads
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`

	// SettleDelay is the pause for dynamic content after loads and clicks
	SettleDelay time.Duration `yaml:"settle_delay"`

	Viewports    ViewportsConfig    `yaml:"viewports"`
	PurchaseFlow PurchaseFlowConfig `yaml:"purchase_flow"`
	UIQuality    UIQualityConfig    `yaml:"ui_quality"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		TargetURL:         "https://seamlessblazer.netlify.app",
		LogLevel:          "info",
		LogDir:            ".funnelcheck/logs",
		ArtifactDir:       ".funnelcheck/artifacts",
		HistoryDB:         ".funnelcheck/history.db",
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		NavigationTimeout: 30 * time.Second,
		SettleDelay:       2 * time.Second,
		Viewports: ViewportsConfig{
			Desktop: ViewportConfig{Width: 1920, Height: 1080},
			Mobile:  ViewportConfig{Width: 390, Height: 844},
		},
		PurchaseFlow: PurchaseFlowConfig{
			ExitOnFailure:  false,
			RedirectDomain: "simpleswap.io",
			SizeSelectors: []string{
				"button.size-btn",
				"button[data-size]",
				".size-selector button",
				`button:has-text("M")`,
				`button:has-text("S")`,
			},
			CTASelectors: []string{
				"#primaryCTA",
				`button:has-text("GET MINE NOW")`,
				`button:has-text("$59")`,
				".cta-button",
				"button.primary-cta",
			},
			PopupSelectors: []string{
				"#orderBumpPopup",
				".popup-overlay",
				".order-bump-popup",
				`[class*="popup"]`,
				`[id*="popup"]`,
			},
			DeclineSelectors: []string{
				`button:has-text("No thanks")`,
				`button:has-text("just the pants")`,
				"#declineBtn",
				".decline-button",
				`button[onclick*="decline"]`,
				`a:has-text("No thanks")`,
			},
			LocateTimeout: 5 * time.Second,
			RetryTimeout:  3 * time.Second,
			RedirectWait:  5 * time.Second,
			Verdict:       verdict.PurchaseFlow,
		},
		UIQuality: UIQualityConfig{
			ExitOnFailure:       true,
			ImageSettle:         3 * time.Second,
			TouchTargetSelector: `button, a.button, .cta-button, input[type="submit"]`,
			CTASelectors: []string{
				`button:has-text("Add to Cart")`,
				`button:has-text("Buy")`,
				`a:has-text("Add to Cart")`,
				`a:has-text("Buy")`,
			},
			AccordionSelector: `[class*="accordion"], [class*="faq"]`,
			AccordionLimit:    3,
			MinTextLength:     100,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Use temporary structs to handle duration parsing and to tell an
	// explicit false apart from an absent key
	type yamlPurchaseFlow struct {
		ExitOnFailure    *bool    `yaml:"exit_on_failure"`
		RedirectDomain   string   `yaml:"redirect_domain"`
		SizeSelectors    []string `yaml:"size_selectors"`
		CTASelectors     []string `yaml:"cta_selectors"`
		PopupSelectors   []string `yaml:"popup_selectors"`
		DeclineSelectors []string `yaml:"decline_selectors"`
		LocateTimeout    string   `yaml:"locate_timeout"`
		RetryTimeout     string   `yaml:"retry_timeout"`
		RedirectWait     string   `yaml:"redirect_wait"`
	}
	type yamlUIQuality struct {
		ExitOnFailure       *bool    `yaml:"exit_on_failure"`
		ImageSettle         string   `yaml:"image_settle"`
		TouchTargetSelector string   `yaml:"touch_target_selector"`
		CTASelectors        []string `yaml:"cta_selectors"`
		AccordionSelector   *string  `yaml:"accordion_selector"`
		AccordionLimit      *int     `yaml:"accordion_limit"`
		MinTextLength       *int     `yaml:"min_text_length"`
	}
	type yamlConfig struct {
		TargetURL         string           `yaml:"target_url"`
		LogLevel          string           `yaml:"log_level"`
		LogDir            string           `yaml:"log_dir"`
		ArtifactDir       string           `yaml:"artifact_dir"`
		HistoryDB         string           `yaml:"history_db"`
		Headless          *bool            `yaml:"headless"`
		UserAgent         *string          `yaml:"user_agent"`
		NavigationTimeout string           `yaml:"navigation_timeout"`
		SettleDelay       string           `yaml:"settle_delay"`
		Viewports         ViewportsConfig  `yaml:"viewports"`
		PurchaseFlow      yamlPurchaseFlow `yaml:"purchase_flow"`
		UIQuality         yamlUIQuality    `yaml:"ui_quality"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.TargetURL != "" {
		cfg.TargetURL = yamlCfg.TargetURL
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.ArtifactDir != "" {
		cfg.ArtifactDir = yamlCfg.ArtifactDir
	}
	if yamlCfg.HistoryDB != "" {
		cfg.HistoryDB = yamlCfg.HistoryDB
	}
	if yamlCfg.Headless != nil {
		cfg.Headless = *yamlCfg.Headless
	}
	if yamlCfg.UserAgent != nil {
		cfg.UserAgent = *yamlCfg.UserAgent
	}
	if err := parseDuration("navigation_timeout", yamlCfg.NavigationTimeout, &cfg.NavigationTimeout); err != nil {
		return nil, err
	}
	if err := parseDuration("settle_delay", yamlCfg.SettleDelay, &cfg.SettleDelay); err != nil {
		return nil, err
	}
	mergeViewport(&cfg.Viewports.Desktop, yamlCfg.Viewports.Desktop)
	mergeViewport(&cfg.Viewports.Mobile, yamlCfg.Viewports.Mobile)

	pf := yamlCfg.PurchaseFlow
	if pf.ExitOnFailure != nil {
		cfg.PurchaseFlow.ExitOnFailure = *pf.ExitOnFailure
	}
	if pf.RedirectDomain != "" {
		cfg.PurchaseFlow.RedirectDomain = pf.RedirectDomain
	}
	mergeSelectors(&cfg.PurchaseFlow.SizeSelectors, pf.SizeSelectors)
	mergeSelectors(&cfg.PurchaseFlow.CTASelectors, pf.CTASelectors)
	mergeSelectors(&cfg.PurchaseFlow.PopupSelectors, pf.PopupSelectors)
	mergeSelectors(&cfg.PurchaseFlow.DeclineSelectors, pf.DeclineSelectors)
	if err := parseDuration("purchase_flow.locate_timeout", pf.LocateTimeout, &cfg.PurchaseFlow.LocateTimeout); err != nil {
		return nil, err
	}
	if err := parseDuration("purchase_flow.retry_timeout", pf.RetryTimeout, &cfg.PurchaseFlow.RetryTimeout); err != nil {
		return nil, err
	}
	if err := parseDuration("purchase_flow.redirect_wait", pf.RedirectWait, &cfg.PurchaseFlow.RedirectWait); err != nil {
		return nil, err
	}

	ui := yamlCfg.UIQuality
	if ui.ExitOnFailure != nil {
		cfg.UIQuality.ExitOnFailure = *ui.ExitOnFailure
	}
	if err := parseDuration("ui_quality.image_settle", ui.ImageSettle, &cfg.UIQuality.ImageSettle); err != nil {
		return nil, err
	}
	if ui.TouchTargetSelector != "" {
		cfg.UIQuality.TouchTargetSelector = ui.TouchTargetSelector
	}
	mergeSelectors(&cfg.UIQuality.CTASelectors, ui.CTASelectors)
	if ui.AccordionSelector != nil {
		cfg.UIQuality.AccordionSelector = *ui.AccordionSelector
	}
	if ui.AccordionLimit != nil {
		cfg.UIQuality.AccordionLimit = *ui.AccordionLimit
	}
	if ui.MinTextLength != nil {
		cfg.UIQuality.MinTextLength = *ui.MinTextLength
	}

	// A verdict section replaces the default rule as a whole, so detect its
	// presence rather than merging field by field
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, ok := rawMap["purchase_flow"].(map[string]interface{}); ok {
			if _, exists := section["verdict"]; exists {
				var wrapper struct {
					PurchaseFlow struct {
						Verdict verdict.Rule `yaml:"verdict"`
					} `yaml:"purchase_flow"`
				}
				if err := yaml.Unmarshal(data, &wrapper); err != nil {
					return nil, fmt.Errorf("failed to parse purchase_flow.verdict: %w", err)
				}
				cfg.PurchaseFlow.Verdict = wrapper.PurchaseFlow.Verdict
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .funnelcheck/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".funnelcheck", "config.yaml"))
}

func parseDuration(key, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s format %q: %w", key, value, err)
	}
	*dst = d
	return nil
}

func mergeViewport(dst *ViewportConfig, src ViewportConfig) {
	if src.Width != 0 {
		dst.Width = src.Width
	}
	if src.Height != 0 {
		dst.Height = src.Height
	}
}

func mergeSelectors(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(targetURL *string, logDir *string, headless *bool, flowExitOnFailure *bool, uiExitOnFailure *bool) {
	if targetURL != nil {
		c.TargetURL = *targetURL
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if headless != nil {
		c.Headless = *headless
	}
	if flowExitOnFailure != nil {
		c.PurchaseFlow.ExitOnFailure = *flowExitOnFailure
	}
	if uiExitOnFailure != nil {
		c.UIQuality.ExitOnFailure = *uiExitOnFailure
	}
}

// DesktopViewport returns the desktop preset as a named viewport
func (c *Config) DesktopViewport() browser.Viewport {
	return browser.Viewport{Name: "desktop", Width: c.Viewports.Desktop.Width, Height: c.Viewports.Desktop.Height}
}

// MobileViewport returns the mobile preset as a named viewport
func (c *Config) MobileViewport() browser.Viewport {
	return browser.Viewport{Name: "mobile", Width: c.Viewports.Mobile.Width, Height: c.Viewports.Mobile.Height}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	u, err := url.Parse(c.TargetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("target_url must be an absolute http(s) URL, got %q", c.TargetURL)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	durations := []struct {
		key string
		d   time.Duration
	}{
		{"navigation_timeout", c.NavigationTimeout},
		{"purchase_flow.locate_timeout", c.PurchaseFlow.LocateTimeout},
		{"purchase_flow.retry_timeout", c.PurchaseFlow.RetryTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", d.key, d.d)
		}
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must be >= 0, got %v", c.SettleDelay)
	}
	if c.PurchaseFlow.RedirectWait < 0 {
		return fmt.Errorf("purchase_flow.redirect_wait must be >= 0, got %v", c.PurchaseFlow.RedirectWait)
	}
	if c.UIQuality.ImageSettle < 0 {
		return fmt.Errorf("ui_quality.image_settle must be >= 0, got %v", c.UIQuality.ImageSettle)
	}

	for name, vp := range map[string]ViewportConfig{"desktop": c.Viewports.Desktop, "mobile": c.Viewports.Mobile} {
		if vp.Width <= 0 || vp.Height <= 0 {
			return fmt.Errorf("viewports.%s must have positive width and height, got %dx%d", name, vp.Width, vp.Height)
		}
	}

	if c.PurchaseFlow.RedirectDomain == "" {
		return fmt.Errorf("purchase_flow.redirect_domain cannot be empty")
	}
	catalogs := []struct {
		key       string
		selectors []string
	}{
		{"purchase_flow.size_selectors", c.PurchaseFlow.SizeSelectors},
		{"purchase_flow.cta_selectors", c.PurchaseFlow.CTASelectors},
		{"purchase_flow.popup_selectors", c.PurchaseFlow.PopupSelectors},
		{"purchase_flow.decline_selectors", c.PurchaseFlow.DeclineSelectors},
		{"ui_quality.cta_selectors", c.UIQuality.CTASelectors},
	}
	for _, cat := range catalogs {
		if len(cat.selectors) == 0 {
			return fmt.Errorf("%s cannot be empty", cat.key)
		}
		for i, sel := range cat.selectors {
			if err := browser.ValidateSelector(sel); err != nil {
				return fmt.Errorf("%s[%d]: %w", cat.key, i, err)
			}
		}
	}
	if err := browser.ValidateSelector(c.UIQuality.TouchTargetSelector); err != nil {
		return fmt.Errorf("ui_quality.touch_target_selector: %w", err)
	}
	if c.UIQuality.AccordionSelector != "" {
		if err := browser.ValidateSelector(c.UIQuality.AccordionSelector); err != nil {
			return fmt.Errorf("ui_quality.accordion_selector: %w", err)
		}
	}
	if c.UIQuality.AccordionLimit < 0 {
		return fmt.Errorf("ui_quality.accordion_limit must be >= 0, got %d", c.UIQuality.AccordionLimit)
	}
	if c.UIQuality.MinTextLength < 0 {
		return fmt.Errorf("ui_quality.min_text_length must be >= 0, got %d", c.UIQuality.MinTextLength)
	}

	if err := c.PurchaseFlow.Verdict.Validate(models.IsFlowFlag); err != nil {
		return fmt.Errorf("purchase_flow.verdict: %w", err)
	}

	return nil
}
