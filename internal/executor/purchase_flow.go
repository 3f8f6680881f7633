package executor

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/harrison/funnelcheck/internal/browser"
	"github.com/harrison/funnelcheck/internal/models"
	"github.com/harrison/funnelcheck/internal/resolver"
	"github.com/harrison/funnelcheck/internal/verdict"
)

// Short pauses that let scroll and click effects render.
const (
	scrollSettle = 500 * time.Millisecond
	pageSettle   = time.Second
	stepSlack    = 5 * time.Second
)

// FlowConfig is everything the purchase flow needs from configuration.
type FlowConfig struct {
	TargetURL      string
	RedirectDomain string

	NavigationTimeout time.Duration
	SettleDelay       time.Duration // After load and after the primary CTA click
	RedirectWait      time.Duration // After the decline click
	LocateTimeout     time.Duration // Per candidate
	RetryTimeout      time.Duration // Per candidate, post-recovery pass

	SizeSelectors    []string
	CTASelectors     []string
	PopupSelectors   []string
	DeclineSelectors []string

	Rule verdict.Rule
}

// PurchaseFlow verifies product page -> upsell prompt -> payment redirect.
// Steps share the elements located by earlier steps, so a flow value is
// single-use.
type PurchaseFlow struct {
	page   browser.Page
	cfg    FlowConfig
	logger Logger

	sizeButton browser.Element
	ctaButton  browser.Element
}

// NewPurchaseFlow creates a flow bound to one page.
func NewPurchaseFlow(page browser.Page, cfg FlowConfig, logger Logger) *PurchaseFlow {
	if logger == nil {
		logger = nopLogger{}
	}
	return &PurchaseFlow{page: page, cfg: cfg, logger: logger}
}

// Run executes the funnel, derives the verdict once and returns the
// finalized report by value.
func (f *PurchaseFlow) Run(ctx context.Context) models.FlowReport {
	report := models.NewFlowReport(models.TestPurchaseFlow)
	report.AddDetail("Browser session ready")

	NewRunner(f.logger, f.Steps()...).Run(ctx, report)

	passed := verdict.Decide(report, f.cfg.Rule)
	if passed {
		report.AddDetail("TEST PASSED")
	} else {
		report.AddDetail("TEST FAILED")
	}
	// The report is local to this call, so this is its first and only verdict.
	_ = report.Finalize(passed)
	return report.Clone()
}

// Steps returns the funnel in execution order.
func (f *PurchaseFlow) Steps() []Step {
	sizeBudget := budget(len(f.cfg.SizeSelectors), f.cfg.LocateTimeout) + budget(len(f.cfg.SizeSelectors), f.cfg.RetryTimeout)
	return []Step{
		{Name: "Load page", Mandatory: true, Flag: models.FlagPageLoaded,
			Timeout: f.cfg.NavigationTimeout + f.cfg.SettleDelay + stepSlack, Action: f.loadPage},
		{Name: "Locate size selector", Mandatory: true,
			Timeout: sizeBudget, Action: f.locateSize},
		{Name: "Select size", Mandatory: true, Flag: models.FlagSizeSelected,
			Timeout: stepSlack + pageSettle, Action: f.selectSize},
		{Name: "Scroll to top", Mandatory: false,
			Timeout: stepSlack, Action: f.scrollToTop},
		{Name: "Locate primary CTA", Mandatory: true,
			Timeout: budget(len(f.cfg.CTASelectors), f.cfg.LocateTimeout), Action: f.locateCTA},
		{Name: "Click primary CTA", Mandatory: true, Flag: models.FlagPrimaryCTAClicked,
			Timeout: stepSlack + f.cfg.SettleDelay, Action: f.clickCTA},
		{Name: "Wait for upsell popup", Mandatory: false, Flag: models.FlagPopupAppeared,
			Timeout: budget(len(f.cfg.PopupSelectors), f.cfg.LocateTimeout), Action: f.waitForPopup},
		{Name: "Decline upsell", Mandatory: false, Flag: models.FlagDeclineClicked,
			Timeout: budget(len(f.cfg.DeclineSelectors), f.cfg.LocateTimeout) + f.cfg.RedirectWait, Action: f.decline},
		{Name: "Verify redirect", Mandatory: true, Flag: models.FlagRedirected,
			Timeout: stepSlack + f.cfg.SettleDelay, Action: f.verifyRedirect},
	}
}

func budget(candidates int, per time.Duration) time.Duration {
	return time.Duration(candidates)*per + stepSlack
}

func (f *PurchaseFlow) loadPage(ctx context.Context, report *models.FlowReport) Outcome {
	const step = "Load page"
	if err := f.page.Navigate(ctx, f.cfg.TargetURL, f.cfg.NavigationTimeout); err != nil {
		return Outcome{Err: NewStepError(NavigationFailure, step, "Failed to load page", err)}
	}

	title, err := f.page.Title(ctx)
	if err != nil {
		return Outcome{Err: NewStepError(NavigationFailure, step, "Failed to read page title", err)}
	}
	report.AddDetail(fmt.Sprintf("Page title: %s", title))
	if strings.TrimSpace(title) == "" {
		return Outcome{Err: NewStepError(NavigationFailure, step, "Unexpected page title: page has no title", nil)}
	}

	// Dynamic content
	if err := f.page.Pause(ctx, f.cfg.SettleDelay); err != nil {
		return Outcome{Err: NewStepError(NavigationFailure, step, "Page did not settle", err)}
	}
	return Outcome{Success: true, Detail: "Page loaded successfully"}
}

func (f *PurchaseFlow) locateSize(ctx context.Context, report *models.FlowReport) Outcome {
	const step = "Locate size selector"
	recovery := func(ctx context.Context) error {
		report.AddDetail("Size selector not found, scrolling to search again...")
		if err := f.page.ScrollTo(ctx, 0.5); err != nil {
			return err
		}
		return f.page.Pause(ctx, pageSettle)
	}

	res, err := resolver.ResolveWithRecovery(ctx, f.page, f.cfg.SizeSelectors, browser.StateAttached,
		f.cfg.LocateTimeout, f.cfg.RetryTimeout, recovery)
	if err != nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Error searching for size selector", err)}
	}
	if !res.Found {
		return Outcome{Err: NewStepError(ResolutionTimeout, step, "Could not find size selector buttons", res.Err("size selector"))}
	}

	f.sizeButton = res.Element
	if res.Recovered {
		return Outcome{Success: true, Detail: fmt.Sprintf("Found size selector after scroll: %s", res.Selector)}
	}
	return Outcome{Success: true, Detail: fmt.Sprintf("Found size selector: %s", res.Selector)}
}

func (f *PurchaseFlow) selectSize(ctx context.Context, report *models.FlowReport) Outcome {
	const step = "Select size"
	if f.sizeButton == nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Size selector not found, cannot proceed", nil)}
	}
	if err := clickIntoView(ctx, f.page, f.sizeButton); err != nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Error selecting size", err)}
	}
	if err := f.page.Pause(ctx, pageSettle); err != nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Error selecting size", err)}
	}
	return Outcome{Success: true, Detail: "Size selected"}
}

func (f *PurchaseFlow) scrollToTop(ctx context.Context, report *models.FlowReport) Outcome {
	if err := f.page.ScrollTo(ctx, 0); err != nil {
		return Outcome{Err: NewStepError(ActionFailure, "Scroll to top", "Error scrolling to top", err)}
	}
	if err := f.page.Pause(ctx, pageSettle); err != nil {
		return Outcome{Err: NewStepError(ActionFailure, "Scroll to top", "Error scrolling to top", err)}
	}
	return Outcome{Success: true}
}

func (f *PurchaseFlow) locateCTA(ctx context.Context, report *models.FlowReport) Outcome {
	res := resolver.Resolve(ctx, f.page, f.cfg.CTASelectors, browser.StateAttached, f.cfg.LocateTimeout)
	if !res.Found {
		return Outcome{Err: NewStepError(ResolutionTimeout, "Locate primary CTA", "Primary CTA button not found", res.Err("primary CTA"))}
	}
	f.ctaButton = res.Element
	return Outcome{Success: true, Detail: fmt.Sprintf("Found CTA button: %s", res.Selector)}
}

func (f *PurchaseFlow) clickCTA(ctx context.Context, report *models.FlowReport) Outcome {
	const step = "Click primary CTA"
	if f.ctaButton == nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Primary CTA button not found", nil)}
	}
	report.AddDetail("Clicking primary CTA...")
	if err := clickIntoView(ctx, f.page, f.ctaButton); err != nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Error clicking CTA", err)}
	}
	// Give the upsell prompt time to open.
	if err := f.page.Pause(ctx, f.cfg.SettleDelay); err != nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Error clicking CTA", err)}
	}
	return Outcome{Success: true, Detail: "Primary CTA clicked"}
}

func (f *PurchaseFlow) waitForPopup(ctx context.Context, report *models.FlowReport) Outcome {
	res := resolver.Resolve(ctx, f.page, f.cfg.PopupSelectors, browser.StateVisible, f.cfg.LocateTimeout)
	if res.Found {
		return Outcome{Success: true, Detail: fmt.Sprintf("Popup appeared: %s", res.Selector)}
	}

	detail := "Checking if page redirected without popup..."
	if current, err := f.page.URL(ctx); err == nil && MatchesDomain(current, f.cfg.RedirectDomain) {
		detail = fmt.Sprintf("Page already redirected to %s without popup", f.cfg.RedirectDomain)
	}
	return Outcome{
		Detail: detail,
		Err:    NewStepError(ResolutionTimeout, "Wait for upsell popup", "Order bump popup did not appear", res.Err("upsell popup")),
	}
}

func (f *PurchaseFlow) decline(ctx context.Context, report *models.FlowReport) Outcome {
	const step = "Decline upsell"
	res := resolver.Resolve(ctx, f.page, f.cfg.DeclineSelectors, browser.StateAttached, f.cfg.LocateTimeout)
	if !res.Found {
		current, err := f.page.URL(ctx)
		if err == nil && MatchesDomain(current, f.cfg.RedirectDomain) {
			return Outcome{Success: true, Detail: fmt.Sprintf("Already redirected to %s", f.cfg.RedirectDomain)}
		}
		return Outcome{Err: NewStepError(ResolutionTimeout, step, "Decline button not found", res.Err("decline button"))}
	}

	report.AddDetail(fmt.Sprintf("Found decline button: %s", res.Selector))
	if err := res.Element.Click(ctx); err != nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Error clicking decline", err)}
	}
	report.AddDetail("Waiting for redirect...")
	if err := f.page.Pause(ctx, f.cfg.RedirectWait); err != nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Error waiting for redirect", err)}
	}
	return Outcome{Success: true, Detail: "Decline button clicked"}
}

func (f *PurchaseFlow) verifyRedirect(ctx context.Context, report *models.FlowReport) Outcome {
	const step = "Verify redirect"
	// Late client-side redirects
	if err := f.page.Pause(ctx, f.cfg.SettleDelay); err != nil {
		return Outcome{Err: NewStepError(AssertionFailure, step, "Redirect check interrupted", err)}
	}

	finalURL, err := f.page.URL(ctx)
	if err != nil {
		return Outcome{Err: NewStepError(ActionFailure, step, "Failed to read final URL", err)}
	}
	report.SetFinalURL(finalURL)
	report.AddDetail(fmt.Sprintf("Final URL: %s", finalURL))

	if !MatchesDomain(finalURL, f.cfg.RedirectDomain) {
		return Outcome{Err: NewStepError(AssertionFailure, step,
			fmt.Sprintf("Did not redirect to %s. Current URL: %s", f.cfg.RedirectDomain, finalURL), nil)}
	}

	report.AddDetail(fmt.Sprintf("Successfully redirected to %s", f.cfg.RedirectDomain))
	if HasExchangeID(finalURL) {
		return Outcome{Success: true, Detail: "Valid exchange ID detected in URL"}
	}
	return Outcome{Success: true, Detail: "Warning: No exchange ID detected in URL"}
}

func clickIntoView(ctx context.Context, page browser.Page, el browser.Element) error {
	if err := el.ScrollIntoView(ctx); err != nil {
		return err
	}
	if err := page.Pause(ctx, scrollSettle); err != nil {
		return err
	}
	return el.Click(ctx)
}

// MatchesDomain reports whether rawURL's host is domain or a subdomain of it.
func MatchesDomain(rawURL, domain string) bool {
	if domain == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// HasExchangeID reports whether a payment URL carries an exchange reference.
func HasExchangeID(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Query().Get("id") != "" || strings.Contains(u.Path, "exchange")
}

// AbortedReport builds the finalized report for a run that failed before
// any step could execute, e.g. when the browser session could not start.
func AbortedReport(err error) models.FlowReport {
	report := models.NewFlowReport(models.TestPurchaseFlow)
	report.AddError(fmt.Sprintf("Unexpected error: %v", err))
	report.AddDetail(fmt.Sprintf("Exception occurred: %v", err))
	report.MarkFatal()
	report.AddDetail("TEST FAILED")
	_ = report.Finalize(false)
	return report.Clone()
}
