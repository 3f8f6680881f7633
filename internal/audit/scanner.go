// Package audit inspects a rendered page for visual and accessibility
// defects: broken images, missing alt text, undersized touch targets,
// horizontal overflow and a call-to-action hidden below the first fold.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/funnelcheck/internal/browser"
	"github.com/harrison/funnelcheck/internal/models"
	"github.com/harrison/funnelcheck/internal/verdict"
)

// DefaultTouchTargetSelector matches buttons, submit inputs and anchors
// styled as buttons.
const DefaultTouchTargetSelector = `button, a.button, .cta-button, input[type="submit"]`

// Pauses between audit phases.
const (
	resizeSettle    = time.Second
	accordionSettle = 500 * time.Millisecond
	foldSettle      = 500 * time.Millisecond
)

// Logger is the progress sink for the audit.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
}

// Sink receives screenshot artifacts. Save errors never affect the verdict.
type Sink interface {
	Save(name string, data []byte) error
}

// Options configures one audit run.
type Options struct {
	TargetURL         string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration // Lazy-loaded images after navigation

	Desktop browser.Viewport
	Mobile  browser.Viewport

	TouchTargetSelector string
	CTASelectors        []string
	AccordionSelector   string
	AccordionLimit      int
	MinTextLength       int
}

// Scanner runs the UI quality audit against one page.
type Scanner struct {
	page   browser.Page
	opts   Options
	sink   Sink
	logger Logger
}

// NewScanner creates a scanner. A nil sink or logger discards output.
func NewScanner(page browser.Page, opts Options, sink Sink, logger Logger) *Scanner {
	if opts.Desktop == (browser.Viewport{}) {
		opts.Desktop = Desktop
	}
	if opts.Mobile == (browser.Viewport{}) {
		opts.Mobile = Mobile
	}
	if opts.TouchTargetSelector == "" {
		opts.TouchTargetSelector = DefaultTouchTargetSelector
	}
	if sink == nil {
		sink = discardSink{}
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Scanner{page: page, opts: opts, sink: sink, logger: logger}
}

// Run performs the audit and returns the report with its verdict applied.
func (s *Scanner) Run(ctx context.Context) models.UIQualityReport {
	report := models.NewUIQualityReport(models.TestUIQuality)
	if err := s.audit(ctx, report); err != nil {
		report.AddError(fmt.Sprintf("Test execution error: %v", err))
	}
	report.Passed = verdict.UIQuality(report)
	return *report
}

// AbortedReport is the failed report for an audit whose session never started.
func AbortedReport(err error) models.UIQualityReport {
	report := models.NewUIQualityReport(models.TestUIQuality)
	report.AddError(fmt.Sprintf("Test execution error: %v", err))
	report.Passed = false
	return *report
}

func (s *Scanner) audit(ctx context.Context, report *models.UIQualityReport) error {
	if err := Apply(ctx, s.page, s.opts.Desktop, 0); err != nil {
		return err
	}
	if err := s.page.Navigate(ctx, s.opts.TargetURL, s.opts.NavigationTimeout); err != nil {
		return fmt.Errorf("navigate to %s: %w", s.opts.TargetURL, err)
	}
	if err := s.page.Pause(ctx, s.opts.SettleDelay); err != nil {
		return err
	}

	images, err := ScanImages(ctx, s.page)
	if err != nil {
		return err
	}
	report.ImagesTotal = len(images)
	for _, img := range images {
		report.RecordImage(img)
	}
	s.logger.LogInfo(fmt.Sprintf("Images: %d/%d loaded, %d missing alt",
		report.ImagesLoaded, report.ImagesTotal, report.Accessibility.ImagesMissingAlt))
	s.capture(ctx, s.opts.Desktop)

	if err := Apply(ctx, s.page, s.opts.Mobile, resizeSettle); err != nil {
		return err
	}
	overflow, err := CheckOverflow(ctx, s.page)
	if err != nil {
		return err
	}
	overflow.Record(report)
	s.capture(ctx, s.opts.Mobile)

	targets, err := ScanTouchTargets(ctx, s.page, s.opts.TouchTargetSelector)
	if err != nil {
		return err
	}
	for _, t := range targets {
		if !t.MeetsMinimum {
			report.SmallTargets = append(report.SmallTargets, t)
		}
	}
	if len(report.SmallTargets) > 0 {
		report.TouchTargetsOK = false
		report.AddError(fmt.Sprintf("Found %d touch targets smaller than 44px", len(report.SmallTargets)))
	}

	s.exerciseAccordions(ctx)

	body, err := s.page.BodyText(ctx)
	if err != nil {
		return fmt.Errorf("read body text: %w", err)
	}
	if len(strings.TrimSpace(body)) < s.opts.MinTextLength {
		report.AddError("Very little text content detected on page")
	}

	if err := Apply(ctx, s.page, s.opts.Mobile, foldSettle); err != nil {
		return err
	}
	ctas, visible, err := s.firstFoldCTA(ctx)
	if err != nil {
		return err
	}
	report.VisibleCTA = visible
	if ctas > 0 && !visible {
		report.AddError("CTA button not visible in first mobile viewport")
	}
	return nil
}

// ScanImages inspects every <img> in document order. An image that cannot
// be read is returned with InspectErr set rather than failing the scan.
func ScanImages(ctx context.Context, page browser.Page) ([]models.ImageCheckResult, error) {
	els, err := page.QueryAll(ctx, "img")
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}

	results := make([]models.ImageCheckResult, 0, len(els))
	for i, el := range els {
		results = append(results, inspectImage(ctx, i, el))
	}
	return results, nil
}

func inspectImage(ctx context.Context, index int, el browser.Element) models.ImageCheckResult {
	res := models.ImageCheckResult{Index: index}

	height, err := el.NaturalHeight(ctx)
	if err != nil {
		res.InspectErr = err.Error()
		return res
	}
	src, _, err := el.Attribute(ctx, "src")
	if err != nil {
		res.InspectErr = err.Error()
		return res
	}
	alt, _, err := el.Attribute(ctx, "alt")
	if err != nil {
		res.InspectErr = err.Error()
		return res
	}

	res.Src = src
	res.Loaded = height > 0
	if !res.Loaded {
		res.BrokenReason = "naturalHeight is 0"
	}
	res.HasAlt = strings.TrimSpace(alt) != ""
	return res
}

// ScanTouchTargets measures every element matching selector. Elements that
// are not rendered or cannot be read are skipped.
func ScanTouchTargets(ctx context.Context, page browser.Page, selector string) ([]models.TouchTarget, error) {
	els, err := page.QueryAll(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("query touch targets: %w", err)
	}

	var targets []models.TouchTarget
	for _, el := range els {
		box, err := el.BoundingBox(ctx)
		if err != nil || box == nil {
			continue
		}
		name, err := el.Describe(ctx)
		if err != nil {
			continue
		}
		targets = append(targets, models.TouchTarget{
			Element:      name,
			Width:        box.Width,
			Height:       box.Height,
			MeetsMinimum: models.MeetsTouchMinimum(box.Width, box.Height),
		})
	}
	return targets, nil
}

// exerciseAccordions clicks the first few visible accordion or FAQ
// elements. Failures here are never reported.
func (s *Scanner) exerciseAccordions(ctx context.Context) {
	if s.opts.AccordionSelector == "" || s.opts.AccordionLimit <= 0 {
		return
	}
	els, err := s.page.QueryAll(ctx, s.opts.AccordionSelector)
	if err != nil {
		s.logger.LogDebug(fmt.Sprintf("accordion query failed: %v", err))
		return
	}
	if len(els) > s.opts.AccordionLimit {
		els = els[:s.opts.AccordionLimit]
	}
	for i, el := range els {
		if ok, err := el.Visible(ctx); err != nil || !ok {
			continue
		}
		if err := el.Click(ctx); err != nil {
			s.logger.LogDebug(fmt.Sprintf("accordion %d click failed: %v", i, err))
			continue
		}
		if err := s.page.Pause(ctx, accordionSettle); err != nil {
			return
		}
	}
}

// firstFoldCTA returns how many CTA candidates exist and whether any of them
// is visible within the first mobile viewport.
func (s *Scanner) firstFoldCTA(ctx context.Context) (int, bool, error) {
	total := 0
	for _, sel := range s.opts.CTASelectors {
		els, err := s.page.QueryAll(ctx, sel)
		if err != nil {
			return total, false, fmt.Errorf("query CTA %q: %w", sel, err)
		}
		total += len(els)
		for _, el := range els {
			if ok, err := el.Visible(ctx); err != nil || !ok {
				continue
			}
			box, err := el.BoundingBox(ctx)
			if err != nil {
				continue
			}
			if FirstFoldVisible(box, s.opts.Mobile.Height) {
				return total, true, nil
			}
		}
	}
	return total, false, nil
}

func (s *Scanner) capture(ctx context.Context, vp browser.Viewport) {
	shot, err := s.page.Screenshot(ctx)
	if err != nil {
		s.logger.LogWarn(fmt.Sprintf("%s screenshot failed: %v", vp.Name, err))
		return
	}
	if err := s.sink.Save(vp.Name+".png", shot); err != nil {
		s.logger.LogWarn(fmt.Sprintf("%s screenshot not saved: %v", vp.Name, err))
	}
}

type discardSink struct{}

func (discardSink) Save(name string, data []byte) error { return nil }

type nopLogger struct{}

func (nopLogger) LogDebug(message string) {}
func (nopLogger) LogInfo(message string)  {}
func (nopLogger) LogWarn(message string)  {}
