package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/harrison/funnelcheck/internal/browser"
	"github.com/harrison/funnelcheck/internal/models"
)

// Viewport presets.
var (
	Desktop = browser.Viewport{Name: "desktop", Width: 1920, Height: 1080}
	Mobile  = browser.Viewport{Name: "mobile", Width: 390, Height: 844}
)

// Overflow is the horizontal overflow observation for one viewport.
type Overflow struct {
	ScrollWidth      float64
	ClientWidth      float64
	HorizontalScroll bool
}

// Apply sets the viewport and waits settle for layout to reflow.
func Apply(ctx context.Context, page browser.Page, vp browser.Viewport, settle time.Duration) error {
	if err := page.SetViewport(ctx, vp); err != nil {
		return fmt.Errorf("set %s viewport: %w", vp.Name, err)
	}
	return page.Pause(ctx, settle)
}

// CheckOverflow reads the document metrics of the current viewport.
func CheckOverflow(ctx context.Context, page browser.Page) (Overflow, error) {
	m, err := page.Metrics(ctx)
	if err != nil {
		return Overflow{}, fmt.Errorf("read document metrics: %w", err)
	}
	return EvaluateOverflow(m), nil
}

// EvaluateOverflow flags a document wider than its client area.
func EvaluateOverflow(m browser.DocumentMetrics) Overflow {
	return Overflow{
		ScrollWidth:      m.ScrollWidth,
		ClientWidth:      m.ClientWidth,
		HorizontalScroll: m.ScrollWidth > m.ClientWidth,
	}
}

// Record folds the observation into report. Overflow forces the mobile
// viewport flag false.
func (o Overflow) Record(report *models.UIQualityReport) {
	if !o.HorizontalScroll {
		return
	}
	report.HorizontalScroll = true
	report.MobileViewportOK = false
	report.AddError(fmt.Sprintf("Horizontal scroll detected: scrollWidth=%g, clientWidth=%g", o.ScrollWidth, o.ClientWidth))
}

// FirstFoldVisible reports whether box starts above the bottom edge of a
// viewport of the given height. A nil box is never visible.
func FirstFoldVisible(box *browser.Box, viewportHeight int) bool {
	return box != nil && box.Y < float64(viewportHeight)
}
