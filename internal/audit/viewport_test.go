package audit

import (
	"context"
	"testing"

	"github.com/harrison/funnelcheck/internal/browser"
	"github.com/harrison/funnelcheck/internal/browser/browsertest"
	"github.com/harrison/funnelcheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateOverflow(t *testing.T) {
	tests := []struct {
		name           string
		scroll, client float64
		wantScroll     bool
		wantMobileOK   bool
	}{
		{name: "wider than client", scroll: 500, client: 390, wantScroll: true, wantMobileOK: false},
		{name: "exact fit", scroll: 390, client: 390, wantScroll: false, wantMobileOK: true},
		{name: "narrower than client", scroll: 380, client: 390, wantScroll: false, wantMobileOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := models.NewUIQualityReport(models.TestUIQuality)

			o := EvaluateOverflow(browser.DocumentMetrics{ScrollWidth: tt.scroll, ClientWidth: tt.client})
			o.Record(report)

			assert.Equal(t, tt.wantScroll, report.HorizontalScroll)
			assert.Equal(t, tt.wantMobileOK, report.MobileViewportOK)
			if tt.wantScroll {
				assert.Len(t, report.Errors, 1)
			} else {
				assert.Empty(t, report.Errors)
			}
		})
	}
}

func TestApplyAndCheckOverflow(t *testing.T) {
	page := browsertest.NewPage("about:blank")
	page.MetricsByViewport = map[string]browser.DocumentMetrics{
		"mobile": {ScrollWidth: 500, ClientWidth: 390},
	}

	require.NoError(t, Apply(context.Background(), page, Mobile, 0))
	o, err := CheckOverflow(context.Background(), page)

	require.NoError(t, err)
	assert.True(t, o.HorizontalScroll)
	assert.Equal(t, Mobile, page.Viewport)
}

func TestFirstFoldVisible(t *testing.T) {
	tests := []struct {
		name string
		box  *browser.Box
		want bool
	}{
		{name: "near top", box: &browser.Box{Y: 100}, want: true},
		{name: "just above fold", box: &browser.Box{Y: 843}, want: true},
		{name: "at fold", box: &browser.Box{Y: 844}, want: false},
		{name: "scrolled past", box: &browser.Box{Y: -20, Height: 50}, want: true},
		{name: "not rendered", box: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstFoldVisible(tt.box, Mobile.Height))
		})
	}
}

func TestPresets(t *testing.T) {
	assert.Equal(t, browser.Viewport{Name: "desktop", Width: 1920, Height: 1080}, Desktop)
	assert.Equal(t, browser.Viewport{Name: "mobile", Width: 390, Height: 844}, Mobile)
}
