package models

import "encoding/json"

// MinTouchTarget is the WCAG minimum touch target edge in CSS pixels.
const MinTouchTarget = 44.0

// ImageCheckResult is the outcome of inspecting one <img> element.
type ImageCheckResult struct {
	Index        int
	Src          string
	HasAlt       bool
	Loaded       bool
	BrokenReason string
	InspectErr   string // Set when the element could not be read at all
}

// TouchTarget is the rendered size of one interactive element.
type TouchTarget struct {
	Element      string  `json:"element"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	MeetsMinimum bool    `json:"-"`
}

// MeetsTouchMinimum reports whether a box satisfies the 44x44 minimum.
// The boundary is inclusive: 44x44 passes, 43x44 does not.
func MeetsTouchMinimum(width, height float64) bool {
	return width >= MinTouchTarget && height >= MinTouchTarget
}

// BrokenImage is the report entry for an image that failed to load or
// could not be inspected.
type BrokenImage struct {
	Index  int    `json:"index"`
	Src    string `json:"src,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Accessibility holds alt text counters.
type Accessibility struct {
	ImagesWithAlt    int `json:"images_with_alt"`
	ImagesMissingAlt int `json:"images_missing_alt"`
}

// UIQualityReport accumulates the results of one UI quality audit.
type UIQualityReport struct {
	Test             string
	ImagesTotal      int
	ImagesLoaded     int
	BrokenImages     []BrokenImage
	MobileViewportOK bool
	HorizontalScroll bool
	Accessibility    Accessibility
	TouchTargetsOK   bool
	SmallTargets     []TouchTarget
	VisibleCTA       bool
	Passed           bool
	Errors           []string
}

// NewUIQualityReport returns a report with the optimistic defaults the audit
// starts from: viewport and touch targets ok until shown otherwise.
func NewUIQualityReport(test string) *UIQualityReport {
	return &UIQualityReport{
		Test:             test,
		BrokenImages:     []BrokenImage{},
		MobileViewportOK: true,
		TouchTargetsOK:   true,
		SmallTargets:     []TouchTarget{},
		Errors:           []string{},
	}
}

// AddError appends an audit error.
func (r *UIQualityReport) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// RecordImage folds one image inspection into the counters.
func (r *UIQualityReport) RecordImage(img ImageCheckResult) {
	if img.InspectErr != "" {
		r.BrokenImages = append(r.BrokenImages, BrokenImage{Index: img.Index, Error: img.InspectErr})
		return
	}
	if img.Loaded {
		r.ImagesLoaded++
	} else {
		r.BrokenImages = append(r.BrokenImages, BrokenImage{
			Index:  img.Index,
			Src:    img.Src,
			Reason: img.BrokenReason,
		})
	}
	if img.HasAlt {
		r.Accessibility.ImagesWithAlt++
	} else {
		r.Accessibility.ImagesMissingAlt++
	}
}

type uiQualityReportJSON struct {
	Test             string        `json:"test"`
	ImagesTotal      int           `json:"images_total"`
	ImagesLoaded     int           `json:"images_loaded"`
	BrokenImages     []BrokenImage `json:"broken_images"`
	MobileViewportOK bool          `json:"mobile_viewport_ok"`
	HorizontalScroll bool          `json:"horizontal_scroll"`
	Accessibility    Accessibility `json:"accessibility"`
	TouchTargetsOK   bool          `json:"touch_targets_ok"`
	Passed           bool          `json:"passed"`
	Errors           []string      `json:"errors"`
}

// MarshalJSON emits the documented UI quality report key set.
func (r UIQualityReport) MarshalJSON() ([]byte, error) {
	out := uiQualityReportJSON{
		Test:             r.Test,
		ImagesTotal:      r.ImagesTotal,
		ImagesLoaded:     r.ImagesLoaded,
		BrokenImages:     r.BrokenImages,
		MobileViewportOK: r.MobileViewportOK,
		HorizontalScroll: r.HorizontalScroll,
		Accessibility:    r.Accessibility,
		TouchTargetsOK:   r.TouchTargetsOK,
		Passed:           r.Passed,
		Errors:           r.Errors,
	}
	if out.BrokenImages == nil {
		out.BrokenImages = []BrokenImage{}
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	return json.Marshal(out)
}
