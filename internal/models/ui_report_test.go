package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetsTouchMinimum(t *testing.T) {
	tests := []struct {
		w, h float64
		want bool
	}{
		{43, 44, false},
		{44, 43, false},
		{44, 44, true},
		{43.9, 80, false},
		{120, 48, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MeetsTouchMinimum(tt.w, tt.h), "%vx%v", tt.w, tt.h)
	}
}

func TestUIQualityReport_RecordImage(t *testing.T) {
	r := NewUIQualityReport(TestUIQuality)

	r.RecordImage(ImageCheckResult{Index: 0, Src: "/a.jpg", HasAlt: true, Loaded: true})
	r.RecordImage(ImageCheckResult{Index: 1, Src: "/b.jpg", Loaded: false, BrokenReason: "naturalHeight is 0"})
	r.RecordImage(ImageCheckResult{Index: 2, InspectErr: "node detached"})

	assert.Equal(t, 1, r.ImagesLoaded)
	assert.Equal(t, 1, r.Accessibility.ImagesWithAlt)
	assert.Equal(t, 1, r.Accessibility.ImagesMissingAlt)
	require.Len(t, r.BrokenImages, 2)
	assert.Equal(t, BrokenImage{Index: 1, Src: "/b.jpg", Reason: "naturalHeight is 0"}, r.BrokenImages[0])
	assert.Equal(t, BrokenImage{Index: 2, Error: "node detached"}, r.BrokenImages[1])
}

func TestUIQualityReport_Defaults(t *testing.T) {
	r := NewUIQualityReport(TestUIQuality)

	assert.True(t, r.MobileViewportOK)
	assert.True(t, r.TouchTargetsOK)
	assert.False(t, r.HorizontalScroll)
	assert.False(t, r.Passed)
}

func TestUIQualityReport_JSONKeySet(t *testing.T) {
	var r UIQualityReport // nil slices must still encode as []

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	want := []string{"test", "images_total", "images_loaded", "broken_images", "mobile_viewport_ok",
		"horizontal_scroll", "accessibility", "touch_targets_ok", "passed", "errors"}
	assert.Len(t, decoded, len(want))
	for _, k := range want {
		assert.Contains(t, decoded, k)
	}
	assert.Equal(t, []interface{}{}, decoded["broken_images"])
	assert.Equal(t, map[string]interface{}{"images_with_alt": 0.0, "images_missing_alt": 0.0}, decoded["accessibility"])
}

func TestUIQualityReport_Golden(t *testing.T) {
	r := NewUIQualityReport(TestUIQuality)
	r.ImagesTotal = 4
	r.RecordImage(ImageCheckResult{Index: 0, Src: "/a.jpg", HasAlt: true, Loaded: true})
	r.RecordImage(ImageCheckResult{Index: 1, Src: "/b.jpg", HasAlt: true, Loaded: true})
	r.RecordImage(ImageCheckResult{Index: 2, Src: "/c.jpg", HasAlt: true, Loaded: true})
	r.RecordImage(ImageCheckResult{Index: 3, Src: "/missing.jpg", HasAlt: true, BrokenReason: "naturalHeight is 0"})
	r.HorizontalScroll = true
	r.MobileViewportOK = false
	r.AddError("Horizontal scroll detected: scrollWidth=500, clientWidth=390")

	newGolden(t).Assert(t, "ui_quality_report", marshalIndent(t, r))
}
