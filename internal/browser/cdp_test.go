package browser

import (
	"reflect"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
)

func sameOption(a, b chromedp.QueryOption) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// DOM search mixes plain-text and CSS matches into XPath results, so it
// must only ever see XPath.
func TestQueryOptionsByMode(t *testing.T) {
	assert.True(t, sameOption(firstOption(ModeCSS), chromedp.ByQuery))
	assert.True(t, sameOption(allOption(ModeCSS), chromedp.ByQueryAll))
	assert.True(t, sameOption(firstOption(ModeXPath), chromedp.BySearch))
	assert.True(t, sameOption(allOption(ModeXPath), chromedp.BySearch))
}

func TestImageScanUsesQuerySelectorAll(t *testing.T) {
	q := CompileSelector("img")
	assert.Equal(t, ModeCSS, q.Mode)
	assert.True(t, sameOption(allOption(q.Mode), chromedp.ByQueryAll))
}
