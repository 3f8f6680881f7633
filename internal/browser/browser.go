// Package browser defines the driver contract the verification engine runs
// against and a Chrome DevTools Protocol implementation built on chromedp.
//
// The engine never talks to a browser directly. Every call that can block
// takes a context and an explicit timeout, so no wait in the system is
// unbounded.
package browser

import (
	"context"
	"errors"
	"time"
)

// State is the condition an element must satisfy to count as resolved.
type State int

const (
	// StateAttached is satisfied once the element exists in the DOM.
	StateAttached State = iota
	// StateVisible additionally requires the element to be rendered and visible.
	StateVisible
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateAttached:
		return "attached"
	case StateVisible:
		return "visible"
	default:
		return "unknown"
	}
}

// ErrNoSession is returned when a browser session could not be started.
var ErrNoSession = errors.New("browser session unavailable")

// Box is an element's rendered bounding box in CSS pixels, relative to the
// viewport.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Viewport is a named rendering surface size.
type Viewport struct {
	Name   string
	Width  int
	Height int
}

// DocumentMetrics are the root element's scroll and client dimensions.
type DocumentMetrics struct {
	ScrollWidth  float64 `json:"scrollWidth"`
	ScrollHeight float64 `json:"scrollHeight"`
	ClientWidth  float64 `json:"clientWidth"`
	ClientHeight float64 `json:"clientHeight"`
}

// Element is a handle to a resolved DOM node.
type Element interface {
	// Describe returns "TAG.class names" for reporting.
	Describe(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
	// BoundingBox returns nil when the element is not rendered.
	BoundingBox(ctx context.Context) (*Box, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	NaturalHeight(ctx context.Context) (float64, error)
	Visible(ctx context.Context) (bool, error)
}

// Locator resolves a single selector within a bounded wait.
type Locator interface {
	WaitFor(ctx context.Context, selector string, state State, timeout time.Duration) (Element, error)
}

// Page is the driver surface used by the flow and the audit.
type Page interface {
	Locator

	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	// QueryAll returns every element currently matching selector without waiting.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// ScrollTo scrolls the window to a fraction (0..1) of the body height.
	ScrollTo(ctx context.Context, fraction float64) error
	SetViewport(ctx context.Context, vp Viewport) error
	Metrics(ctx context.Context) (DocumentMetrics, error)
	BodyText(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	// Pause waits for d, returning early only when ctx is done.
	Pause(ctx context.Context, d time.Duration) error
}
