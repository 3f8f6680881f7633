// Package browsertest provides an in-memory browser.Page for exercising the
// flow and audit logic without a real browser.
package browsertest

import (
	"context"
	"fmt"
	"time"

	"github.com/harrison/funnelcheck/internal/browser"
)

// WaitCall records one WaitFor invocation.
type WaitCall struct {
	Selector string
	State    browser.State
	Timeout  time.Duration
}

// Element is a scripted DOM node.
type Element struct {
	Tag     string
	Class   string
	Attrs   map[string]string
	Natural float64
	Box     *browser.Box
	Hidden  bool

	// OnClick runs after a successful click, e.g. to change the page URL.
	OnClick  func(p *Page)
	ClickErr error
	// InspectErr fails every read on the element.
	InspectErr error

	page   *Page
	Clicks int
}

// Page is a scripted browser.Page. Zero values are usable; selectors with no
// registered elements never resolve.
type Page struct {
	CurrentURL  string
	TitleText   string
	Body        string
	NavigateErr error
	ScrollErr   error

	// Metrics is returned for any viewport not listed in MetricsByViewport.
	DocMetrics        browser.DocumentMetrics
	MetricsByViewport map[string]browser.DocumentMetrics

	// OnScroll runs after each ScrollTo, e.g. to reveal lazy content.
	OnScroll func(p *Page, fraction float64)

	Viewport    browser.Viewport
	Viewports   []browser.Viewport
	WaitCalls   []WaitCall
	Scrolls     []float64
	Navigations []string
	Shots       int
	Paused      time.Duration

	elements map[string][]*Element
}

// NewPage returns an empty page at url.
func NewPage(url string) *Page {
	return &Page{
		CurrentURL: url,
		TitleText:  "Test Page",
		elements:   make(map[string][]*Element),
	}
}

// Add registers elements as matches for selector, in document order.
func (p *Page) Add(selector string, els ...*Element) {
	if p.elements == nil {
		p.elements = make(map[string][]*Element)
	}
	for _, el := range els {
		el.page = p
	}
	p.elements[selector] = append(p.elements[selector], els...)
}

// Remove drops every element registered for selector.
func (p *Page) Remove(selector string) {
	delete(p.elements, selector)
}

// Show unhides every element registered for selector.
func (p *Page) Show(selector string) {
	for _, el := range p.elements[selector] {
		el.Hidden = false
	}
}

func (p *Page) WaitFor(ctx context.Context, selector string, state browser.State, timeout time.Duration) (browser.Element, error) {
	p.WaitCalls = append(p.WaitCalls, WaitCall{Selector: selector, State: state, Timeout: timeout})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Only the first match is considered, like querySelector.
	if els := p.elements[selector]; len(els) > 0 {
		if state != browser.StateVisible || !els[0].Hidden {
			return els[0], nil
		}
	}
	return nil, fmt.Errorf("timeout %s waiting for %q to be %s: %w", timeout, selector, state, context.DeadlineExceeded)
}

func (p *Page) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	out := make([]browser.Element, 0, len(p.elements[selector]))
	for _, el := range p.elements[selector] {
		out = append(out, el)
	}
	return out, nil
}

func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.Navigations = append(p.Navigations, url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.CurrentURL = url
	return nil
}

func (p *Page) Title(ctx context.Context) (string, error) { return p.TitleText, nil }

func (p *Page) URL(ctx context.Context) (string, error) { return p.CurrentURL, nil }

func (p *Page) ScrollTo(ctx context.Context, fraction float64) error {
	if p.ScrollErr != nil {
		return p.ScrollErr
	}
	p.Scrolls = append(p.Scrolls, fraction)
	if p.OnScroll != nil {
		p.OnScroll(p, fraction)
	}
	return nil
}

func (p *Page) SetViewport(ctx context.Context, vp browser.Viewport) error {
	p.Viewport = vp
	p.Viewports = append(p.Viewports, vp)
	return nil
}

func (p *Page) Metrics(ctx context.Context) (browser.DocumentMetrics, error) {
	if m, ok := p.MetricsByViewport[p.Viewport.Name]; ok {
		return m, nil
	}
	return p.DocMetrics, nil
}

func (p *Page) BodyText(ctx context.Context) (string, error) { return p.Body, nil }

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.Shots++
	return []byte(fmt.Sprintf("png:%s", p.Viewport.Name)), nil
}

func (p *Page) Pause(ctx context.Context, d time.Duration) error {
	p.Paused += d
	return ctx.Err()
}

func (e *Element) Describe(ctx context.Context) (string, error) {
	if e.InspectErr != nil {
		return "", e.InspectErr
	}
	if e.Class == "" {
		return e.Tag, nil
	}
	return e.Tag + "." + e.Class, nil
}

func (e *Element) Click(ctx context.Context) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil && e.page != nil {
		e.OnClick(e.page)
	}
	return nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error { return nil }

func (e *Element) BoundingBox(ctx context.Context) (*browser.Box, error) {
	if e.InspectErr != nil {
		return nil, e.InspectErr
	}
	if e.Hidden {
		return nil, nil
	}
	return e.Box, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if e.InspectErr != nil {
		return "", false, e.InspectErr
	}
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (e *Element) NaturalHeight(ctx context.Context) (float64, error) {
	if e.InspectErr != nil {
		return 0, e.InspectErr
	}
	return e.Natural, nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	if e.InspectErr != nil {
		return false, e.InspectErr
	}
	return !e.Hidden, nil
}

var (
	_ browser.Page    = (*Page)(nil)
	_ browser.Element = (*Element)(nil)
)
