package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// DefaultOpTimeout bounds driver calls that have no caller-supplied timeout.
const DefaultOpTimeout = 10 * time.Second

// Options configures a Chrome session.
type Options struct {
	Headless  bool
	UserAgent string
	Viewport  Viewport
	// OpTimeout bounds calls without an explicit timeout (0 = DefaultOpTimeout).
	OpTimeout time.Duration
}

// CDPPage drives a single Chrome tab over the DevTools protocol.
type CDPPage struct {
	ctx       context.Context
	opTimeout time.Duration
}

// Launch starts a browser and opens one tab. The returned release function
// closes the tab and the browser process; callers must defer it on every
// path, including when later steps fail.
func Launch(parent context.Context, opts Options) (*CDPPage, func(), error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	release := func() {
		tabCancel()
		allocCancel()
	}

	opTimeout := opts.OpTimeout
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	page := &CDPPage{ctx: tabCtx, opTimeout: opTimeout}

	// The first Run starts the browser process.
	var start []chromedp.Action
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		start = append(start, chromedp.EmulateViewport(int64(opts.Viewport.Width), int64(opts.Viewport.Height)))
	}
	if err := page.run(parent, opTimeout*3, start...); err != nil {
		release()
		return nil, nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	return page, release, nil
}

// scope derives a context from the tab context that is cancelled when the
// timeout elapses or the caller's context is done, whichever comes first.
func (p *CDPPage) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = p.opTimeout
	}
	rctx, cancel := context.WithTimeout(p.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return rctx, func() {
		stop()
		cancel()
	}
}

func (p *CDPPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	rctx, cancel := p.scope(ctx, timeout)
	defer cancel()
	return chromedp.Run(rctx, actions...)
}

// WaitFor waits up to timeout for the first node matching selector to
// reach state. Later matches are never consulted.
func (p *CDPPage) WaitFor(ctx context.Context, selector string, state State, timeout time.Duration) (Element, error) {
	q := CompileSelector(selector).First()
	opts := []chromedp.QueryOption{firstOption(q.Mode)}
	if state == StateVisible {
		opts = append(opts, chromedp.NodeVisible)
	} else {
		opts = append(opts, chromedp.NodeReady)
	}

	var nodes []*cdp.Node
	if err := p.run(ctx, timeout, chromedp.Nodes(q.Expr, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("wait for %q (%s): %w", selector, state, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("wait for %q (%s): no nodes matched", selector, state)
	}
	return &cdpElement{page: p, node: nodes[0]}, nil
}

// QueryAll returns the nodes currently matching selector.
func (p *CDPPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	q := CompileSelector(selector)
	var nodes []*cdp.Node
	err := p.run(ctx, p.opTimeout, chromedp.Nodes(q.Expr, &nodes, allOption(q.Mode), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &cdpElement{page: p, node: n})
	}
	return elements, nil
}

// firstOption selects one node. DOM search is only used for XPath, which
// First has already narrowed to a single match.
func firstOption(m QueryMode) chromedp.QueryOption {
	if m == ModeXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// allOption selects every match.
func allOption(m QueryMode) chromedp.QueryOption {
	if m == ModeXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

// Navigate loads url and waits for the document body.
func (p *CDPPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Title returns the document title.
func (p *CDPPage) Title(ctx context.Context) (string, error) {
	var title string
	if err := p.run(ctx, p.opTimeout, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return title, nil
}

// URL returns the tab's current location.
func (p *CDPPage) URL(ctx context.Context) (string, error) {
	var url string
	if err := p.run(ctx, p.opTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return url, nil
}

// ScrollTo scrolls the window to fraction of the body height.
func (p *CDPPage) ScrollTo(ctx context.Context, fraction float64) error {
	expr := fmt.Sprintf("window.scrollTo(0, document.body.scrollHeight * %s); true",
		strconv.FormatFloat(fraction, 'f', -1, 64))
	var ok bool
	if err := p.run(ctx, p.opTimeout, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("scroll to %.2f: %w", fraction, err)
	}
	return nil
}

// SetViewport resizes the emulated rendering surface.
func (p *CDPPage) SetViewport(ctx context.Context, vp Viewport) error {
	if err := p.run(ctx, p.opTimeout, chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height))); err != nil {
		return fmt.Errorf("set viewport %s (%dx%d): %w", vp.Name, vp.Width, vp.Height, err)
	}
	return nil
}

const metricsExpr = `({
	scrollWidth: document.documentElement.scrollWidth,
	scrollHeight: document.documentElement.scrollHeight,
	clientWidth: document.documentElement.clientWidth,
	clientHeight: document.documentElement.clientHeight
})`

// Metrics reads the document element's scroll and client dimensions.
func (p *CDPPage) Metrics(ctx context.Context) (DocumentMetrics, error) {
	var m DocumentMetrics
	if err := p.run(ctx, p.opTimeout, chromedp.Evaluate(metricsExpr, &m)); err != nil {
		return DocumentMetrics{}, fmt.Errorf("read document metrics: %w", err)
	}
	return m, nil
}

// BodyText returns the rendered text of the document body.
func (p *CDPPage) BodyText(ctx context.Context) (string, error) {
	var text string
	if err := p.run(ctx, p.opTimeout, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text)); err != nil {
		return "", fmt.Errorf("read body text: %w", err)
	}
	return text, nil
}

// Screenshot captures the full page as PNG.
func (p *CDPPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, p.opTimeout*3, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Pause waits for d or until ctx is done.
func (p *CDPPage) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cdpElement is a DOM node resolved in a CDPPage.
type cdpElement struct {
	page *CDPPage
	node *cdp.Node
}

// call runs fn with the node bound to this and decodes the by-value result
// into out. Results of undefined leave out untouched.
func (e *cdpElement) call(ctx context.Context, fn string, out interface{}) error {
	return e.page.run(ctx, e.page.opTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		res, exc, err := cdpruntime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("evaluate on node: %s", exc.Text)
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(res.Value), out)
	}))
}

func (e *cdpElement) Describe(ctx context.Context) (string, error) {
	var desc string
	err := e.call(ctx, `function() {
		const cls = typeof this.className === "string" ? this.className : "";
		return this.tagName + (cls ? "." + cls : "");
	}`, &desc)
	return desc, err
}

func (e *cdpElement) Click(ctx context.Context) error {
	if err := e.page.run(ctx, e.page.opTimeout, chromedp.MouseClickNode(e.node)); err != nil {
		return fmt.Errorf("click %s: %w", e.node.LocalName, err)
	}
	return nil
}

func (e *cdpElement) ScrollIntoView(ctx context.Context) error {
	return e.page.run(ctx, e.page.opTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return dom.ScrollIntoViewIfNeeded().WithNodeID(e.node.NodeID).Do(ctx)
	}))
}

func (e *cdpElement) BoundingBox(ctx context.Context) (*Box, error) {
	var box *Box
	err := e.call(ctx, `function() {
		if (!this.getClientRects().length) return null;
		const r = this.getBoundingClientRect();
		return {x: r.x, y: r.y, width: r.width, height: r.height};
	}`, &box)
	if err != nil {
		return nil, err
	}
	return box, nil
}

func (e *cdpElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var value *string
	fn := fmt.Sprintf(`function() { return this.getAttribute(%s); }`, strconv.Quote(name))
	if err := e.call(ctx, fn, &value); err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (e *cdpElement) NaturalHeight(ctx context.Context) (float64, error) {
	var h float64
	err := e.call(ctx, `function() { return this.naturalHeight || 0; }`, &h)
	return h, err
}

func (e *cdpElement) Visible(ctx context.Context) (bool, error) {
	var visible bool
	err := e.call(ctx, `function() {
		const s = window.getComputedStyle(this);
		const r = this.getBoundingClientRect();
		return s.visibility !== "hidden" && s.display !== "none" && r.width > 0 && r.height > 0;
	}`, &visible)
	return visible, err
}
