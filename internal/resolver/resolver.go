// Package resolver finds one logical UI target from an ordered list of
// candidate selectors.
//
// Candidates are tried in order and the first that resolves within its
// timeout wins. Each attempt produces an explicit Attempt record; only
// exhaustion of the whole list becomes an error, via Result.Err. A caller
// may supply one recovery action (for example a scroll) that runs after
// the list is exhausted, followed by exactly one more pass over the list.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/funnelcheck/internal/browser"
)

// ErrNotFound indicates that no candidate resolved.
var ErrNotFound = errors.New("no candidate selector matched")

// Attempt is the outcome of trying one candidate.
type Attempt struct {
	Index    int
	Selector string
	Err      error
}

// Result is either Found (Index, Selector and Element set) or not found
// (Attempts lists every failed try).
type Result struct {
	Found     bool
	Index     int
	Selector  string
	Element   browser.Element
	Recovered bool // Match came from the post-recovery pass
	Attempts  []Attempt
}

// NotFoundError aggregates the failed attempts of an exhausted candidate list.
type NotFoundError struct {
	Target   string
	Attempts []Attempt
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	var sb strings.Builder
	if e.Target != "" {
		sb.WriteString(e.Target + ": ")
	}
	if len(e.Attempts) == 0 {
		sb.WriteString("no candidate selectors configured")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("%d candidate selector(s) exhausted", len(e.Attempts)))
	return sb.String()
}

// Unwrap returns ErrNotFound so callers can test with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Err returns nil for a found result and a *NotFoundError otherwise.
func (r Result) Err(target string) error {
	if r.Found {
		return nil
	}
	return &NotFoundError{Target: target, Attempts: r.Attempts}
}

// Resolve tries each candidate in order with its own timeout and returns
// the first match. An empty candidate list returns not found immediately.
func Resolve(ctx context.Context, loc browser.Locator, candidates []string, state browser.State, timeout time.Duration) Result {
	var res Result
	for i, sel := range candidates {
		if err := ctx.Err(); err != nil {
			res.Attempts = append(res.Attempts, Attempt{Index: i, Selector: sel, Err: err})
			return res
		}
		el, err := loc.WaitFor(ctx, sel, state, timeout)
		if err == nil && el != nil {
			res.Found = true
			res.Index = i
			res.Selector = sel
			res.Element = el
			return res
		}
		if err == nil {
			err = fmt.Errorf("%q resolved to no element", sel)
		}
		res.Attempts = append(res.Attempts, Attempt{Index: i, Selector: sel, Err: err})
	}
	return res
}

// RecoveryFunc is the single action run between the first and second pass.
type RecoveryFunc func(ctx context.Context) error

// ResolveWithRecovery runs Resolve; if the list is exhausted and recovery is
// non-nil, it runs recovery once and resolves the full list one more time
// using retryTimeout per candidate. There is never a third pass.
func ResolveWithRecovery(ctx context.Context, loc browser.Locator, candidates []string, state browser.State, timeout, retryTimeout time.Duration, recovery RecoveryFunc) (Result, error) {
	res := Resolve(ctx, loc, candidates, state, timeout)
	if res.Found || recovery == nil || len(candidates) == 0 {
		return res, nil
	}

	if err := recovery(ctx); err != nil {
		return res, fmt.Errorf("recovery action: %w", err)
	}

	if retryTimeout <= 0 {
		retryTimeout = timeout
	}
	retry := Resolve(ctx, loc, candidates, state, retryTimeout)
	retry.Attempts = append(res.Attempts, retry.Attempts...)
	retry.Recovered = retry.Found
	return retry, nil
}
