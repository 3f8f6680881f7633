// Package verdict derives pass/fail from finalized reports. Every function
// here is pure: no I/O, no browser, no mutation of its inputs.
package verdict

import (
	"fmt"
	"strings"

	"github.com/harrison/funnelcheck/internal/models"
)

// FlagReader exposes boolean report flags by name.
type FlagReader interface {
	Flag(name string) bool
}

// Rule is a declarative verdict: every Required flag must be true and every
// AnyOf group must contain at least one true flag.
type Rule struct {
	Required []string   `yaml:"required"`
	AnyOf    [][]string `yaml:"any_of"`
}

// PurchaseFlow is the default rule for the purchase-flow test. A redirect may
// stand in for the upsell prompt when the funnel skips it.
var PurchaseFlow = Rule{
	Required: []string{
		models.FlagPageLoaded,
		models.FlagSizeSelected,
		models.FlagPrimaryCTAClicked,
		models.FlagRedirected,
	},
	AnyOf: [][]string{
		{models.FlagPopupAppeared, models.FlagRedirected},
	},
}

// String renders the rule as a boolean expression, e.g.
// "page_loaded AND (popup_appeared OR redirected)".
func (r Rule) String() string {
	terms := append([]string{}, r.Required...)
	for _, group := range r.AnyOf {
		if len(group) == 1 {
			terms = append(terms, group[0])
			continue
		}
		terms = append(terms, "("+strings.Join(group, " OR ")+")")
	}
	if len(terms) == 0 {
		return "always"
	}
	return strings.Join(terms, " AND ")
}

// Evaluate applies the rule to flags.
func (r Rule) Evaluate(flags FlagReader) bool {
	for _, name := range r.Required {
		if !flags.Flag(name) {
			return false
		}
	}
	for _, group := range r.AnyOf {
		satisfied := false
		for _, name := range group {
			if flags.Flag(name) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// Validate checks that every flag the rule names is known and that no
// OR-group is empty (an empty group can never be satisfied).
func (r Rule) Validate(known func(string) bool) error {
	for _, name := range r.Required {
		if !known(name) {
			return fmt.Errorf("unknown required flag %q", name)
		}
	}
	for i, group := range r.AnyOf {
		if len(group) == 0 {
			return fmt.Errorf("any_of group %d is empty", i)
		}
		for _, name := range group {
			if !known(name) {
				return fmt.Errorf("unknown flag %q in any_of group %d", name, i)
			}
		}
	}
	return nil
}

// Decide returns the verdict for a flow report. A report aborted by a fatal
// failure never passes, whatever its flags say.
func Decide(report *models.FlowReport, rule Rule) bool {
	if report.Fatal() {
		return false
	}
	return rule.Evaluate(report)
}

// UIQuality returns the verdict for a UI quality report.
func UIQuality(r *models.UIQualityReport) bool {
	return r.ImagesLoaded == r.ImagesTotal &&
		r.ImagesTotal > 0 &&
		!r.HorizontalScroll &&
		r.Accessibility.ImagesMissingAlt == 0 &&
		r.TouchTargetsOK &&
		len(r.Errors) == 0
}
