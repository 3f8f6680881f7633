package browser

import (
	"fmt"
	"regexp"
	"strings"
)

// hasTextPattern matches the text pseudo-class used in selector catalogs,
// e.g. button:has-text("GET MINE NOW").
var hasTextPattern = regexp.MustCompile(`^\s*([a-zA-Z][a-zA-Z0-9-]*|\*)?:has-text\(\s*"([^"]*)"\s*\)\s*$`)

const (
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
)

// QueryMode is how the driver evaluates a compiled selector.
type QueryMode int

const (
	// ModeCSS runs through querySelector/querySelectorAll.
	ModeCSS QueryMode = iota
	// ModeXPath runs through DevTools DOM search.
	ModeXPath
)

func (m QueryMode) String() string {
	if m == ModeXPath {
		return "xpath"
	}
	return "css"
}

// Query is a catalog selector compiled for the driver.
type Query struct {
	Expr string
	Mode QueryMode
}

// CompileSelector turns a catalog selector into a driver query. Plain CSS
// is kept as is. tag:has-text("...") becomes an XPath expression doing a
// case-insensitive substring match on the element's normalized text.
func CompileSelector(selector string) Query {
	m := hasTextPattern.FindStringSubmatch(selector)
	if m == nil {
		return Query{Expr: selector, Mode: ModeCSS}
	}
	tag := m[1]
	if tag == "" {
		tag = "*"
	}
	text := strings.ToLower(m[2])
	if strings.Contains(text, "'") {
		return Query{Mode: ModeXPath, Expr: fmt.Sprintf(`//%s[contains(translate(normalize-space(.), %q, %q), "%s")]`,
			tag, upperAlpha, lowerAlpha, text)}
	}
	return Query{Mode: ModeXPath, Expr: fmt.Sprintf(`//%s[contains(translate(normalize-space(.), '%s', '%s'), '%s')]`,
		tag, upperAlpha, lowerAlpha, text)}
}

// First narrows q to its first match in document order. CSS is already
// first-match under querySelector.
func (q Query) First() Query {
	if q.Mode == ModeXPath {
		return Query{Expr: "(" + q.Expr + ")[1]", Mode: ModeXPath}
	}
	return q
}

// ValidateSelector rejects selectors that are empty or carry script payloads.
func ValidateSelector(selector string) error {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return fmt.Errorf("selector is empty")
	}
	if len(trimmed) > 1000 {
		return fmt.Errorf("selector exceeds 1000 characters")
	}
	lower := strings.ToLower(trimmed)
	for _, pattern := range []string{"javascript:", "<script", "onerror=", "onload="} {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("selector contains dangerous pattern %q", pattern)
		}
	}
	return nil
}
