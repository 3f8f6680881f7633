// Package summary renders human-readable run summaries as Markdown and HTML.
package summary

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/funnelcheck/internal/models"
)

// Meta describes the run a report came from.
type Meta struct {
	RunID     string
	TargetURL string
	StartedAt time.Time
	Duration  time.Duration
}

// FlowMarkdown renders a purchase-flow report.
func FlowMarkdown(r models.FlowReport, meta Meta) string {
	var sb strings.Builder
	writeHeader(&sb, r.Test, r.Passed(), meta)

	sb.WriteString("## Steps\n\n")
	sb.WriteString("| Check | Result |\n|---|---|\n")
	for _, flag := range models.FlowFlags {
		fmt.Fprintf(&sb, "| %s | %s |\n", flagLabel(flag), mark(r.Flag(flag)))
	}
	sb.WriteString("\n")

	if r.FinalURL != nil {
		fmt.Fprintf(&sb, "Final URL: `%s`\n\n", *r.FinalURL)
	}

	writeList(&sb, "Errors", r.Errors)
	writeList(&sb, "Details", r.Details)
	return sb.String()
}

// UIQualityMarkdown renders a UI quality report.
func UIQualityMarkdown(r models.UIQualityReport, meta Meta) string {
	var sb strings.Builder
	writeHeader(&sb, r.Test, r.Passed, meta)

	sb.WriteString("## Checks\n\n")
	sb.WriteString("| Check | Result |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Images loaded | %d/%d |\n", r.ImagesLoaded, r.ImagesTotal)
	fmt.Fprintf(&sb, "| Images with alt text | %d |\n", r.Accessibility.ImagesWithAlt)
	fmt.Fprintf(&sb, "| Images missing alt text | %d |\n", r.Accessibility.ImagesMissingAlt)
	fmt.Fprintf(&sb, "| Mobile viewport | %s |\n", mark(r.MobileViewportOK))
	fmt.Fprintf(&sb, "| No horizontal scroll | %s |\n", mark(!r.HorizontalScroll))
	fmt.Fprintf(&sb, "| Touch targets | %s |\n", mark(r.TouchTargetsOK))
	sb.WriteString("\n")

	if len(r.BrokenImages) > 0 {
		sb.WriteString("## Broken images\n\n")
		for _, b := range r.BrokenImages {
			switch {
			case b.Error != "":
				fmt.Fprintf(&sb, "- #%d: %s\n", b.Index, escapeInline(b.Error))
			case b.Reason != "":
				fmt.Fprintf(&sb, "- #%d `%s` (%s)\n", b.Index, b.Src, escapeInline(b.Reason))
			default:
				fmt.Fprintf(&sb, "- #%d `%s`\n", b.Index, b.Src)
			}
		}
		sb.WriteString("\n")
	}

	if len(r.SmallTargets) > 0 {
		sb.WriteString("## Undersized touch targets\n\n")
		for _, t := range r.SmallTargets {
			fmt.Fprintf(&sb, "- `%s` %gx%g\n", t.Element, t.Width, t.Height)
		}
		sb.WriteString("\n")
	}

	writeList(&sb, "Errors", r.Errors)
	return sb.String()
}

// HTML converts Markdown into a standalone HTML page.
func HTML(title, markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("render summary html: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(title))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

func writeHeader(sb *strings.Builder, test string, passed bool, meta Meta) {
	fmt.Fprintf(sb, "# %s\n\n", test)
	fmt.Fprintf(sb, "**Verdict:** %s\n\n", verdict(passed))
	if meta.TargetURL != "" {
		fmt.Fprintf(sb, "- Target: <%s>\n", meta.TargetURL)
	}
	if meta.RunID != "" {
		fmt.Fprintf(sb, "- Run: `%s`\n", meta.RunID)
	}
	if !meta.StartedAt.IsZero() {
		fmt.Fprintf(sb, "- Started: %s\n", meta.StartedAt.UTC().Format(time.RFC3339))
	}
	if meta.Duration > 0 {
		fmt.Fprintf(sb, "- Duration: %s\n", meta.Duration.Round(time.Millisecond))
	}
	sb.WriteString("\n")
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", escapeInline(item))
	}
	sb.WriteString("\n")
}

func verdict(passed bool) string {
	if passed {
		return models.StatusPassed
	}
	return models.StatusFailed
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func flagLabel(flag string) string {
	s := strings.ReplaceAll(flag, "_", " ")
	s = strings.Replace(s, "cta", "CTA", 1)
	return strings.ToUpper(s[:1]) + s[1:]
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"<", `\<`,
	"|", `\|`,
)

// escapeInline keeps selectors and page text from being read as Markdown.
func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}
