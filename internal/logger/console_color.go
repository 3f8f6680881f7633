package logger

import (
	"strings"

	"github.com/fatih/color"
)

// colorScheme defines consistent colors for log output.
// Green: passed steps and verdicts
// Red: failures
// Yellow: soft failures and warnings
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	muted   *color.Color
}

// newColorScheme creates the standard color scheme.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgBlue),
		muted:   color.New(color.FgHiBlack),
	}
}

func colorLevel(level string) string {
	scheme := newColorScheme()
	switch strings.ToUpper(level) {
	case "TRACE":
		return scheme.muted.Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return scheme.label.Sprint(level)
	case "WARN":
		return scheme.warn.Sprint(level)
	case "ERROR":
		return scheme.fail.Sprint(level)
	default:
		return level
	}
}

// colorStepStatus colors a step outcome: a soft failure is a warning, a
// mandatory one is fatal.
func colorStepStatus(success, mandatory bool) string {
	scheme := newColorScheme()
	text := stepStatus(success, mandatory)
	switch {
	case success:
		return scheme.success.Sprint(text)
	case mandatory:
		return scheme.fail.Add(color.Bold).Sprint(text)
	default:
		return scheme.warn.Sprint(text)
	}
}

func colorVerdict(passed bool) string {
	scheme := newColorScheme()
	if passed {
		return scheme.success.Add(color.Bold).Sprint(verdictText(passed))
	}
	return scheme.fail.Add(color.Bold).Sprint(verdictText(passed))
}
