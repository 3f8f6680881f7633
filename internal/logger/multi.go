package logger

import (
	"fmt"
	"time"
)

// Multi fans every call out to each logger in order.
type Multi []Logger

// NewMulti drops nil entries.
func NewMulti(loggers ...Logger) Multi {
	m := make(Multi, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

func (m Multi) LogTrace(message string) {
	for _, l := range m {
		l.LogTrace(message)
	}
}

func (m Multi) LogDebug(message string) {
	for _, l := range m {
		l.LogDebug(message)
	}
}

func (m Multi) LogInfo(message string) {
	for _, l := range m {
		l.LogInfo(message)
	}
}

func (m Multi) LogWarn(message string) {
	for _, l := range m {
		l.LogWarn(message)
	}
}

func (m Multi) LogError(message string) {
	for _, l := range m {
		l.LogError(message)
	}
}

func (m Multi) LogStepStart(index, total int, name string) {
	for _, l := range m {
		l.LogStepStart(index, total, name)
	}
}

func (m Multi) LogStepResult(index, total int, name string, success, mandatory bool) {
	for _, l := range m {
		l.LogStepResult(index, total, name, success, mandatory)
	}
}

func (m Multi) LogVerdict(test string, passed bool, duration time.Duration) {
	for _, l := range m {
		l.LogVerdict(test, passed, duration)
	}
}

// Prefixed tags every message and step name with "[prefix] " so the
// output of concurrent runs stays distinguishable.
type Prefixed struct {
	Logger
	Prefix string
}

// WithPrefix wraps l.
func WithPrefix(l Logger, prefix string) *Prefixed {
	return &Prefixed{Logger: l, Prefix: prefix}
}

func (p *Prefixed) tag(s string) string {
	return fmt.Sprintf("[%s] %s", p.Prefix, s)
}

func (p *Prefixed) LogTrace(message string) { p.Logger.LogTrace(p.tag(message)) }
func (p *Prefixed) LogDebug(message string) { p.Logger.LogDebug(p.tag(message)) }
func (p *Prefixed) LogInfo(message string)  { p.Logger.LogInfo(p.tag(message)) }
func (p *Prefixed) LogWarn(message string)  { p.Logger.LogWarn(p.tag(message)) }
func (p *Prefixed) LogError(message string) { p.Logger.LogError(p.tag(message)) }

func (p *Prefixed) LogStepStart(index, total int, name string) {
	p.Logger.LogStepStart(index, total, p.tag(name))
}

func (p *Prefixed) LogStepResult(index, total int, name string, success, mandatory bool) {
	p.Logger.LogStepResult(index, total, p.tag(name), success, mandatory)
}
