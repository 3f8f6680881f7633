package models

import (
	"encoding/json"
	"errors"
)

// Flow report flag names. These are also the JSON keys of the flow report.
const (
	FlagPageLoaded        = "page_loaded"
	FlagSizeSelected      = "size_selected"
	FlagPrimaryCTAClicked = "primary_cta_clicked"
	FlagPopupAppeared     = "popup_appeared"
	FlagDeclineClicked    = "decline_clicked"
	FlagRedirected        = "redirected"
)

// FlowFlags lists every flow flag in report key order.
var FlowFlags = []string{
	FlagPageLoaded,
	FlagSizeSelected,
	FlagPrimaryCTAClicked,
	FlagPopupAppeared,
	FlagDeclineClicked,
	FlagRedirected,
}

// IsFlowFlag reports whether name is a known flow flag.
func IsFlowFlag(name string) bool {
	for _, f := range FlowFlags {
		if f == name {
			return true
		}
	}
	return false
}

// ErrAlreadyFinalized is returned when a report is finalized a second time.
var ErrAlreadyFinalized = errors.New("report already finalized")

// FlowReport accumulates the evidence of a single purchase-flow run.
// Detail and error logs are append-only. The verdict is recorded exactly once
// via Finalize, after which the report is read-only by convention.
type FlowReport struct {
	Test     string
	Details  []string
	Errors   []string
	FinalURL *string

	flags     map[string]bool
	fatal     bool
	passed    bool
	finalized bool
}

// NewFlowReport creates an empty report with every flow flag unset (false).
func NewFlowReport(test string) *FlowReport {
	return &FlowReport{
		Test:    test,
		Details: []string{},
		Errors:  []string{},
		flags:   make(map[string]bool, len(FlowFlags)),
	}
}

// SetFlag records the value of a step flag.
func (r *FlowReport) SetFlag(name string, value bool) {
	if r.flags == nil {
		r.flags = make(map[string]bool, len(FlowFlags))
	}
	r.flags[name] = value
}

// Flag returns the value of a step flag; unset flags read false.
func (r *FlowReport) Flag(name string) bool {
	return r.flags[name]
}

// Flags returns a copy of the recorded flags.
func (r *FlowReport) Flags() map[string]bool {
	out := make(map[string]bool, len(r.flags))
	for k, v := range r.flags {
		out[k] = v
	}
	return out
}

// AddDetail appends a line to the detail log.
func (r *FlowReport) AddDetail(detail string) {
	r.Details = append(r.Details, detail)
}

// AddError appends a line to the error log.
func (r *FlowReport) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// SetFinalURL records the URL observed at the end of the run.
func (r *FlowReport) SetFinalURL(url string) {
	r.FinalURL = &url
}

// MarkFatal records that the run was aborted and cannot pass.
func (r *FlowReport) MarkFatal() {
	r.fatal = true
}

// Fatal reports whether the run was aborted by a fatal failure.
func (r *FlowReport) Fatal() bool {
	return r.fatal
}

// Finalize records the verdict. It may only be called once.
func (r *FlowReport) Finalize(passed bool) error {
	if r.finalized {
		return ErrAlreadyFinalized
	}
	r.passed = passed
	r.finalized = true
	return nil
}

// Finalized reports whether the verdict has been recorded.
func (r *FlowReport) Finalized() bool {
	return r.finalized
}

// Passed returns the recorded verdict. It is false until Finalize is called.
func (r *FlowReport) Passed() bool {
	return r.finalized && r.passed
}

// Clone returns a deep copy so a finalized report can be handed out by value
// without sharing its logs or flag map with the producer.
func (r *FlowReport) Clone() FlowReport {
	c := *r
	c.Details = append([]string{}, r.Details...)
	c.Errors = append([]string{}, r.Errors...)
	c.flags = r.Flags()
	if r.FinalURL != nil {
		u := *r.FinalURL
		c.FinalURL = &u
	}
	return c
}

// flowReportJSON fixes the key set and order of the emitted report.
type flowReportJSON struct {
	Test              string   `json:"test"`
	PageLoaded        bool     `json:"page_loaded"`
	SizeSelected      bool     `json:"size_selected"`
	PrimaryCTAClicked bool     `json:"primary_cta_clicked"`
	PopupAppeared     bool     `json:"popup_appeared"`
	DeclineClicked    bool     `json:"decline_clicked"`
	Redirected        bool     `json:"redirected"`
	FinalURL          *string  `json:"final_url"`
	Passed            bool     `json:"passed"`
	Errors            []string `json:"errors"`
	Details           []string `json:"details"`
}

// MarshalJSON emits the documented flow report key set.
func (r FlowReport) MarshalJSON() ([]byte, error) {
	out := flowReportJSON{
		Test:              r.Test,
		PageLoaded:        r.flags[FlagPageLoaded],
		SizeSelected:      r.flags[FlagSizeSelected],
		PrimaryCTAClicked: r.flags[FlagPrimaryCTAClicked],
		PopupAppeared:     r.flags[FlagPopupAppeared],
		DeclineClicked:    r.flags[FlagDeclineClicked],
		Redirected:        r.flags[FlagRedirected],
		FinalURL:          r.FinalURL,
		Passed:            r.Passed(),
		Errors:            r.Errors,
		Details:           r.Details,
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	if out.Details == nil {
		out.Details = []string{}
	}
	return json.Marshal(out)
}
