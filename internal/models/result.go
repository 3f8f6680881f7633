package models

import "time"

// Run status constants
const (
	StatusPassed = "PASSED" // Verdict was pass
	StatusFailed = "FAILED" // Verdict was fail
)

// Test names as they appear in emitted reports
const (
	TestPurchaseFlow = "A - $59 Direct Flow"
	TestUIQuality    = "C - UI Quality"
)

// RunResult is the envelope recorded for every completed test run
type RunResult struct {
	RunID     string        // Unique run identifier
	Test      string        // Test name (TestPurchaseFlow, TestUIQuality)
	TargetURL string        // Page under test
	Passed    bool          // Final verdict
	StartedAt time.Time     // When the run acquired its browser session
	Duration  time.Duration // Wall time of the run
	Errors    int           // Number of entries in the report's error log
	Report    []byte        // JSON report as emitted on stdout
}

// Status returns StatusPassed or StatusFailed
func (r RunResult) Status() string {
	if r.Passed {
		return StatusPassed
	}
	return StatusFailed
}
