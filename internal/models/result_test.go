package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunResult_Status(t *testing.T) {
	assert.Equal(t, StatusPassed, RunResult{Passed: true}.Status())
	assert.Equal(t, StatusFailed, RunResult{}.Status())
}
