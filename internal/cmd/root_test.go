package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHelp(t *testing.T) {
	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "funnelcheck")
	for _, sub := range []string{"flow", "ui-quality", "all", "history", "validate"} {
		assert.Contains(t, stdout, sub)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "funnelcheck", cmd.Use)
	assert.True(t, cmd.SilenceErrors, "main owns error printing")

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"flow", "ui-quality", "all", "history", "validate"} {
		assert.True(t, names[want], want)
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 1}
	assert.Equal(t, "exit status 1", err.Error())

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
}

func TestUnknownFlagFails(t *testing.T) {
	_, _, err := execute(t, "flow", "--no-such-flag")
	assert.Error(t, err)
}
