package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PATTERNSHELL_BANNER", "patternshell test")
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "patternshell dev")
	assert.Contains(t, out, "Commit: unknown")
}

func TestGroupsCommand(t *testing.T) {
	out, err := execute(t, "", "groups")
	require.NoError(t, err)
	assert.Contains(t, out, "command    append delete show upper\n")
	assert.Contains(t, out, "shell ")
	assert.NotContains(t, out, "data ")
}

func TestRootRunsSession(t *testing.T) {
	out, err := execute(t, "append hi\nshow\nundo\nshow\n", "--group", "command", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "patternshell test")
	assert.Contains(t, out, "hi\n")
	assert.Contains(t, out, "(empty)")
}

func TestRootRejectsUnknownGroup(t *testing.T) {
	_, err := execute(t, "", "--group", "nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize")
}

func TestRootRejectsArguments(t *testing.T) {
	_, err := execute(t, "", "extra")
	assert.Error(t, err)
}

func TestGroupsCommandReadsEnvironment(t *testing.T) {
	t.Setenv("PATTERNSHELL_HISTORY_MAX_ENTRIES", "lots")
	_, err := execute(t, "", "groups")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment overrides")
}
