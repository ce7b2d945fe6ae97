package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touille/internal/core/pipeline"
	"touille/internal/core/recipe"
	"touille/internal/pkg/common"
)

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "process", "recipes", "settings", "migrate"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestProcessCommand_Flags(t *testing.T) {
	for _, name := range []string{"user", "output", "keep-video", "transcript-only", "no-cache"} {
		assert.NotNil(t, processCmd.Flags().Lookup(name), name)
	}
	assert.Error(t, processCmd.Args(processCmd, nil))
	assert.NoError(t, processCmd.Args(processCmd, []string{"https://example.com/v"}))
}

func newSettingsCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "set"}
	addSettingsFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestSettingsUpdateFromFlags_OnlyChangedFields(t *testing.T) {
	update, err := settingsUpdateFromFlags(newSettingsCmd(t, "--spice", "4"))
	require.NoError(t, err)

	assert.False(t, update.DietaryRestrictions.Set)
	assert.False(t, update.CustomRules.Set)
	require.True(t, update.SpiceTolerance.Set)
	assert.Equal(t, 4, *update.SpiceTolerance.Value)
}

func TestSettingsUpdateFromFlags_ClearAndReset(t *testing.T) {
	update, err := settingsUpdateFromFlags(newSettingsCmd(t, "--clear-dietary", "--reset-spice", "--rules", "no cilantro"))
	require.NoError(t, err)

	assert.Equal(t, recipe.Null[string](), update.DietaryRestrictions)
	assert.Equal(t, recipe.Null[int](), update.SpiceTolerance)
	assert.Equal(t, recipe.Some("no cilantro"), update.CustomRules)
}

func TestSettingsUpdateFromFlags_Exclusive(t *testing.T) {
	_, err := settingsUpdateFromFlags(newSettingsCmd(t, "--dietary", "vegan", "--clear-dietary"))
	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
}

func TestRenderTable(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := renderTable(
		[]string{"ID", "Title", "URL", "Created"},
		summaryRows([]recipe.Summary{{ID: 7, URL: "https://example.com/v", Recipe: recipe.Recipe{Title: "Pancakes"}, CreatedAt: created}}),
		1,
	)

	assert.Contains(t, out, "Title")
	assert.NotContains(t, out, "TITLE")
	assert.Contains(t, out, "Pancakes")
	assert.Contains(t, out, "https://example.com/v")
	assert.True(t, strings.HasPrefix(out, "╭"))
}

func TestWriteResult_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	res := &pipeline.Result{Transcript: "mix flour"}

	require.NoError(t, writeResult(res, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"transcript": "mix flour"`)
	assert.Contains(t, string(data), `"caption": null`)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(common.NewValidationError("--user is required")))
	assert.Equal(t, 1, exitCode(common.ErrStorageUnavailable))
}
