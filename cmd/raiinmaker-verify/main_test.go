package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stake-plus/raiinmaker-verify/src/actions/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintResultText(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	jsonOutput = false
	require.NoError(t, printResult(cmd, &verify.Result{Text: "✅ done"}))
	assert.Equal(t, "✅ done\n", out.String())
}

func TestPrintResultJSON(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	jsonOutput = true
	defer func() { jsonOutput = false }()
	require.NoError(t, printResult(cmd, &verify.Result{Text: "x", TaskID: "task-1", Status: "pending"}))
	assert.Contains(t, out.String(), `"taskId": "task-1"`)
}

func TestCampaignInputReadsImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banner.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o600))

	campaignName, campaignImage = "Launch", path
	defer func() { campaignName, campaignImage = "", "" }()

	in, err := campaignInput()
	require.NoError(t, err)
	assert.Equal(t, "Launch", in.Name)
	assert.Equal(t, "banner.png", in.ImageFilename)
	assert.Len(t, in.Image, 4)
}

func TestCampaignInputMissingImage(t *testing.T) {
	campaignImage = filepath.Join(t.TempDir(), "missing.png")
	defer func() { campaignImage = "" }()

	_, err := campaignInput()
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "verify", "status", "tasks", "validate", "campaign"} {
		assert.True(t, names[want], want)
	}
}
