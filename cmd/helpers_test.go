package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/geomatics-io/landstat/internal/config"
)

// withConfig swaps the package-level config for the test's duration.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

// captureOutput redirects a command's stdout into a buffer.
func captureOutput(t *testing.T, cmd *cobra.Command) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	return &buf
}
