package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so earlier executions of
// rootCmd don't leak into the next one
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs rootCmd with args, isolated from the user's config and
// env files, and returns what the command wrote to its output.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	dir := t.TempDir()
	full := append([]string{
		"--config", filepath.Join(dir, "none.yaml"),
		"--env", filepath.Join(dir, "none.env"),
	}, args...)

	var out bytes.Buffer
	rootCmd.SetArgs(full)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))

	err := rootCmd.Execute()
	return out.String(), err
}
