package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/codemate/internal"
	"github.com/spf13/cobra"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "End the remote conversation session",
	Long: `Ask the backend to forget the conversation for the configured session
(DELETE /session/{id}). The interactive client does this on "c"; this
command does it from scripts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := cfg.NewBackend()
		if err != nil {
			return fmt.Errorf("failed to create backend client: %w", err)
		}

		ctx, cancel := context.WithTimeout(contextOrBackground(cmd), cfg.Timeout)
		defer cancel()
		if err := backend.EndSession(ctx, cfg.SessionID); err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Session %q cleared", cfg.SessionID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
