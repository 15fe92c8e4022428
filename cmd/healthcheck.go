package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/codemate/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	infoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the assistant backend is reachable",
	Long: `Check the health of the codemate backend by verifying:
  • Configuration is valid
  • The backend answers GET /health within the health timeout

The check runs once and never retries. Exits non-zero when the backend is
unavailable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 CodeMate Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Backend: %s\n", cfg.APIBase)
			fmt.Fprintf(out, "   Session: %s\n", cfg.SessionID)
			fmt.Fprintf(out, "   Health timeout: %s\n", cfg.HealthTimeout)
			if cfg.Proxy != "" {
				fmt.Fprintf(out, "   Proxy: %s\n", cfg.Proxy)
			}
		}
		fmt.Fprintln(out)

		backend, err := cfg.NewBackend()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to create backend client:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}

		// Step 2: Health endpoint
		fmt.Fprintln(out, infoStyle.Render("Step 2: Contacting backend..."))
		var connected bool
		var checkErr error
		ctx := contextOrBackground(cmd)
		_ = internal.ShowProgress(ctx, "GET "+backend.BaseURL()+"/health", func() error {
			connected, checkErr = internal.CheckConnection(ctx, backend, cfg.HealthTimeout)
			return checkErr
		})
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)

		if connected {
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			fmt.Fprintln(out, successStyle.Render("   • "+internal.StatusConnected))
			return nil
		}

		fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
		fmt.Fprintln(out, warningStyle.Render("   • "+internal.ConnectivityStatus(checkErr)))
		if healthcheckVerbose && checkErr != nil {
			fmt.Fprintf(out, "   Error details: %v\n", checkErr)
		}
		return fmt.Errorf("health check failed: %w", checkErr)
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
}

// contextOrBackground returns the command context, which is nil when the
// command runs through Execute without ExecuteContext.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
