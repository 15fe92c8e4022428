package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/iksnae/codemate/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose    bool
	configPath string
	envFile    string
	logLevel   string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	// flag-backed overrides, applied only when the flag was set
	flagAPIBase   string
	flagSessionID string
	flagTimeout   string
	flagProxy     string

	cfg internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codemate",
	Short: "Voice-driven coding assistant client",
	Long: `A terminal client for a voice coding assistant backend.

Speak a coding request, the backend transcribes it, answers and reads the
answer back. Code blocks in the answer are collected so you can browse,
copy and save them, and HTML blocks get a sandboxed live preview.

Features:
  • Push-to-talk voice turns (space)
  • Code block extraction with syntax highlighting
  • Sandboxed HTML preview served on localhost
  • Transcript export (JSONL, Markdown, YAML, JSON)

Quick Start:
  codemate healthcheck                  # Check the backend
  codemate chat                         # Start the interactive client
  codemate turn --format md             # Run one voice turn and print it

The backend defaults to http://localhost:8000; see --api.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		if !verbose && logLevel != "" {
			level, err := internal.ParseLogLevel(logLevel)
			if err != nil {
				return err
			}
			internal.SetLogLevel(level)
		}

		loaded, err := internal.LoadConfig(configPath, envFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := applyFlagOverrides(cmd.Flags(), &loaded); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (error, warn, info, debug)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", internal.DefaultConfigPath(), "Config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", ".env", "Env file path")
	rootCmd.PersistentFlags().StringVar(&flagAPIBase, "api", "", "Backend base URL (default http://localhost:8000)")
	rootCmd.PersistentFlags().StringVar(&flagSessionID, "session", "", "Remote session identifier (default \"default\")")
	rootCmd.PersistentFlags().StringVar(&flagTimeout, "timeout", "", "Per-request timeout, e.g. 30s (default 60s)")
	rootCmd.PersistentFlags().StringVarP(&flagProxy, "proxy", "p", "", "SOCKS5 proxy address for backend requests")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// applyFlagOverrides copies explicitly set flags over the loaded config
func applyFlagOverrides(fs *pflag.FlagSet, c *internal.Config) error {
	if fs.Changed("api") {
		c.APIBase = flagAPIBase
	}
	if fs.Changed("session") {
		c.SessionID = flagSessionID
	}
	if fs.Changed("proxy") {
		c.Proxy = flagProxy
	}
	if fs.Changed("timeout") {
		d, err := time.ParseDuration(flagTimeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		c.Timeout = d
	}
	return c.Validate()
}
