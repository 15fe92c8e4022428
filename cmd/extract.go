package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/codemate/internal"
	"github.com/spf13/cobra"
)

var (
	extractSaveDir string
	extractJSON    bool
	extractShow    bool
)

var (
	langStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	htmlTagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract fenced code blocks from text",
	Long: "Extract the ``` fenced code blocks from a file (or stdin when the file\n" +
		"is omitted or \"-\") the same way assistant replies are processed.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		blocks := internal.ExtractCodeBlocks(text)
		out := cmd.OutOrStdout()

		if extractJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if blocks == nil {
				blocks = []internal.CodeBlock{}
			}
			return enc.Encode(blocks)
		}

		if len(blocks) == 0 {
			fmt.Fprintln(out, "No code blocks found.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tLANGUAGE\tLINES\tHTML")
		for i, b := range blocks {
			html := ""
			if b.IsHTML {
				html = htmlTagStyle.Render("yes")
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i+1, langStyle.Render(b.Language), countLines(b.Code), html)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if extractShow {
			for i, b := range blocks {
				fmt.Fprintf(out, "\n--- %d: %s ---\n%s\n", i+1, b.Language, b.Code)
			}
		}

		if extractSaveDir != "" {
			for _, b := range blocks {
				path, err := internal.SaveCodeBlock(extractSaveDir, b)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved %s\n", path)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractSaveDir, "save", "", "Write each block to this directory")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print blocks as JSON")
	extractCmd.Flags().BoolVar(&extractShow, "show", false, "Print block contents after the table")
}

// readInput reads the named file, or stdin for "-" or no argument
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
