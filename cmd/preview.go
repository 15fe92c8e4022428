package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/iksnae/codemate/internal"
	"github.com/spf13/cobra"
)

var (
	previewAddr  string
	previewIndex int
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Serve a sandboxed preview of an HTML code block",
	Long: `Extract code blocks from a file (or stdin) and serve the selected HTML
block in a sandboxed frame on localhost until interrupted.

Scripts run inside the frame, but the frame cannot navigate the page,
open popups or reach the preview server's origin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		conv := internal.NewConversation()
		conv.Append(internal.NewTurn(text, false))
		if len(conv.CodeBlocks()) == 0 {
			return fmt.Errorf("no code blocks found")
		}

		idx := previewIndex - 1
		if previewIndex == 0 {
			idx = firstHTML(conv.CodeBlocks())
		}
		conv.Select(idx)
		block, _ := conv.Selected()
		if !block.IsHTML {
			return fmt.Errorf("block %d is %s, not HTML", conv.SelectedIndex()+1, block.Language)
		}

		renderer := internal.NewPreviewRenderer()
		renderer.Render(&block, true)

		addr := cfg.PreviewAddr
		if cmd.Flags().Changed("addr") {
			addr = previewAddr
		}
		srv, err := internal.StartPreviewServer(addr, renderer)
		if err != nil {
			return err
		}

		internal.PrintSuccess("Previewing block " + fmt.Sprint(conv.SelectedIndex()+1) + " at " + srv.URL())
		internal.PrintInfo("Press Ctrl+C to stop")

		ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt)
		defer stop()
		<-ctx.Done()

		return srv.Shutdown(contextOrBackground(cmd))
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringVar(&previewAddr, "addr", "127.0.0.1:0", "Listen address for the preview server")
	previewCmd.Flags().IntVarP(&previewIndex, "index", "i", 0, "Block number to preview (default: first HTML block)")
}

func firstHTML(blocks []internal.CodeBlock) int {
	for i, b := range blocks {
		if b.IsHTML {
			return i
		}
	}
	return 0
}
