package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/codemate/internal"
	"github.com/iksnae/codemate/internal/tui"
	"github.com/spf13/cobra"
)

var (
	chatLogFile   string
	chatSaveDir   string
	chatExportDir string
	chatNoPreview bool
	chatNoDemo    bool
	chatAudioDir  string
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive voice client",
	Long: `Start the interactive voice client.

Press space to talk. The backend records and transcribes your request,
answers it and speaks the answer. Code blocks from answers appear in the
side panel; HTML blocks are previewed in a sandboxed page served on
localhost (the URL is shown in the panel).

When the backend is unreachable the client starts in demo mode with a
sample exchange.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := cfg.NewBackend()
		if err != nil {
			return fmt.Errorf("failed to create backend client: %w", err)
		}

		if chatLogFile != "" {
			f, err := tea.LogToFile(chatLogFile, "")
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer f.Close()
			internal.SetLogOutput(f)
		} else {
			internal.SetLogOutput(io.Discard)
		}

		renderer := internal.NewPreviewRenderer()
		var previewURL string
		if !chatNoPreview {
			srv, err := internal.StartPreviewServer(cfg.PreviewAddr, renderer)
			if err != nil {
				return fmt.Errorf("failed to start preview server: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()
			previewURL = srv.URL()
		}

		events := make(chan internal.SessionState, 32)
		opts := cfg.ControllerOptions()
		if chatAudioDir != "" {
			opts.AudioSink = internal.NewAudioDirSink(chatAudioDir)
		}
		opts.Renderer = renderer
		opts.OnChange = func(s internal.SessionState) {
			select {
			case events <- s:
			default:
			}
		}
		ctrl := internal.NewController(backend, internal.NewConversation(), opts)

		width, height := internal.TerminalSize(os.Stdout, 120, 30)
		m := tui.NewModel(ctrl, renderer, events, tui.Options{
			PreviewURL: previewURL,
			SaveDir:    chatSaveDir,
			ExportDir:  chatExportDir,
			Demo:       cfg.Demo && !chatNoDemo,
			Width:      width,
			Height:     height,
		})

		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("chat client failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatLogFile, "log-file", "", "Write logs to this file while the client runs")
	chatCmd.Flags().StringVar(&chatSaveDir, "save-dir", ".", "Directory for saved code blocks")
	chatCmd.Flags().StringVar(&chatExportDir, "export-dir", ".", "Directory for exported transcripts")
	chatCmd.Flags().StringVar(&chatAudioDir, "audio-dir", "", "Write reply audio to this directory")
	chatCmd.Flags().BoolVar(&chatNoPreview, "no-preview", false, "Do not start the HTML preview server")
	chatCmd.Flags().BoolVar(&chatNoDemo, "no-demo", false, "Do not load demo content when the backend is unreachable")
}
