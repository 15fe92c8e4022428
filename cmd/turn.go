package cmd

import (
	"fmt"

	"github.com/iksnae/codemate/internal"
	"github.com/iksnae/codemate/internal/export"
	"github.com/spf13/cobra"
)

var (
	turnFormat   string
	turnSaveDir  string
	turnAudioDir string
	turnQuiet    bool
)

// turnCmd represents the turn command
var turnCmd = &cobra.Command{
	Use:   "turn",
	Short: "Run a single voice turn and print the result",
	Long: `Run one voice turn without the interactive client: check the backend,
record and transcribe a request, fetch the reply and synthesize it. The
resulting exchange is printed in the chosen format (jsonl, md, yaml, json).

Use --save-dir to write every extracted code block to a file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(turnFormat)
		if err != nil {
			return err
		}

		backend, err := cfg.NewBackend()
		if err != nil {
			return fmt.Errorf("failed to create backend client: %w", err)
		}

		opts := cfg.ControllerOptions()
		if turnAudioDir != "" {
			opts.AudioSink = internal.NewAudioDirSink(turnAudioDir)
		}
		if !turnQuiet {
			opts.OnChange = func(s internal.SessionState) {
				internal.LogInfo("[%s] %s", s.Mode, s.Status)
			}
		}
		conv := internal.NewConversation()
		ctrl := internal.NewController(backend, conv, opts)

		ctx := contextOrBackground(cmd)
		if ok, err := ctrl.CheckConnection(ctx); !ok {
			return fmt.Errorf("backend unavailable: %w", err)
		}

		res := ctrl.RunVoiceTurn(ctx)
		if res.Err != nil {
			return fmt.Errorf("%s: %w", res.FinalState.Status, res.Err)
		}
		if res.SpeechErr != nil {
			internal.PrintWarning("Reply audio unavailable: " + res.SpeechErr.Error())
		}

		if err := exporter.Export(conv.Transcript(ctrl.SessionID()), cmd.OutOrStdout()); err != nil {
			return &internal.ExportError{Format: turnFormat, Path: "stdout", Err: err}
		}

		if turnSaveDir != "" {
			for _, block := range res.NewBlocks {
				path, err := internal.SaveCodeBlock(turnSaveDir, block)
				if err != nil {
					return err
				}
				internal.PrintSuccess("Saved " + block.Language + " block to " + path)
			}
		}

		if res.FinalState.Ended() {
			internal.PrintInfo(internal.StatusEnded)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(turnCmd)
	turnCmd.Flags().StringVarP(&turnFormat, "format", "f", "md", "Output format (jsonl, md, yaml, json)")
	turnCmd.Flags().StringVar(&turnSaveDir, "save-dir", "", "Write extracted code blocks to this directory")
	turnCmd.Flags().StringVar(&turnAudioDir, "audio-dir", "", "Write reply audio to this directory")
	turnCmd.Flags().BoolVarP(&turnQuiet, "quiet", "q", false, "Do not log state transitions")
}
