package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/codemate/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(t *internal.Transcript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", t.SessionID)

	if !t.ExportedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", t.ExportedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Turns:** %d  \n", len(t.Turns))
	_, _ = fmt.Fprintf(w, "**Code blocks:** %d\n\n", len(t.CodeBlocks))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Conversation\n\n")

	for i, turn := range t.Turns {
		timestamp := ""
		if !turn.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", turn.DisplayTime())
		}

		content := escapeMarkdown(turn.Text)

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", turn.Actor(), timestamp, content)

		if i < len(t.Turns)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters outside code fences
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
