package tui

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/iksnae/codemate/internal"
)

// markdownRenderer renders assistant replies. It falls back to the raw text
// when glamour cannot be set up or fails on the input.
type markdownRenderer struct {
	width int
	r     *glamour.TermRenderer
}

func newMarkdownRenderer(width int) *markdownRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		internal.LogDebug("Markdown renderer unavailable: %v", err)
		return &markdownRenderer{width: width}
	}
	return &markdownRenderer{width: width, r: r}
}

func (m *markdownRenderer) render(text string) string {
	if m == nil || m.r == nil {
		return text
	}
	out, err := m.r.Render(text)
	if err != nil {
		internal.LogDebug("Markdown render failed: %v", err)
		return text
	}
	return strings.Trim(out, "\n")
}

// codePlaceholder stands in for fenced code in the log; the code itself is
// shown in the code panel.
const codePlaceholder = "*[Code generated - check editor]*"

// renderTurns lays out the conversation log
func renderTurns(turns []internal.Turn, md *markdownRenderer) string {
	if len(turns) == 0 {
		return dimStyle.Render("No messages yet. Press space and ask for some code.")
	}

	var b strings.Builder
	for i, turn := range turns {
		role := assistantRoleStyle.Render(" CodeMate ")
		body := md.render(internal.ReplaceCodeBlocks(turn.Text, codePlaceholder))
		if turn.IsUser {
			role = userRoleStyle.Render(" You ")
			body = turn.Text
		}
		fmt.Fprintf(&b, "%s %s\n%s\n", role, timestampStyle.Render(turn.DisplayTime()), body)
		if i < len(turns)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// highlight returns the code with terminal syntax highlighting, or the
// plain code when no lexer applies.
func highlight(block internal.CodeBlock) string {
	var b strings.Builder
	if err := quick.Highlight(&b, block.Code, block.Language, "terminal256", "monokai"); err != nil {
		return block.Code
	}
	return strings.TrimRight(b.String(), "\n")
}
