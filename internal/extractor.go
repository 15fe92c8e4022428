package internal

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// codeFenceRe matches a fenced block: an optional word tag on the opening
// fence line, then the shortest body up to the next fence.
var codeFenceRe = regexp.MustCompile("```(\\w+)?\\n([\\s\\S]*?)```")

const defaultLanguage = "text"

// ExtractCodeBlocks returns the fenced code blocks in text, in the order they
// appear. Text without fences yields nil; an unterminated trailing fence is
// ignored.
func ExtractCodeBlocks(text string) []CodeBlock {
	matches := codeFenceRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		lang := strings.ToLower(m[1])
		if lang == "" {
			lang = defaultLanguage
		}
		code := strings.TrimSpace(m[2])

		blocks = append(blocks, CodeBlock{
			ID:       uuid.NewString(),
			Language: lang,
			Code:     code,
			IsHTML:   isHTMLBlock(lang, code),
		})
	}

	return blocks
}

// ReplaceCodeBlocks swaps every complete fenced block in text for placeholder
func ReplaceCodeBlocks(text, placeholder string) string {
	return codeFenceRe.ReplaceAllLiteralString(text, placeholder)
}

func isHTMLBlock(lang, code string) bool {
	return lang == "html" ||
		strings.Contains(code, "<html") ||
		strings.Contains(code, "<!DOCTYPE")
}

// HasHTML reports whether any block is HTML
func HasHTML(blocks []CodeBlock) bool {
	for _, b := range blocks {
		if b.IsHTML {
			return true
		}
	}
	return false
}
