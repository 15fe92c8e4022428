package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
)

var languageExtensions = map[string]string{
	"python":     ".py",
	"javascript": ".js",
	"typescript": ".ts",
	"html":       ".html",
	"css":        ".css",
}

// FileExtension returns the file extension used when saving a block
func FileExtension(language string) string {
	if ext, ok := languageExtensions[language]; ok {
		return ext
	}
	return ".txt"
}

// CodeFileName returns the file name for a block saved at t
func CodeFileName(block CodeBlock, t time.Time) string {
	return fmt.Sprintf("CodeMate-%d%s", t.UnixMilli(), FileExtension(block.Language))
}

// maxSaveAttempts bounds the numbered names tried when a file name is taken
const maxSaveAttempts = 1000

// SaveCodeBlock writes the block into dir and returns the file path. It never
// overwrites: when the name is taken it tries CodeMate-<ms>-2<ext>, -3 and so on.
func SaveCodeBlock(dir string, block CodeBlock) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	name := CodeFileName(block, time.Now())
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]

	for n := 1; n <= maxSaveAttempts; n++ {
		candidate := name
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", path, err)
		}
		if _, err := f.WriteString(block.Code); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write code block: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to write code block: %w", err)
		}

		LogDebug("Saved %s block to %s", block.Language, path)
		return path, nil
	}
	return "", fmt.Errorf("failed to save code block: no free file name for %s in %s", name, dir)
}

// CopyCodeBlock puts the block's code on the system clipboard
func CopyCodeBlock(block CodeBlock) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not available on this system")
	}
	if err := clipboard.WriteAll(block.Code); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// NewAudioDirSink returns an AudioSink writing each reply's audio to dir
func NewAudioDirSink(dir string) AudioSink {
	return func(turn Turn, audio []byte) error {
		if len(audio) == 0 {
			return nil
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create audio directory: %w", err)
		}
		path := filepath.Join(dir, fmt.Sprintf("reply-%d.audio", turn.Timestamp.UnixMilli()))
		if err := os.WriteFile(path, audio, 0644); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
		LogDebug("Wrote %d bytes of reply audio to %s", len(audio), path)
		return nil
	}
}
