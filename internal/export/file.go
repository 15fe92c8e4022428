package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/codemate/internal"
)

// WriteFile exports the transcript into dir and returns the file path
func WriteFile(t *internal.Transcript, format, dir string) (string, error) {
	exporter, err := NewExporter(format)
	if err != nil {
		return "", &internal.ExportError{Format: format, Path: dir, Err: err}
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &internal.ExportError{Format: format, Path: dir, Err: err}
	}

	name := fmt.Sprintf("codemate-%s-%d.%s", t.SessionID, t.ExportedAt.Unix(), exporter.Extension())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}

	if err := exporter.Export(t, f); err != nil {
		_ = f.Close()
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}

	internal.LogInfo("Exported %d turns to %s", len(t.Turns), path)
	return path, nil
}
