package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/codemate/internal"
)

// JSONExporter exports transcripts in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a transcript to JSON format
func (e *JSONExporter) Export(t *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(t)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
