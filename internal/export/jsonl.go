package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/codemate/internal"
)

// JSONLExporter exports transcripts in JSONL format (one turn per line)
type JSONLExporter struct{}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(t *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, turn := range t.Turns {
		obj := map[string]interface{}{
			"id":      turn.ID,
			"actor":   turn.Actor(),
			"content": turn.Text,
		}

		if !turn.Timestamp.IsZero() {
			obj["timestamp"] = turn.Timestamp.Format(time.RFC3339)
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode turn: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
