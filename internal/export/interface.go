package export

import (
	"fmt"
	"io"

	"github.com/iksnae/codemate/internal"
)

// Exporter defines the interface for all transcript formats
type Exporter interface {
	Export(t *internal.Transcript, w io.Writer) error
	Extension() string
}

// Formats lists the supported format names
var Formats = []string{"jsonl", "md", "yaml", "json"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}
