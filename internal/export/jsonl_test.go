package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/codemate/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		want       []string
		wantLines  int
	}{
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithTurns("test1", nil),
			wantLines:  0,
		},
		{
			name:       "transcript with turns",
			transcript: internal.CreateTestTranscript("test2"),
			want: []string{
				`"actor":"user"`,
				`"actor":"assistant"`,
				`"timestamp":"2024-01-02T15:04:00Z"`,
			},
			wantLines: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}
			if err := exporter.Export(tt.transcript, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			output := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("Export() output missing %q, got: %s", want, output)
				}
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			if output == "" {
				lines = nil
			}
			if len(lines) != tt.wantLines {
				t.Fatalf("Export() wrote %d lines, want %d", len(lines), tt.wantLines)
			}
			for i, line := range lines {
				var obj map[string]interface{}
				if err := json.Unmarshal([]byte(line), &obj); err != nil {
					t.Errorf("line %d is not valid JSON: %v", i, err)
				}
			}
		})
	}
}

func TestJSONLExporter_ZeroTimestampOmitted(t *testing.T) {
	tr := &internal.Transcript{SessionID: "x", Turns: []internal.Turn{{ID: "1", Text: "hi", IsUser: true}}}

	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(tr, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if strings.Contains(buf.String(), "timestamp") {
		t.Errorf("zero timestamp should be omitted, got: %s", buf.String())
	}
}
