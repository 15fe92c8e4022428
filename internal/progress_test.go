package internal

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn: func() error {
				return nil
			},
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn: func() error {
				return errors.New("test error")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgress_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := ShowProgress(ctx, "Testing", func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	// Should handle context cancellation gracefully
	_ = err
}

func TestTerminalSize_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "width")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Fatal("IsTerminal() = true for a regular file")
	}
	if w, h := TerminalSize(f, 77, 22); w != 77 || h != 22 {
		t.Errorf("TerminalSize() = %dx%d, want fallback 77x22", w, h)
	}
}

func TestPrintFunctions(t *testing.T) {
	// Output goes to the test's stdout/stderr; only check they don't panic
	PrintSuccess("done")
	PrintInfo("info")
	PrintWarning("careful")
	PrintError("failed")
}
