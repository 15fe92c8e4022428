package internal

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestConnectivityError(t *testing.T) {
	originalErr := errors.New("connection refused")

	unreachable := &ConnectivityError{URL: "http://localhost:8000/health", Err: originalErr}
	if !strings.Contains(unreachable.Error(), "connectivity error") {
		t.Errorf("ConnectivityError.Error() should contain 'connectivity error', got: %q", unreachable.Error())
	}
	if !unreachable.Unreachable() {
		t.Error("ConnectivityError without status should be unreachable")
	}
	if !errors.Is(unreachable, originalErr) {
		t.Error("ConnectivityError.Unwrap() should return original error")
	}

	unhealthy := &ConnectivityError{URL: "http://localhost:8000/health", Status: 503}
	if unhealthy.Unreachable() {
		t.Error("ConnectivityError with status should not be unreachable")
	}
	if !strings.Contains(unhealthy.Error(), "503") {
		t.Errorf("ConnectivityError.Error() should contain status, got: %q", unhealthy.Error())
	}
}

func TestTranscriptionError(t *testing.T) {
	originalErr := errors.New("mic busy")
	err := &TranscriptionError{Reason: "Speech recognition failed", Err: originalErr}

	if !strings.Contains(err.Error(), "transcription error") {
		t.Errorf("TranscriptionError.Error() should contain 'transcription error', got: %q", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("TranscriptionError.Unwrap() should return original error")
	}

	bare := &TranscriptionError{Reason: "Could not understand audio"}
	if !strings.Contains(bare.Error(), "Could not understand audio") {
		t.Errorf("TranscriptionError.Error() should contain reason, got: %q", bare.Error())
	}
}

func TestReplyError(t *testing.T) {
	originalErr := errors.New("bad gateway")
	err := &ReplyError{SessionID: "default", Reason: "Chat response failed", Err: originalErr}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "reply error") {
		t.Errorf("ReplyError.Error() should contain 'reply error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "default") {
		t.Errorf("ReplyError.Error() should contain session ID, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("ReplyError.Unwrap() should return original error")
	}
}

func TestSynthesisError(t *testing.T) {
	originalErr := errors.New("tts down")
	err := &SynthesisError{Err: originalErr}

	if !strings.Contains(err.Error(), "synthesis error") {
		t.Errorf("SynthesisError.Error() should contain 'synthesis error', got: %q", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("SynthesisError.Unwrap() should return original error")
	}
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Step: "reply", Err: context.DeadlineExceeded}

	if !strings.Contains(err.Error(), "reply timed out") {
		t.Errorf("TimeoutError.Error() should name the step, got: %q", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("TimeoutError.Unwrap() should return original error")
	}
}

func TestSessionError(t *testing.T) {
	originalErr := errors.New("not found")
	err := &SessionError{SessionID: "s1", Err: originalErr}

	if !strings.Contains(err.Error(), "s1") {
		t.Errorf("SessionError.Error() should contain session ID, got: %q", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("SessionError.Unwrap() should return original error")
	}
}

func TestExportError(t *testing.T) {
	originalErr := errors.New("write failed")
	err := &ExportError{
		Format: "jsonl",
		Path:   "/test/output.jsonl",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "export error") {
		t.Errorf("ExportError.Error() should contain 'export error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "jsonl") {
		t.Errorf("ExportError.Error() should contain format, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("ExportError.Unwrap() should return original error")
	}
}

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "transcription",
			err:  &TranscriptionError{Reason: "Could not understand audio"},
			want: "Error: Could not understand audio",
		},
		{
			name: "reply",
			err:  &ReplyError{Reason: "Chat response failed"},
			want: "Error: Chat response failed",
		},
		{
			name: "timeout wins over wrapped reason",
			err:  &TimeoutError{Step: "transcription", Err: &TranscriptionError{Reason: "Speech recognition failed"}},
			want: "Error: transcription timed out",
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "Error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusMessage(tt.err); got != tt.want {
				t.Errorf("StatusMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
