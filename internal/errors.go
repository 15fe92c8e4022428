package internal

import (
	"errors"
	"fmt"
)

// ErrTurnInProgress is returned when an operation needs the controller idle
var ErrTurnInProgress = errors.New("voice turn in progress")

// ConnectivityError represents a failed health check
type ConnectivityError struct {
	URL    string
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *ConnectivityError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("connectivity error: %s returned status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("connectivity error: %s: %v", e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Unreachable reports whether the backend could not be reached at all, as
// opposed to answering with a failure status.
func (e *ConnectivityError) Unreachable() bool {
	return e.Status == 0
}

// TranscriptionError represents a failed or empty speech recognition
type TranscriptionError struct {
	Reason string // human readable
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transcription error: %s", e.Reason)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// ReplyError represents a failed chat reply request
type ReplyError struct {
	SessionID string
	Reason    string
	Err       error
}

func (e *ReplyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reply error [%s]: %s: %v", e.SessionID, e.Reason, e.Err)
	}
	return fmt.Sprintf("reply error [%s]: %s", e.SessionID, e.Reason)
}

func (e *ReplyError) Unwrap() error {
	return e.Err
}

// SynthesisError represents a failed speech synthesis. It is never fatal to
// a voice turn.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis error: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a backend call that exceeded its deadline
type TimeoutError struct {
	Step string // "transcription", "reply", "synthesis"
	Err  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s timed out: %v", e.Step, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// SessionError represents a failed remote session termination
type SessionError struct {
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session error [%s]: %v", e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during transcript export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// StatusMessage turns a voice turn error into the short line shown to the
// user.
func StatusMessage(err error) string {
	var (
		te  *TranscriptionError
		re  *ReplyError
		toe *TimeoutError
	)
	switch {
	case errors.As(err, &toe):
		return fmt.Sprintf("Error: %s timed out", toe.Step)
	case errors.As(err, &te):
		return "Error: " + te.Reason
	case errors.As(err, &re):
		return "Error: " + re.Reason
	default:
		return "Error: " + err.Error()
	}
}
