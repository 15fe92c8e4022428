package internal

import (
	"time"

	"github.com/google/uuid"
)

// Mode is the voice session state. Exactly one mode is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeListening
	ModeProcessing
	ModeSpeaking
	// ModeEnded is terminal: the backend closed the session and only a clear
	// brings the controller back to idle.
	ModeEnded
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeListening:
		return "listening"
	case ModeProcessing:
		return "processing"
	case ModeSpeaking:
		return "speaking"
	case ModeEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Busy reports whether a voice turn is in flight.
func (m Mode) Busy() bool {
	return m == ModeListening || m == ModeProcessing || m == ModeSpeaking
}

// Turn is one message in the conversation log
type Turn struct {
	ID        string    `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	IsUser    bool      `json:"is_user" yaml:"is_user"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewTurn creates a turn stamped with the current time
func NewTurn(text string, isUser bool) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: time.Now(),
	}
}

// Actor returns "user" or "assistant"
func (t Turn) Actor() string {
	if t.IsUser {
		return "user"
	}
	return "assistant"
}

// DisplayTime formats the timestamp as hours and minutes
func (t Turn) DisplayTime() string {
	return t.Timestamp.Format("15:04")
}

// CodeBlock is one fenced code fragment extracted from an assistant turn
type CodeBlock struct {
	ID       string `json:"id" yaml:"id"`
	TurnID   string `json:"turn_id,omitempty" yaml:"turn_id,omitempty"`
	Language string `json:"language" yaml:"language"`
	Code     string `json:"code" yaml:"code"`
	IsHTML   bool   `json:"is_html" yaml:"is_html"`
}

// SessionState is a snapshot of the controller and store, published after
// every transition.
type SessionState struct {
	Mode           Mode
	Connected      bool
	Status         string
	SelectedIndex  int
	PreviewVisible bool
	TurnCount      int
	BlockCount     int
}

// Ended reports whether the backend terminated the session
func (s SessionState) Ended() bool {
	return s.Mode == ModeEnded
}

// Transcript is an exportable copy of the conversation
type Transcript struct {
	SessionID  string      `json:"session_id" yaml:"session_id"`
	ExportedAt time.Time   `json:"exported_at" yaml:"exported_at"`
	Turns      []Turn      `json:"turns" yaml:"turns"`
	CodeBlocks []CodeBlock `json:"code_blocks,omitempty" yaml:"code_blocks,omitempty"`
}
