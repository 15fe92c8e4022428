package internal

import (
	"time"
)

// CreateTestTranscript creates a transcript with one user and one assistant
// turn; the assistant turn carries a python block.
func CreateTestTranscript(sessionID string) *Transcript {
	conv := NewConversation()
	conv.Append(CreateTestTurn("Write hello world in python", true))
	conv.Append(CreateTestTurn("Sure:\n```python\nprint(\"hello\")\n```", false))
	return conv.Transcript(sessionID)
}

// CreateTestTranscriptWithTurns creates a transcript with custom turns
func CreateTestTranscriptWithTurns(sessionID string, turns []Turn) *Transcript {
	conv := NewConversation()
	for _, turn := range turns {
		conv.Append(turn)
	}
	return conv.Transcript(sessionID)
}

// CreateTestTurn creates a turn with a fixed timestamp
func CreateTestTurn(text string, isUser bool) Turn {
	turn := NewTurn(text, isUser)
	turn.Timestamp = time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)
	return turn
}

// CreateTestCodeBlock creates a code block
func CreateTestCodeBlock(language, code string) CodeBlock {
	return CodeBlock{
		ID:       "block-" + language,
		Language: language,
		Code:     code,
		IsHTML:   isHTMLBlock(language, code),
	}
}
