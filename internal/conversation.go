package internal

import (
	"sync"
	"time"
)

// Conversation is the append-only turn log together with the code blocks
// extracted from assistant turns, the selected block and the preview flag.
type Conversation struct {
	mu             sync.RWMutex
	turns          []Turn
	blocks         []CodeBlock
	selected       int
	previewVisible bool
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a turn. Assistant turns contribute their code blocks to the
// shared collection; the new blocks are returned. Any new HTML block makes
// the preview visible.
func (c *Conversation) Append(turn Turn) []CodeBlock {
	var blocks []CodeBlock
	if !turn.IsUser {
		blocks = ExtractCodeBlocks(turn.Text)
		for i := range blocks {
			blocks[i].TurnID = turn.ID
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, turn)
	if len(blocks) > 0 {
		c.blocks = append(c.blocks, blocks...)
		if HasHTML(blocks) {
			c.previewVisible = true
		}
	}

	return blocks
}

// All returns the turns in display order
func (c *Conversation) All() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// CodeBlocks returns the extracted blocks in extraction order
func (c *Conversation) CodeBlocks() []CodeBlock {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]CodeBlock, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Len returns the number of turns
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Reset clears turns, code blocks, selection and preview flag as one
// operation.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = nil
	c.blocks = nil
	c.selected = 0
	c.previewVisible = false
}

// Selected returns the block at the selected index
func (c *Conversation) Selected() (CodeBlock, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.blocks) == 0 {
		return CodeBlock{}, false
	}
	return c.blocks[c.selected], true
}

// SelectedIndex returns the selected block index
func (c *Conversation) SelectedIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Select moves the selection to index i, clamped to the valid range, and
// returns the resulting index.
func (c *Conversation) Select(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = clamp(i, 0, len(c.blocks)-1)
	return c.selected
}

// SelectNext moves the selection one block forward
func (c *Conversation) SelectNext() int {
	return c.Select(c.SelectedIndex() + 1)
}

// SelectPrev moves the selection one block back
func (c *Conversation) SelectPrev() int {
	return c.Select(c.SelectedIndex() - 1)
}

// PreviewVisible reports whether the HTML preview is shown
func (c *Conversation) PreviewVisible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.previewVisible
}

// TogglePreview flips the preview flag. It only has an effect when the
// selected block is HTML; the resulting flag is returned.
func (c *Conversation) TogglePreview() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) == 0 || !c.blocks[c.selected].IsHTML {
		return c.previewVisible
	}
	c.previewVisible = !c.previewVisible
	return c.previewVisible
}

// Transcript copies the conversation for export
func (c *Conversation) Transcript(sessionID string) *Transcript {
	return &Transcript{
		SessionID:  sessionID,
		ExportedAt: time.Now(),
		Turns:      c.All(),
		CodeBlocks: c.CodeBlocks(),
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
