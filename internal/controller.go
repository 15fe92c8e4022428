package internal

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultSessionID is the session identifier sent with every chat request
const DefaultSessionID = "default"

// DefaultRequestTimeout bounds each backend call of a voice turn
const DefaultRequestTimeout = 60 * time.Second

// Voice turn status lines
const (
	StatusListening  = "Listening... Speak now!"
	StatusProcessing = "Processing your request..."
	StatusSpeaking   = "Speaking response..."
	StatusReady      = "Ready for your next question!"
	StatusEnded      = "Session ended. Clear the conversation to start again."
	StatusCleared    = "Conversation cleared. Ready for a fresh start!"
	StatusCancelled  = "Error: cancelled"
)

// AudioSink receives the synthesized audio of a reply
type AudioSink func(turn Turn, audio []byte) error

// ControllerOptions configures a Controller
type ControllerOptions struct {
	SessionID     string
	Timeout       time.Duration // per backend call; 0 means DefaultRequestTimeout
	HealthTimeout time.Duration
	AudioSink     AudioSink
	// OnChange is called with a snapshot after every state change. It runs
	// on the goroutine that caused the change and must not call back into
	// the controller.
	OnChange func(SessionState)
	// Renderer, when set, is re-rendered whenever blocks, selection or
	// preview visibility change.
	Renderer *PreviewRenderer
}

// TurnResult is the outcome of one voice turn
type TurnResult struct {
	Ran        bool // false when the turn was refused (busy or offline)
	UserTurn   *Turn
	ReplyTurn  *Turn
	Reply      ChatReply
	NewBlocks  []CodeBlock
	Audio      []byte
	Err        error // transcription, reply or timeout error
	SpeechErr  error // non-fatal synthesis error
	FinalState SessionState
}

// Controller runs voice turns against the backend and owns the mode machine
type Controller struct {
	backend Backend
	conv    *Conversation
	opts    ControllerOptions

	mu        sync.Mutex
	mode      Mode
	connected bool
	clearing  bool
	status    string
}

// NewController creates an idle, disconnected controller
func NewController(backend Backend, conv *Conversation, opts ControllerOptions) *Controller {
	if opts.SessionID == "" {
		opts.SessionID = DefaultSessionID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	if conv == nil {
		conv = NewConversation()
	}
	return &Controller{
		backend: backend,
		conv:    conv,
		opts:    opts,
		mode:    ModeIdle,
		status:  "Checking connection...",
	}
}

// Conversation returns the store the controller appends to
func (c *Controller) Conversation() *Conversation {
	return c.conv
}

// SessionID returns the remote session identifier
func (c *Controller) SessionID() string {
	return c.opts.SessionID
}

// State returns a snapshot of the session
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() SessionState {
	return SessionState{
		Mode:           c.mode,
		Connected:      c.connected,
		Status:         c.status,
		SelectedIndex:  c.conv.SelectedIndex(),
		PreviewVisible: c.conv.PreviewVisible(),
		TurnCount:      c.conv.Len(),
		BlockCount:     len(c.conv.CodeBlocks()),
	}
}

// CheckConnection runs the health check and records the result. It is
// meant to run once at startup; it never retries.
func (c *Controller) CheckConnection(ctx context.Context) (bool, error) {
	ok, err := CheckConnection(ctx, c.backend, c.opts.HealthTimeout)

	c.mu.Lock()
	c.connected = ok
	c.status = ConnectivityStatus(err)
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(state)
	return ok, err
}

// begin moves Idle to Listening when a turn may start
func (c *Controller) begin() bool {
	c.mu.Lock()
	if c.mode != ModeIdle || !c.connected || c.clearing {
		c.mu.Unlock()
		return false
	}
	c.mode = ModeListening
	c.status = StatusListening
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(state)
	return true
}

func (c *Controller) transition(mode Mode, status string) SessionState {
	c.mu.Lock()
	c.mode = mode
	c.status = status
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(state)
	return state
}

// RunVoiceTurn performs capture, transcription, reply and synthesis in
// order. It does nothing unless the controller is idle and connected. Every
// failure is converted to a status line and the controller always leaves
// the listening, processing and speaking modes before returning.
func (c *Controller) RunVoiceTurn(ctx context.Context) TurnResult {
	if !c.begin() {
		state := c.State()
		LogDebug("Voice turn refused: mode=%s connected=%t", state.Mode, state.Connected)
		return TurnResult{FinalState: state}
	}

	res := TurnResult{Ran: true}

	text, err := c.transcribe(ctx)
	if err != nil {
		return c.fail(res, err)
	}
	user := NewTurn(text, true)
	c.conv.Append(user)
	res.UserTurn = &user
	LogInfo("Transcribed: %q", text)

	c.transition(ModeProcessing, StatusProcessing)

	reply, err := c.reply(ctx, text)
	if err != nil {
		return c.fail(res, err)
	}
	assistant := NewTurn(reply.Response, false)
	res.NewBlocks = c.conv.Append(assistant)
	res.ReplyTurn = &assistant
	res.Reply = reply
	c.rerender()
	LogInfo("Reply received: %d chars, %d code block(s)", len(reply.Response), len(res.NewBlocks))

	c.transition(ModeSpeaking, StatusSpeaking)

	audio, err := c.synthesize(ctx, reply.Response)
	if err != nil {
		LogWarn("Speech synthesis failed: %v", err)
		res.SpeechErr = err
	} else {
		res.Audio = audio
		if c.opts.AudioSink != nil {
			if err := c.opts.AudioSink(assistant, audio); err != nil {
				LogWarn("Audio sink failed: %v", err)
			}
		}
	}

	if reply.IsExit {
		LogInfo("Backend ended session %s", c.opts.SessionID)
		res.FinalState = c.transition(ModeEnded, StatusEnded)
		return res
	}

	res.FinalState = c.transition(ModeIdle, StatusReady)
	return res
}

func (c *Controller) fail(res TurnResult, err error) TurnResult {
	LogError("Voice turn failed: %v", err)
	res.Err = err

	status := StatusMessage(err)
	if errors.Is(err, context.Canceled) {
		status = StatusCancelled
	}
	res.FinalState = c.transition(ModeIdle, status)
	return res
}

func (c *Controller) transcribe(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	text, err := c.backend.Recognize(ctx)
	if err != nil {
		var te *TranscriptionError
		if !errors.As(err, &te) {
			err = &TranscriptionError{Reason: "Speech recognition failed", Err: err}
		}
		return "", classify(ctx, "transcription", err)
	}
	return text, nil
}

func (c *Controller) reply(ctx context.Context, text string) (ChatReply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	reply, err := c.backend.Chat(ctx, text, c.opts.SessionID)
	if err != nil {
		var re *ReplyError
		if !errors.As(err, &re) {
			err = &ReplyError{SessionID: c.opts.SessionID, Reason: "Chat response failed", Err: err}
		}
		return ChatReply{}, classify(ctx, "reply", err)
	}
	return reply, nil
}

func (c *Controller) synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	audio, err := c.backend.Synthesize(ctx, text)
	if err != nil {
		var se *SynthesisError
		if !errors.As(err, &se) {
			err = &SynthesisError{Err: err}
		}
		return nil, err
	}
	return audio, nil
}

// classify turns a deadline hit into a TimeoutError
func classify(ctx context.Context, step string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Step: step, Err: err}
	}
	return err
}

// Clear ends the remote session (best effort) and resets the conversation.
// It is refused while a voice turn is in flight.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.mode.Busy() || c.clearing {
		c.mu.Unlock()
		return ErrTurnInProgress
	}
	c.clearing = true
	connected := c.connected
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.clearing = false
		c.mu.Unlock()
	}()

	if connected {
		ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		if err := c.backend.EndSession(ctx, c.opts.SessionID); err != nil {
			LogWarn("Failed to end remote session: %v", err)
		}
		cancel()
	}

	c.conv.Reset()
	c.rerender()
	c.transition(ModeIdle, StatusCleared)
	return nil
}

// Select changes the selected code block and re-renders the preview
func (c *Controller) Select(i int) int {
	idx := c.conv.Select(i)
	c.rerender()
	c.publish(c.State())
	return idx
}

// SelectNext moves the selection forward
func (c *Controller) SelectNext() int {
	return c.Select(c.conv.SelectedIndex() + 1)
}

// SelectPrev moves the selection back
func (c *Controller) SelectPrev() int {
	return c.Select(c.conv.SelectedIndex() - 1)
}

// TogglePreview flips preview visibility for an HTML selection
func (c *Controller) TogglePreview() bool {
	visible := c.conv.TogglePreview()
	c.rerender()
	c.publish(c.State())
	return visible
}

// LoadDemo seeds the conversation with the offline demo exchange
func (c *Controller) LoadDemo() {
	for _, turn := range DemoTurns() {
		c.conv.Append(turn)
	}
	c.rerender()
	c.publish(c.State())
}

func (c *Controller) rerender() {
	if c.opts.Renderer == nil {
		return
	}
	block, ok := c.conv.Selected()
	if !ok {
		c.opts.Renderer.Render(nil, false)
		return
	}
	c.opts.Renderer.Render(&block, c.conv.PreviewVisible())
}

func (c *Controller) publish(state SessionState) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(state)
	}
}
