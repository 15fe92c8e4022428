package internal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// stubBackend is a scripted Backend that records every call
type stubBackend struct {
	mu sync.Mutex

	healthErr    error
	text         string
	recognizeErr error
	reply        ChatReply
	chatErr      error
	audio        []byte
	synthErr     error
	endErr       error
	block        chan struct{} // when set, Recognize waits on it or ctx
	calls        []string
}

func (s *stubBackend) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *stubBackend) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubBackend) Health(ctx context.Context) error {
	s.record("health")
	return s.healthErr
}

func (s *stubBackend) Recognize(ctx context.Context) (string, error) {
	s.record("recognize")
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.recognizeErr
}

func (s *stubBackend) Chat(ctx context.Context, text, sessionID string) (ChatReply, error) {
	s.record("chat:" + sessionID + ":" + text)
	return s.reply, s.chatErr
}

func (s *stubBackend) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.record("synthesize")
	return s.audio, s.synthErr
}

func (s *stubBackend) EndSession(ctx context.Context, sessionID string) error {
	s.record("end:" + sessionID)
	return s.endErr
}

func newConnectedController(t *testing.T, sb *stubBackend, opts ControllerOptions) *Controller {
	t.Helper()
	ctrl := NewController(sb, nil, opts)
	if ok, err := ctrl.CheckConnection(context.Background()); !ok {
		t.Fatalf("CheckConnection() = false, %v", err)
	}
	return ctrl
}

func TestController_RunVoiceTurn_Success(t *testing.T) {
	sb := &stubBackend{
		text:  "make a page",
		reply: ChatReply{Response: "Sure:\n```html\n<!DOCTYPE html><html></html>\n```"},
		audio: []byte("wav"),
	}

	var modes []Mode
	var sunk []byte
	ctrl := newConnectedController(t, sb, ControllerOptions{
		SessionID: "s1",
		OnChange:  func(s SessionState) { modes = append(modes, s.Mode) },
		AudioSink: func(turn Turn, audio []byte) error {
			sunk = audio
			return nil
		},
	})
	modes = nil

	res := ctrl.RunVoiceTurn(context.Background())

	if !res.Ran || res.Err != nil {
		t.Fatalf("RunVoiceTurn() Ran=%v Err=%v, want success", res.Ran, res.Err)
	}
	if res.UserTurn == nil || res.UserTurn.Text != "make a page" || !res.UserTurn.IsUser {
		t.Errorf("UserTurn = %+v", res.UserTurn)
	}
	if res.ReplyTurn == nil || res.ReplyTurn.IsUser {
		t.Errorf("ReplyTurn = %+v", res.ReplyTurn)
	}
	if len(res.NewBlocks) != 1 || !res.NewBlocks[0].IsHTML {
		t.Errorf("NewBlocks = %+v, want one HTML block", res.NewBlocks)
	}
	if string(res.Audio) != "wav" || string(sunk) != "wav" {
		t.Errorf("Audio = %q, sink got %q", res.Audio, sunk)
	}

	st := res.FinalState
	if st.Mode != ModeIdle || st.Status != StatusReady {
		t.Errorf("final state = %s %q, want idle %q", st.Mode, st.Status, StatusReady)
	}
	if st.TurnCount != 2 || st.BlockCount != 1 || !st.PreviewVisible {
		t.Errorf("final state = %+v", st)
	}

	wantModes := []Mode{ModeListening, ModeProcessing, ModeSpeaking, ModeIdle}
	if len(modes) != len(wantModes) {
		t.Fatalf("mode sequence = %v, want %v", modes, wantModes)
	}
	for i := range wantModes {
		if modes[i] != wantModes[i] {
			t.Errorf("mode sequence = %v, want %v", modes, wantModes)
			break
		}
	}

	wantCalls := []string{"health", "recognize", "chat:s1:make a page", "synthesize"}
	calls := sb.Calls()
	if strings.Join(calls, ",") != strings.Join(wantCalls, ",") {
		t.Errorf("calls = %v, want %v", calls, wantCalls)
	}
}

func TestController_RunVoiceTurn_NoopWhenOffline(t *testing.T) {
	sb := &stubBackend{healthErr: &ConnectivityError{Err: errors.New("refused")}}
	ctrl := NewController(sb, nil, ControllerOptions{})
	if ok, _ := ctrl.CheckConnection(context.Background()); ok {
		t.Fatal("CheckConnection() = true, want false")
	}
	before := ctrl.State()

	res := ctrl.RunVoiceTurn(context.Background())

	if res.Ran {
		t.Error("RunVoiceTurn() ran while offline")
	}
	if res.FinalState != before {
		t.Errorf("state changed: %+v -> %+v", before, res.FinalState)
	}
	for _, c := range sb.Calls() {
		if c != "health" {
			t.Errorf("unexpected backend call %q while offline", c)
		}
	}
}

func TestController_RunVoiceTurn_NoopWhenBusy(t *testing.T) {
	sb := &stubBackend{text: "hi", reply: ChatReply{Response: "ok"}, block: make(chan struct{})}
	ctrl := newConnectedController(t, sb, ControllerOptions{})

	done := make(chan TurnResult, 1)
	go func() { done <- ctrl.RunVoiceTurn(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for ctrl.State().Mode != ModeListening {
		select {
		case <-deadline:
			t.Fatal("controller never entered listening")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	second := ctrl.RunVoiceTurn(context.Background())
	if second.Ran {
		t.Error("second RunVoiceTurn() ran while a turn was in flight")
	}
	if err := ctrl.Clear(context.Background()); !errors.Is(err, ErrTurnInProgress) {
		t.Errorf("Clear() during a turn = %v, want ErrTurnInProgress", err)
	}

	close(sb.block)
	first := <-done
	if !first.Ran || first.Err != nil {
		t.Errorf("first turn = Ran %v Err %v", first.Ran, first.Err)
	}

	recognizes := 0
	for _, c := range sb.Calls() {
		if c == "recognize" {
			recognizes++
		}
	}
	if recognizes != 1 {
		t.Errorf("recognize called %d times, want 1", recognizes)
	}
}

func TestController_RunVoiceTurn_Failures(t *testing.T) {
	tests := []struct {
		name       string
		backend    *stubBackend
		wantStatus string
		wantTurns  int
		wantErr    interface{}
	}{
		{
			name:       "transcription unsuccessful",
			backend:    &stubBackend{recognizeErr: &TranscriptionError{Reason: "Could not understand audio"}},
			wantStatus: "Error: Could not understand audio",
			wantTurns:  0,
			wantErr:    &TranscriptionError{},
		},
		{
			name:       "untyped transcription failure",
			backend:    &stubBackend{recognizeErr: errors.New("socket closed")},
			wantStatus: "Error: Speech recognition failed",
			wantTurns:  0,
			wantErr:    &TranscriptionError{},
		},
		{
			name:       "reply failure keeps user turn",
			backend:    &stubBackend{text: "hi", chatErr: errors.New("500")},
			wantStatus: "Error: Chat response failed",
			wantTurns:  1,
			wantErr:    &ReplyError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newConnectedController(t, tt.backend, ControllerOptions{})

			res := ctrl.RunVoiceTurn(context.Background())

			if !res.Ran || res.Err == nil {
				t.Fatalf("RunVoiceTurn() Ran=%v Err=%v, want failure", res.Ran, res.Err)
			}
			switch tt.wantErr.(type) {
			case *TranscriptionError:
				var te *TranscriptionError
				if !errors.As(res.Err, &te) {
					t.Errorf("Err = %T, want *TranscriptionError", res.Err)
				}
			case *ReplyError:
				var re *ReplyError
				if !errors.As(res.Err, &re) {
					t.Errorf("Err = %T, want *ReplyError", res.Err)
				}
			}
			st := ctrl.State()
			if st.Mode != ModeIdle {
				t.Errorf("Mode = %s, want idle", st.Mode)
			}
			if st.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", st.Status, tt.wantStatus)
			}
			if st.TurnCount != tt.wantTurns {
				t.Errorf("TurnCount = %d, want %d", st.TurnCount, tt.wantTurns)
			}
		})
	}
}

func TestController_SynthesisFailureIsNotFatal(t *testing.T) {
	sb := &stubBackend{text: "hi", reply: ChatReply{Response: "hello"}, synthErr: errors.New("tts down")}
	ctrl := newConnectedController(t, sb, ControllerOptions{})

	res := ctrl.RunVoiceTurn(context.Background())

	if res.Err != nil {
		t.Errorf("Err = %v, want nil", res.Err)
	}
	var se *SynthesisError
	if !errors.As(res.SpeechErr, &se) {
		t.Errorf("SpeechErr = %v, want *SynthesisError", res.SpeechErr)
	}
	if res.FinalState.Mode != ModeIdle || res.FinalState.TurnCount != 2 {
		t.Errorf("final state = %+v", res.FinalState)
	}
}

func TestController_ExitEndsSession(t *testing.T) {
	sb := &stubBackend{text: "bye", reply: ChatReply{Response: "Goodbye!", IsExit: true}}
	ctrl := newConnectedController(t, sb, ControllerOptions{})

	res := ctrl.RunVoiceTurn(context.Background())

	if !res.FinalState.Ended() || res.FinalState.Status != StatusEnded {
		t.Fatalf("final state = %+v, want ended", res.FinalState)
	}
	if again := ctrl.RunVoiceTurn(context.Background()); again.Ran {
		t.Error("RunVoiceTurn() ran after the session ended")
	}

	if err := ctrl.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if st := ctrl.State(); st.Mode != ModeIdle {
		t.Errorf("Mode after Clear = %s, want idle", st.Mode)
	}
}

func TestController_Timeout(t *testing.T) {
	sb := &stubBackend{block: make(chan struct{})}
	ctrl := newConnectedController(t, sb, ControllerOptions{Timeout: 20 * time.Millisecond})

	res := ctrl.RunVoiceTurn(context.Background())

	var te *TimeoutError
	if !errors.As(res.Err, &te) || te.Step != "transcription" {
		t.Fatalf("Err = %v, want transcription TimeoutError", res.Err)
	}
	st := ctrl.State()
	if st.Mode != ModeIdle || st.Status != "Error: transcription timed out" {
		t.Errorf("state = %s %q", st.Mode, st.Status)
	}
}

func TestController_Cancelled(t *testing.T) {
	sb := &stubBackend{block: make(chan struct{})}
	ctrl := newConnectedController(t, sb, ControllerOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	ctrl.RunVoiceTurn(ctx)

	st := ctrl.State()
	if st.Mode != ModeIdle || st.Status != StatusCancelled {
		t.Errorf("state = %s %q, want idle %q", st.Mode, st.Status, StatusCancelled)
	}
}

func TestController_Clear(t *testing.T) {
	sb := &stubBackend{
		text:   "hi",
		reply:  ChatReply{Response: "```html\n<p>x</p>\n```"},
		endErr: errors.New("already gone"),
	}
	renderer := NewPreviewRenderer()
	ctrl := newConnectedController(t, sb, ControllerOptions{SessionID: "s9", Renderer: renderer})
	ctrl.RunVoiceTurn(context.Background())
	if !renderer.Active() {
		t.Fatal("renderer should be active after an HTML reply")
	}

	// remote failure does not block the local reset
	if err := ctrl.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	st := ctrl.State()
	if st.TurnCount != 0 || st.BlockCount != 0 || st.SelectedIndex != 0 || st.PreviewVisible {
		t.Errorf("state after Clear = %+v", st)
	}
	if st.Status != StatusCleared {
		t.Errorf("Status = %q, want %q", st.Status, StatusCleared)
	}
	if renderer.Active() {
		t.Error("renderer should be inactive after Clear")
	}

	found := false
	for _, c := range sb.Calls() {
		if c == "end:s9" {
			found = true
		}
	}
	if !found {
		t.Errorf("calls = %v, want end:s9", sb.Calls())
	}
}

func TestController_ClearOfflineSkipsRemote(t *testing.T) {
	sb := &stubBackend{healthErr: errors.New("refused")}
	ctrl := NewController(sb, nil, ControllerOptions{})
	ctrl.CheckConnection(context.Background())
	ctrl.LoadDemo()

	if err := ctrl.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	for _, c := range sb.Calls() {
		if strings.HasPrefix(c, "end:") {
			t.Errorf("EndSession called while offline")
		}
	}
	if ctrl.Conversation().Len() != 0 {
		t.Error("conversation should be empty after Clear")
	}
}

func TestController_SelectionRerendersPreview(t *testing.T) {
	renderer := NewPreviewRenderer()
	sb := &stubBackend{
		text:  "hi",
		reply: ChatReply{Response: "```html\n<p>x</p>\n```\n```css\np{}\n```"},
	}
	ctrl := newConnectedController(t, sb, ControllerOptions{Renderer: renderer})
	ctrl.RunVoiceTurn(context.Background())

	if !renderer.Active() {
		t.Fatal("renderer should be active for the selected HTML block")
	}

	ctrl.SelectNext()
	if renderer.Active() {
		t.Error("renderer should be inactive for a CSS block")
	}

	ctrl.SelectPrev()
	if !renderer.Active() {
		t.Error("renderer should be active again after selecting the HTML block")
	}

	if visible := ctrl.TogglePreview(); visible {
		t.Error("TogglePreview() should hide the preview")
	}
	if renderer.Active() {
		t.Error("renderer should be inactive when the preview is hidden")
	}
}

func TestController_LoadDemo(t *testing.T) {
	ctrl := NewController(&stubBackend{}, nil, ControllerOptions{})
	ctrl.LoadDemo()

	st := ctrl.State()
	if st.TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", st.TurnCount)
	}
	if st.BlockCount == 0 || !st.PreviewVisible {
		t.Errorf("demo should contain a visible HTML block, state = %+v", st)
	}
	if st.Connected {
		t.Error("LoadDemo should not mark the controller connected")
	}
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
		busy bool
	}{
		{ModeIdle, "idle", false},
		{ModeListening, "listening", true},
		{ModeProcessing, "processing", true},
		{ModeSpeaking, "speaking", true},
		{ModeEnded, "ended", false},
		{Mode(42), "unknown", false},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
		if got := tt.mode.Busy(); got != tt.busy {
			t.Errorf("Mode(%d).Busy() = %v, want %v", tt.mode, got, tt.busy)
		}
	}
}
