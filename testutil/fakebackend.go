package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// FakeBackend is an in-process stand-in for the assistant backend. Fields
// may be changed between requests; handlers read them under the lock.
type FakeBackend struct {
	Server *httptest.Server

	mu sync.Mutex

	HealthStatus     int    // status for GET /health
	RecognizeSuccess bool   // "success" field of /speech/recognize
	RecognizeText    string // "text" field of /speech/recognize
	RecognizeStatus  int
	Reply            string // "response" field of /chat/text
	IsExit           bool
	ChatStatus       int
	Audio            []byte
	SynthesizeStatus int
	SessionStatus    int
	Delay            time.Duration // applied before every answer

	requests  []string
	chatTexts []string
	sessions  []string
}

// NewFakeBackend starts a healthy backend that recognizes "hello" and
// replies "Hi there". It is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		HealthStatus:     http.StatusOK,
		RecognizeSuccess: true,
		RecognizeText:    "hello",
		RecognizeStatus:  http.StatusOK,
		Reply:            "Hi there",
		ChatStatus:       http.StatusOK,
		Audio:            []byte("RIFFfake"),
		SynthesizeStatus: http.StatusOK,
		SessionStatus:    http.StatusOK,
	}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the base URL of the fake backend
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// Set runs fn with the lock held so fields can be changed safely
func (fb *FakeBackend) Set(fn func(fb *FakeBackend)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fn(fb)
}

// Requests returns "METHOD /path" for every request received
func (fb *FakeBackend) Requests() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.requests...)
}

// ChatTexts returns the text of every chat request
func (fb *FakeBackend) ChatTexts() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.chatTexts...)
}

// EndedSessions returns the session IDs passed to DELETE /session/{id}
func (fb *FakeBackend) EndedSessions() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.sessions...)
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.requests = append(fb.requests, r.Method+" "+r.URL.Path)
	delay := fb.Delay
	fb.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/health":
		writeJSON(w, fb.HealthStatus, map[string]string{"status": "healthy"})

	case r.Method == http.MethodPost && r.URL.Path == "/speech/recognize":
		writeJSON(w, fb.RecognizeStatus, map[string]interface{}{
			"success": fb.RecognizeSuccess,
			"text":    fb.RecognizeText,
		})

	case r.Method == http.MethodPost && r.URL.Path == "/chat/text":
		var req struct {
			Text      string `json:"text"`
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fb.chatTexts = append(fb.chatTexts, req.Text)
		writeJSON(w, fb.ChatStatus, map[string]interface{}{
			"response": fb.Reply,
			"is_exit":  fb.IsExit,
		})

	case r.Method == http.MethodPost && r.URL.Path == "/speech/synthesize":
		w.Header().Set("Content-Type", "audio/wav")
		w.WriteHeader(fb.SynthesizeStatus)
		_, _ = w.Write(fb.Audio)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/session/"):
		fb.sessions = append(fb.sessions, strings.TrimPrefix(r.URL.Path, "/session/"))
		writeJSON(w, fb.SessionStatus, map[string]string{"status": "ended"})

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
