package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Backend is the remote speech and chat service
type Backend interface {
	Health(ctx context.Context) error
	Recognize(ctx context.Context) (string, error)
	Chat(ctx context.Context, text, sessionID string) (ChatReply, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
	EndSession(ctx context.Context, sessionID string) error
}

// RecognizeResponse is the body of POST /speech/recognize
type RecognizeResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// ChatRequest is the body of POST /chat/text
type ChatRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// ChatReply is the body returned by POST /chat/text
type ChatReply struct {
	Response string `json:"response"`
	IsExit   bool   `json:"is_exit"`
}

// SynthesizeRequest is the body of POST /speech/synthesize
type SynthesizeRequest struct {
	Text string `json:"text"`
}

// statusError is a non-2xx answer from the backend
type statusError struct {
	Method string
	Path   string
	Code   int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// HTTPBackend talks to the backend over plain HTTP
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend creates a backend client for baseURL. A nil client uses
// http.DefaultClient.
func NewHTTPBackend(baseURL string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// BaseURL returns the backend root URL
func (b *HTTPBackend) BaseURL() string {
	return b.baseURL
}

// Health checks GET /health
func (b *HTTPBackend) Health(ctx context.Context) error {
	resp, err := b.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return &ConnectivityError{URL: b.baseURL + "/health", Status: se.Code, Err: err}
		}
		return &ConnectivityError{URL: b.baseURL + "/health", Err: err}
	}
	drain(resp)
	return nil
}

// Recognize asks the backend to capture and transcribe one utterance
func (b *HTTPBackend) Recognize(ctx context.Context) (string, error) {
	resp, err := b.do(ctx, http.MethodPost, "/speech/recognize", nil)
	if err != nil {
		return "", &TranscriptionError{Reason: "Speech recognition failed", Err: err}
	}
	defer drain(resp)

	var out RecognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &TranscriptionError{Reason: "Speech recognition failed", Err: fmt.Errorf("decode response: %w", err)}
	}
	if !out.Success || strings.TrimSpace(out.Text) == "" {
		return "", &TranscriptionError{Reason: "Could not understand audio"}
	}

	return out.Text, nil
}

// Chat sends the transcribed text and returns the assistant reply
func (b *HTTPBackend) Chat(ctx context.Context, text, sessionID string) (ChatReply, error) {
	resp, err := b.do(ctx, http.MethodPost, "/chat/text", ChatRequest{Text: text, SessionID: sessionID})
	if err != nil {
		return ChatReply{}, &ReplyError{SessionID: sessionID, Reason: "Chat response failed", Err: err}
	}
	defer drain(resp)

	var out ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ChatReply{}, &ReplyError{SessionID: sessionID, Reason: "Chat response failed", Err: fmt.Errorf("decode response: %w", err)}
	}

	return out, nil
}

// Synthesize returns the audio for text. The payload format is whatever the
// backend produces.
func (b *HTTPBackend) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := b.do(ctx, http.MethodPost, "/speech/synthesize", SynthesizeRequest{Text: text})
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	defer drain(resp)

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Err: fmt.Errorf("read audio: %w", err)}
	}
	return audio, nil
}

// EndSession terminates the remote session
func (b *HTTPBackend) EndSession(ctx context.Context, sessionID string) error {
	resp, err := b.do(ctx, http.MethodDelete, "/session/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return &SessionError{SessionID: sessionID, Err: err}
	}
	drain(resp)
	return nil
}

// do issues the request and returns the response only for 2xx statuses
func (b *HTTPBackend) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	LogDebug("%s %s", method, req.URL)
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp)
		return nil, &statusError{Method: method, Path: path, Code: resp.StatusCode}
	}

	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
