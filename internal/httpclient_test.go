package internal

import (
	"net/http"
	"testing"
)

func TestNewHTTPClient(t *testing.T) {
	direct, err := NewHTTPClient("")
	if err != nil {
		t.Fatalf("NewHTTPClient(\"\") error = %v", err)
	}
	if direct.Transport != nil {
		t.Error("direct client should use the default transport")
	}

	proxied, err := NewHTTPClient("127.0.0.1:1080")
	if err != nil {
		t.Fatalf("NewHTTPClient(socks) error = %v", err)
	}
	tr, ok := proxied.Transport.(*http.Transport)
	if !ok || tr.DialContext == nil {
		t.Errorf("proxied client transport = %#v, want custom DialContext", proxied.Transport)
	}
}
