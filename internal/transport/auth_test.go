package transport

import (
	"net/http"
	"testing"
)

func TestBearerAuth(t *testing.T) {
	auth := &BearerAuth{}
	req := &http.Request{Header: make(http.Header)}

	auth.Apply(req, "test-token")

	if got := req.Header.Get("Authorization"); got != "Bearer test-token" {
		t.Errorf("Expected Authorization header 'Bearer test-token', got '%s'", got)
	}
}

func TestBearerAuthEmptyToken(t *testing.T) {
	auth := &BearerAuth{}
	req := &http.Request{Header: make(http.Header)}

	auth.Apply(req, "")

	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("Expected no Authorization header, got '%s'", got)
	}
}
