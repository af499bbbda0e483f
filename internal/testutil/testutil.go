// Package testutil provides testing utilities and helpers for the
// oauth-backend library.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// BackendCall records a single request received by the fake backend.
type BackendCall struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	Form   url.Values
}

// FakeBackend is an httptest-based stand-in for the remote authorization
// backend. Configure the response fields before making a call, then inspect
// LastCall afterwards. Safe for use from the server goroutine.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	lastCall *BackendCall

	// StatusCode is the response status (default 200)
	StatusCode int

	// Headers are additional response headers
	Headers map[string]string

	// Body is the raw response body
	Body string
}

// NewFakeBackend starts a fake backend that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{StatusCode: http.StatusOK}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.handle))
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the fake backend's base URL.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// LastCall returns the most recent request received, or nil.
func (f *FakeBackend) LastCall() *BackendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCall
}

// Respond configures the next response in one call.
func (f *FakeBackend) Respond(statusCode int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusCode = statusCode
	f.Body = body
}

func (f *FakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	f.mu.Lock()
	f.lastCall = &BackendCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Query:  r.URL.Query(),
		Form:   r.PostForm,
	}
	statusCode := f.StatusCode
	body := f.Body
	headers := make(map[string]string, len(f.Headers))
	for name, value := range f.Headers {
		headers[name] = value
	}
	f.mu.Unlock()

	for name, value := range headers {
		w.Header().Set(name, value)
	}
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)
	if body != "" {
		_, _ = w.Write([]byte(body))
	}
}
