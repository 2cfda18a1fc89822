package gantryhttp

import (
	"errors"
	"net/http"
)

// authenticatedTransport sets the Authorization header on every request
// before a delegate transport performs it.
type authenticatedTransport struct {
	// Exactly one of these should be non-empty. token wins if both are set.
	token  string
	bearer string

	delegate http.RoundTripper
}

func (t *authenticatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// The http.RoundTripper contract requires the body to be closed on every
	// path, including errors, unless it is handed on to another RoundTripper.
	bodyHandedOff := false
	if req.Body != nil {
		defer func() {
			if !bodyHandedOff {
				req.Body.Close() //nolint:errcheck // req.Body is only open for reading
			}
		}()
	}

	if t.token == "" && t.bearer == "" {
		return nil, errors.New("no credential: both token and bearer are empty")
	}

	// The contract also forbids mutating the request, so the header goes on
	// a clone. Clone copies the header map deeply enough for that.
	req = req.Clone(req.Context())
	switch {
	case t.token != "":
		req.Header.Set("Authorization", "Token "+t.token)
	case t.bearer != "":
		req.Header.Set("Authorization", "Bearer "+t.bearer)
	}

	bodyHandedOff = true
	return t.delegate.RoundTrip(req)
}

// CancelRequest forwards cancellation to the delegate if it supports it.
func (t *authenticatedTransport) CancelRequest(req *http.Request) {
	if canceler, ok := t.delegate.(interface{ CancelRequest(*http.Request) }); ok {
		canceler.CancelRequest(req)
	}
}

// CloseIdleConnections drains the delegate's connection pool if it has one.
func (t *authenticatedTransport) CloseIdleConnections() {
	if closer, ok := t.delegate.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}
