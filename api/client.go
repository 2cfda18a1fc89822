// Package api provides the HTTP client used to call a documentation host's
// rebuild trigger.
//
// It is intended for internal use by gantry only.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gantry-ci/gantry/internal/gantryhttp"
	"github.com/gantry-ci/gantry/logger"
	"github.com/gantry-ci/gantry/version"
)

// Config carries the settings a Client is constructed with.
type Config struct {
	// Endpoint is the full URL of the trigger to call. There is no default;
	// the documentation host defines it.
	Endpoint string

	// Token is an optional credential. When set, every request carries an
	// "Authorization: Token ..." header.
	Token string

	// UserAgent to send, in place of the default gantry/<version> one.
	UserAgent string

	// DisableHTTP2 forces requests onto HTTP/1.1, for hosts with broken
	// HTTP/2 support.
	DisableHTTP2 bool

	// DebugHTTP dumps each request and response to the logger.
	DebugHTTP bool

	// TraceHTTP logs connection-level timings for each request.
	TraceHTTP bool

	// TLSConfig overrides the client's TLS settings. Tests use it to trust
	// a local server.
	TLSConfig *tls.Config

	// HTTPClient, when non-nil, is used as-is and every transport-related
	// field above is ignored.
	HTTPClient *http.Client
}

// A Client calls a documentation host's rebuild trigger.
type Client struct {
	conf   Config
	client *http.Client
	logger logger.Logger
}

// NewClient returns a new documentation host client.
func NewClient(l logger.Logger, conf Config) *Client {
	if conf.UserAgent == "" {
		conf.UserAgent = version.UserAgent()
	}

	httpClient := conf.HTTPClient
	if httpClient == nil {
		httpClient = gantryhttp.NewClient(
			gantryhttp.WithAuthToken(conf.Token),
			gantryhttp.WithAllowHTTP2(!conf.DisableHTTP2),
			gantryhttp.WithTLSConfig(conf.TLSConfig),
		)
	}

	return &Client{
		conf:   conf,
		client: httpClient,
		logger: l,
	}
}

// Config returns the configuration the Client was built with.
func (c *Client) Config() Config {
	return c.conf
}

// Header is an extra header to send with a request.
type Header struct {
	Name  string
	Value string
}

// newRequest creates a request aimed at the trigger URL. A non-nil body is
// JSON-encoded into the request.
func (c *Client) newRequest(ctx context.Context, method string, body any, headers ...Header) (*http.Request, error) {
	buf := new(bytes.Buffer)
	if body != nil {
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.conf.Endpoint, buf)
	if err != nil {
		return nil, err
	}

	req.Header.Add("User-Agent", c.conf.UserAgent)
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}
	for _, h := range headers {
		req.Header.Add(h.Name, h.Value)
	}

	return req, nil
}

// Response wraps the host's http.Response.
type Response struct {
	*http.Response
}

// doRequest sends a request and decodes the JSON response body into v, or
// returns the body as an error when the host answered with a non-2xx status.
// If v implements io.Writer the raw body is written to it instead of being
// decoded.
func (c *Client) doRequest(req *http.Request, v any) (*Response, error) {
	resp, err := gantryhttp.Do(c.logger, c.client, req,
		gantryhttp.WithDebugHTTP(c.conf.DebugHTTP),
		gantryhttp.WithTraceHTTP(c.conf.TraceHTTP),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body) //nolint:errcheck // drains before the deferred Close so the connection can be reused

	response := &Response{Response: resp}

	if err := checkResponse(resp); err != nil {
		// The response still goes back to the caller, who may want to
		// inspect the status.
		return response, err
	}

	if v != nil {
		if w, ok := v.(io.Writer); ok {
			io.Copy(w, resp.Body) //nolint:errcheck // a short body surfaces to the caller as short output
		} else {
			err := json.NewDecoder(resp.Body).Decode(v)
			// Many trigger endpoints answer 2xx with an empty body, which
			// decodes to io.EOF. Treat that the same as an empty object.
			if err != nil && !errors.Is(err, io.EOF) {
				return response, fmt.Errorf("decoding JSON response body: %w", err)
			}
		}
	}

	return response, nil
}

// ErrorResponse carries the message a host answered a failed request with.
type ErrorResponse struct {
	Response *http.Response
	Message  string `json:"message"`
}

func (r *ErrorResponse) Error() string {
	s := fmt.Sprintf("%v %v: %s", r.Response.Request.Method, r.Response.Request.URL, r.Response.Status)
	if r.Message != "" {
		return s + ": " + r.Message
	}
	return s
}

// ErrHasStatus reports whether err is an ErrorResponse for the given
// status code.
func ErrHasStatus(err error, code int) bool {
	var apierr *ErrorResponse
	return errors.As(err, &apierr) && apierr.Response.StatusCode == code
}

func checkResponse(r *http.Response) error {
	if c := r.StatusCode; 200 <= c && c <= 299 {
		return nil
	}

	errResp := &ErrorResponse{Response: r}
	if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
		// Not every host answers in JSON. A plain-text error simply leaves
		// Message empty.
		json.Unmarshal(data, errResp) //nolint:errcheck
	}
	return errResp
}
