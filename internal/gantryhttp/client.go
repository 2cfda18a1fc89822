// Package gantryhttp builds the [net/http.Client]s gantry uses to talk to
// documentation hosts.
package gantryhttp

import (
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

type config struct {
	// Credential for the Authorization header. token produces
	// "Authorization: Token ..." for documentation host triggers; bearer
	// produces "Authorization: Bearer ..." for hosts that want that form.
	token  string
	bearer string

	// HTTP/2 is on unless a host can't cope with it.
	allowHTTP2 bool

	timeout time.Duration

	// TLS overrides, used by tests to trust a local server.
	tlsConfig *tls.Config
}

// A ClientOption adjusts how NewClient builds a client.
type ClientOption = func(*config)

func WithAuthToken(t string) ClientOption      { return func(c *config) { c.token = t } }
func WithAuthBearer(b string) ClientOption     { return func(c *config) { c.bearer = b } }
func WithAllowHTTP2(a bool) ClientOption       { return func(c *config) { c.allowHTTP2 = a } }
func WithTimeout(d time.Duration) ClientOption { return func(c *config) { c.timeout = d } }
func WithTLSConfig(t *tls.Config) ClientOption { return func(c *config) { c.tlsConfig = t } }

// NewClient builds an HTTP client from the given options. The default client
// times out after 60 seconds and speaks HTTP/2.
func NewClient(opts ...ClientOption) *http.Client {
	conf := config{
		allowHTTP2: true,
		timeout:    60 * time.Second,
	}
	for _, opt := range opts {
		opt(&conf)
	}

	transport := cachedTransport(&conf)

	if conf.token == "" && conf.bearer == "" {
		return &http.Client{
			Timeout:   conf.timeout,
			Transport: transport,
		}
	}

	return &http.Client{
		Timeout: conf.timeout,
		Transport: &authenticatedTransport{
			token:    conf.token,
			bearer:   conf.bearer,
			delegate: transport,
		},
	}
}

// Transports are shared between clients built with the same transport
// options, so their connection pools are shared too.
type transportKey struct {
	allowHTTP2 bool
	tlsConfig  *tls.Config
}

var (
	transportsMu sync.Mutex
	transports   = make(map[transportKey]*http.Transport)
)

func cachedTransport(conf *config) *http.Transport {
	key := transportKey{allowHTTP2: conf.allowHTTP2, tlsConfig: conf.tlsConfig}

	transportsMu.Lock()
	defer transportsMu.Unlock()

	if t, ok := transports[key]; ok {
		return t
	}
	t := newTransport(conf)
	transports[key] = t
	return t
}

func newTransport(conf *config) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// TLS overrides must land before http2.ConfigureTransports reads the
	// config.
	if conf.tlsConfig != nil {
		transport.TLSClientConfig = conf.tlsConfig
	}

	if !conf.allowHTTP2 {
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
		// The default TLS config still offers h2 during negotiation, and a
		// server that takes the offer would break us.
		// See https://github.com/golang/go/issues/50571
		transport.TLSClientConfig.NextProtos = []string{"http/1.1"}
		return transport
	}

	// ConfigureTransports grafts HTTP/2 support onto the http.Transport,
	// which remains the transport to use afterwards: the returned
	// http2.Transport exists only for HTTP/2-specific knobs. The read idle
	// timeout makes the client notice connections that died underneath it;
	// without one, requests can hang on a dead connection indefinitely.
	// See https://github.com/golang/go/issues/59690
	tr2, err := http2.ConfigureTransports(transport)
	if err != nil {
		// Only documented to fail when the transport was already
		// HTTP2-enabled, and this one is freshly cloned.
		panic("http2.ConfigureTransports: " + err.Error())
	}
	if tr2 != nil {
		tr2.ReadIdleTimeout = 30 * time.Second
	}

	return transport
}
