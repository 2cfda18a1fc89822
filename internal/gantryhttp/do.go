package gantryhttp

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"net/http/httputil"
	"strconv"
	"time"

	"github.com/gantry-ci/gantry/logger"
)

type doConfig struct {
	debugHTTP bool
	traceHTTP bool
}

// A DoOption adjusts how Do performs a request.
type DoOption = func(*doConfig)

// WithDebugHTTP dumps the full request and response to the debug log.
func WithDebugHTTP(d bool) DoOption { return func(c *doConfig) { c.debugHTTP = d } }

// WithTraceHTTP logs connection-level timings for the request.
func WithTraceHTTP(t bool) DoOption { return func(c *doConfig) { c.traceHTTP = t } }

// Do performs req with client. Requests and responses are logged at debug
// level, in full when debug dumping is on.
func Do(l logger.Logger, client *http.Client, req *http.Request, opts ...DoOption) (*http.Response, error) {
	var conf doConfig
	for _, opt := range opts {
		opt(&conf)
	}

	if conf.debugHTTP {
		if dump, err := httputil.DumpRequestOut(req, true); err != nil {
			l.Debug("ERR: %s\n%s", err, string(dump))
		} else {
			l.Debug("%s", string(dump))
		}
	}

	tr := &tracer{Logger: l}
	if conf.traceHTTP {
		req = tr.attach(req)
		tr.start()
	}

	ts := time.Now()
	l.Debug("%s %s", req.Method, req.URL)

	resp, err := client.Do(req)
	if err != nil {
		if conf.traceHTTP {
			tr.emit(logger.ERROR)
		}
		return nil, err
	}

	l.WithFields(
		logger.StringField("proto", resp.Proto),
		logger.IntField("status", resp.StatusCode),
		logger.DurationField("elapsed", time.Since(ts)),
	).Debug("%s %s done", req.Method, req.URL)

	if conf.debugHTTP {
		if dump, err := httputil.DumpResponse(resp, true); err != nil {
			l.Debug("\nERR: %s\n%s", err, string(dump))
		} else {
			l.Debug("\n%s", string(dump))
		}
	}

	if conf.traceHTTP {
		tr.emit(logger.DEBUG)
	}

	return resp, nil
}

// tracer collects httptrace events as fields on a logger, for emitting in a
// single entry once the request is over.
type tracer struct {
	startTime time.Time
	logger.Logger
}

func (t *tracer) start() { t.startTime = time.Now() }

// timing records the time since start under the event's name.
func (t *tracer) timing(event string) {
	t.Logger = t.Logger.WithFields(logger.DurationField(event, time.Since(t.startTime)))
}

func (t *tracer) field(key, value string) {
	t.Logger = t.Logger.WithFields(logger.StringField(key, value))
}

func (t *tracer) duration(event string, d time.Duration) {
	t.Logger = t.Logger.WithFields(logger.DurationField(event, d))
}

// emit logs the collected trace. Logger has no level-as-argument method, so
// pick the closest.
func (t *tracer) emit(level logger.Level) {
	const msg = "Request timing"
	switch level {
	case logger.DEBUG:
		t.Debug(msg)
	case logger.INFO:
		t.Info(msg)
	case logger.WARN:
		t.Warn(msg)
	case logger.ERROR:
		t.Error(msg)
	}
}

// attach registers the tracer's callbacks on the request's context and
// returns the request to use in its place.
func (t *tracer) attach(req *http.Request) *http.Request {
	trace := &httptrace.ClientTrace{
		GetConn: func(hostPort string) {
			t.field("hostPort", hostPort)
			t.timing("getConn")
		},
		GotConn: func(info httptrace.GotConnInfo) {
			t.timing("gotConn")
			t.field("reused", strconv.FormatBool(info.Reused))
			t.field("idle", strconv.FormatBool(info.WasIdle))
			t.duration("idleTime", info.IdleTime)
		},
		GotFirstResponseByte: func() {
			t.timing("gotFirstResponseByte")
		},
		DNSStart: func(httptrace.DNSStartInfo) {
			t.timing("dnsStart")
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			t.timing("dnsDone")
		},
		ConnectStart: func(network, addr string) {
			t.timing(fmt.Sprintf("connectStart.%s.%s", network, addr))
		},
		ConnectDone: func(network, addr string, _ error) {
			t.timing(fmt.Sprintf("connectDone.%s.%s", network, addr))
		},
		TLSHandshakeStart: func() {
			t.timing("tlsHandshakeStart")
		},
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			t.timing("tlsHandshakeDone")
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			t.timing("wroteRequest")
		},
	}

	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	t.field("uri", req.URL.String())
	t.field("method", req.Method)

	return req
}
