package api

import (
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
)

var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true, // 429
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// Suffix-matched against error strings, for connection failures that only
// surface as text.
var retryableErrorSuffixes = []string{
	syscall.ECONNREFUSED.Error(),
	syscall.ECONNRESET.Error(),
	syscall.ETIMEDOUT.Error(),
	"no such host",
	"remote error: handshake failure",
	io.ErrUnexpectedEOF.Error(),
	io.EOF.Error(),
}

// IsRetryableStatus reports whether the response carries a status worth
// retrying: 429, or a 5xx that suggests the host is briefly overloaded.
func IsRetryableStatus(r *Response) bool {
	return retryableStatuses[r.StatusCode]
}

// IsRetryableError reports whether err looks like a transient network
// problem, one where a later attempt could succeed.
func IsRetryableError(err error) bool {
	if neterr, ok := err.(net.Error); ok {
		if neterr.Timeout() || neterr.Temporary() { //nolint:staticcheck
			return true
		}
	}

	if urlerr, ok := err.(*url.Error); ok {
		if strings.Contains(urlerr.Error(), "use of closed network connection") {
			return true
		}
		if neterr, ok := urlerr.Err.(net.Error); ok && neterr.Timeout() {
			return true
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "request canceled while waiting for connection") {
		return true
	}
	for _, suffix := range retryableErrorSuffixes {
		if strings.HasSuffix(msg, suffix) {
			return true
		}
	}

	return false
}
