package fetcher

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

const defaultRequestTimeout = 15 * time.Second

// TransportOptions tunes the default HTTP client.
type TransportOptions struct {
	Timeout       time.Duration // per-request cap; 0 uses the default
	SkipTLSVerify bool
}

// newHTTPTransport returns a pooled Transport with optional TLS skipping.
func newHTTPTransport(skipInsecure bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: skipInsecure, // NOTE: intended for dev only
		},

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewHTTPClient builds an http.Client with transport + request timeout.
// The timeout is the only way to bound a resolution in flight.
func NewHTTPClient(opts TransportOptions) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: newHTTPTransport(opts.SkipTLSVerify),
	}
}
