package client

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns the client used for all upstream requests. It has no
// cookie jar so nothing but the user agent identifies the caller.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		DisableCompression:    false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
