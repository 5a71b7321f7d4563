// Package httpclient configures the HTTP client used to call the analysis
// backend.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewOutbound creates the pooled outbound client. No overall client timeout:
// per-request deadlines are owned by the request coordinator, which computes
// them from query size.
func NewOutbound() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}
