package httputil

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// NewClient builds the shared outbound HTTP client. Every upstream client
// uses one of these so proxy routing is a single concern: the transport
// honors HTTP_PROXY/HTTPS_PROXY by default, and an explicitly configured
// proxy URL overrides the environment.
func NewClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid outbound proxy URL %q: %v", proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
