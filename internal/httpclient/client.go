package httpclient

import (
	"context"
	"net/http"
	"time"
)

// ClientType selects the request header profile.
type ClientType string

const (
	// BrowserClient uses browser-like headers. Podcast hosting pages
	// frequently refuse requests without a browser User-Agent.
	BrowserClient ClientType = "browser"

	// PlainClient sends requests with Go's default headers.
	PlainClient ClientType = "plain"
)

// HTTPClient wraps an http.Client with a header profile and timeout.
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
}

// NewClient creates an HTTP client with the given profile and timeout.
// A zero timeout disables the client-wide deadline; callers then bound
// requests through the context (large media downloads need this).
func NewClient(clientType ClientType, timeout time.Duration) *HTTPClient {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &HTTPClient{
		client:     client,
		clientType: clientType,
	}
}

// Do executes a request with the profile's headers applied.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)
	return c.client.Do(req)
}

// Get is a convenience method for context-bound GET requests.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// setHeaders applies the header profile to an outgoing request.
func (c *HTTPClient) setHeaders(req *http.Request) {
	switch c.clientType {
	case BrowserClient:
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	default:
		// PlainClient: keep Go's default headers.
	}
}
