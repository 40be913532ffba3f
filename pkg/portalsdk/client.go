package portalsdk

import (
	"net/http"
	"strings"
	"time"
)

// Client is a client for the marketplace backend's account endpoints.
//
// Client never manages credentials itself. Install httpx.Bearer (and the
// other httpx middleware) on HTTPClient's transport; public endpoints mark
// their context with httpx.SkipCredentials so no stale token leaks onto them.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// UserAgent is reported with visit tracking calls.
	UserAgent string
}

// DefaultTimeout bounds every backend call unless HTTPClient says otherwise.
const DefaultTimeout = 10 * time.Second

// NewClient creates a client with a plain transport and DefaultTimeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		UserAgent: "immo-cli",
	}
}

// WithTransport returns a copy of c whose HTTP client uses rt.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	cp := *c
	hc := *c.HTTPClient
	hc.Transport = rt
	cp.HTTPClient = &hc
	return &cp
}
