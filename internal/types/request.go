package types

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Request describes a single search-page GET issued by an adapter.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Headers are extra HTTP headers to send with the request.
	Headers http.Header

	// Timeout overrides the fetcher's default timeout for this request.
	Timeout time.Duration

	// Source is the site this request belongs to.
	Source SourceName

	// WaitSelector is a CSS selector a browser fetcher waits for before
	// capturing the page. Ignored by the HTTP fetcher.
	WaitSelector string
}

// NewRequest creates a GET request for rawURL.
func NewRequest(rawURL string, source SourceName) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	return &Request{
		URL:     u,
		Headers: make(http.Header),
		Source:  source,
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// secretParams are query parameters whose values never reach logs or errors.
var secretParams = []string{"apikey", "api_key", "key", "token", "access_token"}

// LogURL returns the request URL with credential query values replaced by
// "REDACTED" and any userinfo password masked.
func (r *Request) LogURL() string {
	if r.URL == nil {
		return ""
	}
	u := *r.URL
	q := u.Query()
	redacted := false
	for k := range q {
		if slices.Contains(secretParams, strings.ToLower(k)) {
			q.Set(k, "REDACTED")
			redacted = true
		}
	}
	if redacted {
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}
