package parser

import (
	"net/url"
	"strings"

	"github.com/srikandi-id/harvester/internal/types"
)

var skippedSchemes = []string{"#", "javascript:", "mailto:", "tel:", "data:"}

// ResolveLink turns href into an absolute http(s) URL against base.
// Fragments are dropped. Anchors, script links, and anything that does not
// end up http(s) with a host yield types.ErrInvalidLink.
func ResolveLink(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", types.ErrInvalidLink
	}
	lower := strings.ToLower(href)
	for _, p := range skippedSchemes {
		if strings.HasPrefix(lower, p) {
			return "", types.ErrInvalidLink
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", types.ErrInvalidLink
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	resolved.Fragment = ""

	abs := resolved.String()
	if !types.IsAbsoluteHTTP(abs) {
		return "", types.ErrInvalidLink
	}
	return abs, nil
}

// MustBase parses a site base URL known at compile time.
func MustBase(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic("parser: bad base URL " + raw + ": " + err.Error())
	}
	return u
}
